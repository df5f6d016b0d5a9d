package observability_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/staffdesk/internal/observability"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, observability.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, observability.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, observability.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, observability.ParseLevel("nonsense"))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := observability.WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", observability.RequestID(ctx))
	assert.Empty(t, observability.RequestID(context.Background()))
}
