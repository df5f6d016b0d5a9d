package docenc_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/staffdesk/internal/adapters/docenc"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

func TestFileNameCorrectsExtension(t *testing.T) {
	cases := []struct {
		name, fallback, ext, want string
	}{
		{"report.docx", "", ".md", "report.md"},
		{"", "Quarterly Plan", ".csv", "Quarterly-Plan.csv"},
		{"../../etc/passwd", "", ".md", "passwd.md"},
		{"", "", ".md", "document.md"},
		{"budget.xlsx", "x", ".csv", "budget.csv"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, docenc.FileName(tc.name, tc.fallback, tc.ext))
	}
}

func TestEncodeSheet(t *testing.T) {
	enc := docenc.New()
	file, err := enc.Encode(context.Background(), &domain.TriggeredAction{
		Kind:    domain.ActionSheet,
		Payload: json.RawMessage(`{"fileName":"costs.xlsx","columns":["Item","Cost"],"rows":[["Ads",1200]]}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "costs.csv", file.FileName)
	assert.Equal(t, "Item,Cost\nAds,1200\n", string(file.Data))
}

func TestEncodeWordSections(t *testing.T) {
	enc := docenc.New()
	file, err := enc.Encode(context.Background(), &domain.TriggeredAction{
		Kind:    domain.ActionWord,
		Payload: json.RawMessage(`{"title":"Brief","sections":[{"heading":"Goals","body":"Grow."}]}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "Brief.md", file.FileName)
	assert.Equal(t, "# Brief\n\n## Goals\n\nGrow.\n\n", string(file.Data))
}

func TestEncodeRejectsCanvasKinds(t *testing.T) {
	_, err := docenc.New().Encode(context.Background(), &domain.TriggeredAction{
		Kind:    domain.ActionChart,
		Payload: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, domain.ErrNotSavable)
}
