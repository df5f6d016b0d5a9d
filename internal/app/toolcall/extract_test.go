package toolcall_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

func TestExtractFencedBlock(t *testing.T) {
	resp := "Sure, here is the plan.\n```json\n" +
		`{"action":"task","payload":{"title":"Call supplier"},"text":"I drafted a task for you."}` +
		"\n```\nLet me know."

	out := toolcall.Extract(resp)

	require.NotNil(t, out.Action)
	assert.Equal(t, domain.ActionTask, out.Action.Kind)
	assert.Equal(t, "I drafted a task for you.", out.Narration)
	assert.Equal(t, domain.ActionPending, out.Action.State)
	assert.NotEmpty(t, out.Action.ID)
	assert.JSONEq(t, `{"title":"Call supplier"}`, string(out.Action.Payload))
}

func TestExtractBraceFallback(t *testing.T) {
	resp := `Here you go {"action":"image","payload":{"prompt":"a logo"},"text":"Generating it."} done`

	out := toolcall.Extract(resp)

	require.NotNil(t, out.Action)
	assert.Equal(t, domain.ActionImage, out.Action.Kind)
	assert.Equal(t, "Generating it.", out.Narration)
}

func TestExtractDegradesToNarration(t *testing.T) {
	cases := map[string]string{
		"no object":       "Just a friendly reply without any structure.",
		"broken json":     "```json\n{\"action\": \"task\", \"payload\": \n```",
		"missing text":    `{"action":"task","payload":{"title":"x"}}`,
		"missing payload": `{"action":"task","text":"hi"}`,
		"null payload":    `{"action":"task","payload":null,"text":"hi"}`,
		"unknown kind":    `{"action":"teleport","payload":{},"text":"hi"}`,
		"array":           `[1, 2, 3]`,
		"reversed braces": "} nothing here {",
		"empty":           "",
	}

	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			var out toolcall.Extraction
			require.NotPanics(t, func() { out = toolcall.Extract(resp) })
			assert.Nil(t, out.Action)
			assert.Equal(t, strings.TrimSpace(resp), out.Narration)
		})
	}
}

func TestExtractGreedyBracesMisfire(t *testing.T) {
	// Braces in prose around the object widen the candidate span; the result is plain text.
	resp := `Use {curly} notes. {"action":"task","payload":{"title":"x"},"text":"ok"}`

	out := toolcall.Extract(resp)

	assert.Nil(t, out.Action)
	assert.Equal(t, resp, out.Narration)
}
