// Package toolcall detects structured actions embedded in model output and
// decodes them into typed payloads.
package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// Extraction is the result of scanning one model response.
type Extraction struct {
	Narration string
	// Action is nil when the response is plain text.
	Action *domain.TriggeredAction
}

// Extract looks for a fenced json block, falling back to the span between the
// first '{' and the last '}'. Anything that is not an object carrying action,
// payload and text degrades to plain narration. It never fails.
func Extract(response string) Extraction {
	plain := Extraction{Narration: strings.TrimSpace(response)}

	candidate, ok := candidateJSON(response)
	if !ok {
		return plain
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return plain
	}

	var kind, text string
	if err := decodeField(fields, "action", &kind); err != nil || kind == "" {
		return plain
	}
	if err := decodeField(fields, "text", &text); err != nil {
		return plain
	}
	payload, ok := fields["payload"]
	if !ok || isNull(payload) {
		return plain
	}

	k := domain.ActionKind(strings.ToLower(strings.TrimSpace(kind)))
	if !k.Valid() {
		return plain
	}

	return Extraction{
		Narration: strings.TrimSpace(text),
		Action: &domain.TriggeredAction{
			ID:      domain.NewActionID(),
			Kind:    k,
			Payload: append(json.RawMessage(nil), payload...),
			Text:    strings.TrimSpace(text),
			State:   domain.ActionPending,
		},
	}
}

// candidateJSON is greedy by design of the contract: prose containing braces
// around a real object can be mis-extracted, which then degrades to plain text.
func candidateJSON(response string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return response[start : end+1], true
}

func decodeField(fields map[string]json.RawMessage, name string, dst *string) error {
	raw, ok := fields[name]
	if !ok {
		return errMissingField
	}
	return json.Unmarshal(raw, dst)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
