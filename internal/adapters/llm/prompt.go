package llm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// toContents converts a log into model turns. Typing placeholders are not
// turns yet and are skipped; in multi-party sessions each model turn is
// prefixed with its speaker so participants can tell each other apart.
func toContents(history []*domain.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range history {
		if m.IsTyping {
			continue
		}

		var role genai.Role = genai.RoleUser
		if m.Role == domain.RoleModel {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if text := turnText(m); text != "" {
			parts = append(parts, genai.NewPartFromText(text))
		}
		if a := m.Attachment; a != nil && m.Role == domain.RoleUser {
			if data, err := base64.StdEncoding.DecodeString(a.Data); err == nil && len(data) > 0 {
				parts = append(parts, genai.NewPartFromBytes(data, a.MIMEType))
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}

func turnText(m *domain.Message) string {
	text := strings.TrimSpace(m.Text)
	if m.Attachment != nil && m.Role == domain.RoleUser {
		text = strings.TrimSpace(fmt.Sprintf("%s\n[attached file: %s]", text, m.Attachment.Name))
	}
	if text == "" {
		return ""
	}
	switch {
	case m.System:
		return "[system] " + text
	case m.Speaker != nil && m.Role == domain.RoleModel:
		return fmt.Sprintf("[%s]: %s", m.Speaker.Name, text)
	}
	return text
}

// Transcript renders a log as plain text, one speaker-labelled line per turn.
func Transcript(history []*domain.Message) string {
	var b strings.Builder
	for _, m := range history {
		if m.IsTyping || strings.TrimSpace(m.Text) == "" {
			continue
		}
		who := "User"
		switch {
		case m.System:
			who = "System"
		case m.Speaker != nil:
			who = m.Speaker.Name
		case m.Role == domain.RoleModel:
			who = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, strings.TrimSpace(m.Text))
	}
	return b.String()
}
