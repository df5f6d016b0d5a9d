package domain

type ContextType string

const (
	ContextTypeGeneral ContextType = "general"
	ContextTypeProject ContextType = "project"
)

// Session is a brainstorm meeting. Its history is one log shared by all participants.
type Session struct {
	ID             SessionID    `json:"id"`
	Topic          string       `json:"topic"`
	ContextType    ContextType  `json:"context_type"`
	ContextID      ProjectID    `json:"context_id,omitempty"`
	ParticipantIDs []EmployeeID `json:"participant_ids"`
	History        []*Message   `json:"history"`
	CreatedAt      Timestamp    `json:"created_at"`
	LastActivity   Timestamp    `json:"last_activity"`
}

// ProjectID returns the project the session is scoped to, or "".
func (s *Session) ProjectID() ProjectID {
	if s.ContextType != ContextTypeProject {
		return ""
	}
	return s.ContextID
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.ParticipantIDs = append([]EmployeeID(nil), s.ParticipantIDs...)
	out.History = CloneMessages(s.History)
	return &out
}
