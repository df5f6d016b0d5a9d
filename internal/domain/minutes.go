package domain

import "time"

type MinutesID string

// MeetingMinutes is the stored summary of a brainstorm session.
type MeetingMinutes struct {
	ID           MinutesID    `json:"id"`
	SessionID    SessionID    `json:"session_id"`
	ProjectID    ProjectID    `json:"project_id,omitempty"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	Participants []EmployeeID `json:"participants"`
	CreatedAt    time.Time    `json:"created_at"`
}

// MinutesSummary is what the model gateway returns when summarizing a session.
type MinutesSummary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
