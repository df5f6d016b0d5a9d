package toolcall

import (
	"strings"
	"time"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Payload is the typed body of an action. The set of implementations is closed.
type Payload interface {
	Kind() domain.ActionKind
	payload()
}

type WordPayload struct {
	FileName string    `json:"fileName"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	Content  string    `json:"content"`
}

type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type SlidePayload struct {
	FileName string  `json:"fileName"`
	Title    string  `json:"title"`
	Slides   []Slide `json:"slides"`
}

type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Notes   string   `json:"notes"`
}

type SheetPayload struct {
	FileName string     `json:"fileName"`
	Title    string     `json:"title"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
}

// DocumentPayload is a generic text file that is persisted straight into the project tree.
type DocumentPayload struct {
	FileName string `json:"fileName"`
	MIMEType string `json:"mimeType"`
	Content  string `json:"content"`
}

type DiagramPayload struct {
	Title   string `json:"title"`
	Mermaid string `json:"mermaid"`
}

type BoardPayload struct {
	Title   string        `json:"title"`
	Columns []BoardColumn `json:"columns"`
}

type BoardColumn struct {
	Name  string   `json:"name"`
	Cards []string `json:"cards"`
}

type CodePayload struct {
	Language string `json:"language"`
	FileName string `json:"fileName"`
	Code     string `json:"code"`
}

type ChartPayload struct {
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

type CalendarEventPayload struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

type TaskPayload struct {
	Title       string
	Description string
	AssigneeID  domain.EmployeeID
	Priority    string
	DueDate     *time.Time
}

type ProjectManagementPayload struct {
	// ProjectID is optional; the conversation's project is used when empty.
	ProjectID domain.ProjectID
	Op        ProjectOperation
}

type CollaborationPayload struct {
	ColleagueID domain.EmployeeID `json:"colleagueId"`
	Question    string            `json:"question"`
}

type ImagePayload struct {
	Prompt string `json:"prompt"`
}

func (WordPayload) Kind() domain.ActionKind              { return domain.ActionWord }
func (SlidePayload) Kind() domain.ActionKind             { return domain.ActionSlide }
func (SheetPayload) Kind() domain.ActionKind             { return domain.ActionSheet }
func (DocumentPayload) Kind() domain.ActionKind          { return domain.ActionDocument }
func (DiagramPayload) Kind() domain.ActionKind           { return domain.ActionDiagram }
func (BoardPayload) Kind() domain.ActionKind             { return domain.ActionBoard }
func (CodePayload) Kind() domain.ActionKind              { return domain.ActionCode }
func (ChartPayload) Kind() domain.ActionKind             { return domain.ActionChart }
func (CalendarEventPayload) Kind() domain.ActionKind     { return domain.ActionCalendarEvent }
func (TaskPayload) Kind() domain.ActionKind              { return domain.ActionTask }
func (ProjectManagementPayload) Kind() domain.ActionKind { return domain.ActionProjectManagement }
func (CollaborationPayload) Kind() domain.ActionKind     { return domain.ActionCollaborate }
func (ImagePayload) Kind() domain.ActionKind             { return domain.ActionImage }

func (WordPayload) payload()              {}
func (SlidePayload) payload()             {}
func (SheetPayload) payload()             {}
func (DocumentPayload) payload()          {}
func (DiagramPayload) payload()           {}
func (BoardPayload) payload()             {}
func (CodePayload) payload()              {}
func (ChartPayload) payload()             {}
func (CalendarEventPayload) payload()     {}
func (TaskPayload) payload()              {}
func (ProjectManagementPayload) payload() {}
func (CollaborationPayload) payload()     {}
func (ImagePayload) payload()             {}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate accepts the date formats models commonly emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
