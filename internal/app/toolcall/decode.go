package toolcall

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Decode validates an action's payload against its kind's schema. It is pure:
// a non-nil error is always a *Rejection describing what is wrong.
func Decode(action *domain.TriggeredAction) (Payload, error) {
	if action == nil {
		return nil, reject("", "no action")
	}
	k := action.Kind
	raw := action.Payload

	switch k {
	case domain.ActionWord:
		var p WordPayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Content) == "" && len(p.Sections) == 0 {
			return nil, reject(k, "the document has no content")
		}
		return p, nil

	case domain.ActionSlide:
		var p SlidePayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if len(p.Slides) == 0 {
			return nil, reject(k, "the presentation has no slides")
		}
		return p, nil

	case domain.ActionSheet:
		return decodeSheet(raw)

	case domain.ActionDocument:
		var p DocumentPayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.FileName) == "" || p.Content == "" {
			return nil, reject(k, "a document needs a fileName and content")
		}
		return p, nil

	case domain.ActionDiagram:
		var p DiagramPayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Mermaid) == "" {
			return nil, reject(k, "the diagram has no definition")
		}
		return p, nil

	case domain.ActionBoard:
		var p BoardPayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if len(p.Columns) == 0 {
			return nil, reject(k, "the board has no columns")
		}
		return p, nil

	case domain.ActionCode:
		var p CodePayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if p.Code == "" {
			return nil, reject(k, "no code was given")
		}
		return p, nil

	case domain.ActionChart:
		var p ChartPayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if len(p.Datasets) == 0 {
			return nil, reject(k, "the chart has no data")
		}
		return p, nil

	case domain.ActionCalendarEvent:
		return decodeCalendarEvent(raw)

	case domain.ActionTask:
		return decodeTask(raw)

	case domain.ActionProjectManagement:
		return decodeProjectManagement(raw)

	case domain.ActionCollaborate:
		var p CollaborationPayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if p.ColleagueID == "" || strings.TrimSpace(p.Question) == "" {
			return nil, reject(k, "a collaboration needs a colleagueId and a question")
		}
		return p, nil

	case domain.ActionImage:
		var p ImagePayload
		if err := strict(k, raw, &p); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Prompt) == "" {
			return nil, reject(k, "no image prompt was given")
		}
		return p, nil

	default:
		return nil, reject(k, "unknown action kind %q", string(k))
	}
}

func strict(kind domain.ActionKind, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return reject(kind, "malformed payload: %v", err)
	}
	return nil
}

func decodeSheet(raw json.RawMessage) (Payload, error) {
	const k = domain.ActionSheet
	var wire struct {
		FileName string   `json:"fileName"`
		Title    string   `json:"title"`
		Columns  []string `json:"columns"`
		Rows     [][]any  `json:"rows"`
	}
	if err := strict(k, raw, &wire); err != nil {
		return nil, err
	}
	if len(wire.Columns) == 0 && len(wire.Rows) == 0 {
		return nil, reject(k, "the spreadsheet has no columns or rows")
	}

	p := SheetPayload{FileName: wire.FileName, Title: wire.Title, Columns: wire.Columns}
	for _, row := range wire.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cellString(c)
		}
		p.Rows = append(p.Rows, cells)
	}
	return p, nil
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

func decodeCalendarEvent(raw json.RawMessage) (Payload, error) {
	const k = domain.ActionCalendarEvent
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, reject(k, "payload is not an object")
	}

	title := str(m, "title", "name")
	if title == "" {
		return nil, reject(k, "an event needs a title")
	}
	startRaw := str(m, "start", "startDate", "date")
	start, ok := ParseDate(startRaw)
	if !ok {
		return nil, reject(k, "event %q needs a readable start date", title)
	}
	end, ok := ParseDate(str(m, "end", "endDate"))
	if !ok || end.Before(start) {
		end = start.Add(time.Hour)
	}

	var attendees []string
	if list, ok := m["attendees"].([]any); ok {
		for _, a := range list {
			if s, ok := a.(string); ok && s != "" {
				attendees = append(attendees, s)
			}
		}
	}

	return CalendarEventPayload{
		Title:       title,
		Description: str(m, "description"),
		Start:       start,
		End:         end,
		Attendees:   attendees,
	}, nil
}

func decodeTask(raw json.RawMessage) (Payload, error) {
	const k = domain.ActionTask
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, reject(k, "payload is not an object")
	}

	title := str(m, "title", "name")
	if title == "" {
		return nil, reject(k, "a task needs a title")
	}

	p := TaskPayload{
		Title:       title,
		Description: str(m, "description"),
		AssigneeID:  domain.EmployeeID(str(m, "assigneeId", "assignee_id", "assignee")),
		Priority:    strings.ToLower(str(m, "priority")),
	}
	if p.Priority == "" {
		p.Priority = "medium"
	}
	if due, ok := ParseDate(str(m, "dueDate", "due_date")); ok {
		p.DueDate = &due
	}
	return p, nil
}
