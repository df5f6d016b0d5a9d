package tools

import (
	"context"
	"fmt"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// CalendarTool schedules calendar events.
type CalendarTool struct {
	calendar domain.CalendarMutator
}

func NewCalendarTool(calendar domain.CalendarMutator) *CalendarTool {
	return &CalendarTool{calendar: calendar}
}

func (t *CalendarTool) Name() string            { return "calendar" }
func (t *CalendarTool) Kind() domain.ActionKind { return domain.ActionCalendarEvent }

func (t *CalendarTool) Call(ctx context.Context, tctx ToolContext, payload toolcall.Payload) (Result, error) {
	p, ok := payload.(toolcall.CalendarEventPayload)
	if !ok {
		return Result{}, fmt.Errorf("calendar: unexpected payload %T", payload)
	}

	event := domain.CalendarEvent{
		ID:          domain.NewID(),
		Title:       p.Title,
		Description: p.Description,
		Start:       p.Start,
		End:         p.End,
		ProjectID:   tctx.ProjectID,
		CreatedBy:   tctx.EmployeeID,
		Attendees:   p.Attendees,
	}
	if err := t.calendar.AddCalendarEvent(ctx, event); err != nil {
		return Result{}, fmt.Errorf("calendar: add event: %w", err)
	}
	return applied("Added %q to the calendar for %s.", p.Title, moment(p.Start)), nil
}
