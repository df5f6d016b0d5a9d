package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// TaskTool creates tasks, scoped to the active project when there is one.
type TaskTool struct {
	tasks     domain.TaskMutator
	directory domain.Directory
	now       func() time.Time
}

func NewTaskTool(tasks domain.TaskMutator, directory domain.Directory) *TaskTool {
	return &TaskTool{tasks: tasks, directory: directory, now: time.Now}
}

func (t *TaskTool) Name() string            { return "tasks" }
func (t *TaskTool) Kind() domain.ActionKind { return domain.ActionTask }

func (t *TaskTool) Call(ctx context.Context, tctx ToolContext, payload toolcall.Payload) (Result, error) {
	p, ok := payload.(toolcall.TaskPayload)
	if !ok {
		return Result{}, fmt.Errorf("tasks: unexpected payload %T", payload)
	}

	task := domain.Task{
		ID:          domain.TaskID(domain.NewID()),
		ProjectID:   tctx.ProjectID,
		Title:       p.Title,
		Description: p.Description,
		Priority:    p.Priority,
		DueDate:     p.DueDate,
		Status:      "todo",
		CreatedAt:   t.now(),
	}

	var assignee string
	if p.AssigneeID != "" {
		emp, err := t.directory.Employee(ctx, p.AssigneeID)
		if errors.Is(err, domain.ErrNotFound) {
			return refused("I could not find a colleague with id %q, so the task %q was not created.", p.AssigneeID, p.Title), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("tasks: resolve assignee: %w", err)
		}
		task.AssigneeID = emp.ID
		assignee = emp.Name
	}

	if err := t.tasks.AddTask(ctx, task); err != nil {
		return Result{}, fmt.Errorf("tasks: add task: %w", err)
	}

	msg := fmt.Sprintf("Created task %q", p.Title)
	if assignee != "" {
		msg += " for " + assignee
	}
	if p.DueDate != nil {
		msg += ", due " + day(*p.DueDate)
	}
	return applied("%s.", msg), nil
}
