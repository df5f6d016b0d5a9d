// Package router classifies extracted actions and moves them through review:
// previews, approvals for data changes, and saves for documents.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/app/tools"
	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

var (
	ErrNotApprovable = errors.New("action does not need approval")
	ErrNoHandler     = errors.New("no handler registered for action kind")
)

// Target tells the router whose conversation an action belongs to.
type Target struct {
	EmployeeID domain.EmployeeID
	ProjectID  domain.ProjectID
	RequestID  string
	// Tools limits the kinds the employee may use. Nil allows every kind.
	Tools []domain.ActionKind
}

func (t Target) allows(kind domain.ActionKind) bool {
	if t.Tools == nil {
		return true
	}
	for _, k := range t.Tools {
		if k == kind {
			return true
		}
	}
	return false
}

func (t Target) toolContext(id domain.ActionID) tools.ToolContext {
	return tools.ToolContext{
		EmployeeID: t.EmployeeID,
		ProjectID:  t.ProjectID,
		ActionID:   id,
		RequestID:  t.RequestID,
	}
}

// Router holds no conversation state. The only thing it remembers is which
// action ids are mid-review, so a repeated gesture is a no-op until the
// caller has stored the outcome and calls Release.
type Router struct {
	tools     map[domain.ActionKind]tools.Tool
	encoder   domain.FileEncoder
	documents domain.DocumentMutator
	now       func() time.Time

	mu      sync.Mutex
	claimed map[domain.ActionID]struct{}
}

func New(encoder domain.FileEncoder, documents domain.DocumentMutator, handlers ...tools.Tool) *Router {
	r := &Router{
		tools:     make(map[domain.ActionKind]tools.Tool, len(handlers)),
		encoder:   encoder,
		documents: documents,
		now:       time.Now,
		claimed:   make(map[domain.ActionID]struct{}),
	}
	for _, h := range handlers {
		r.tools[h.Kind()] = h
	}
	return r
}

// NewForWorkspace wires the standard handlers against one workspace.
func NewForWorkspace(ws domain.Workspace, encoder domain.FileEncoder) *Router {
	return New(encoder, ws,
		tools.NewCalendarTool(ws),
		tools.NewTaskTool(ws, ws),
		tools.NewProjectTool(ws, ws),
		tools.NewFileTool(ws),
	)
}

// claim marks id as taken. It returns false if it already was.
func (r *Router) claim(id domain.ActionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claimed[id]; ok {
		return false
	}
	r.claimed[id] = struct{}{}
	return true
}

// Release forgets a claim. Callers release once the action's terminal state
// is persisted, after which that state alone rejects repeats.
func (r *Router) Release(id domain.ActionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.claimed, id)
}

// Claims reports how many actions are currently mid-review.
func (r *Router) Claims() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claimed)
}

// SystemMessage builds an application-authored turn.
func (r *Router) SystemMessage(format string, args ...any) *domain.Message {
	return &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleModel,
		Text:      fmt.Sprintf(format, args...),
		CreatedAt: r.now(),
		System:    true,
	}
}

func (r *Router) logger(ctx context.Context, target Target, action *domain.TriggeredAction) *slog.Logger {
	return observability.LoggerFromContext(ctx).With(
		"employee_id", target.EmployeeID,
		"project_id", target.ProjectID,
		"action_id", action.ID,
		"action_kind", action.Kind,
	)
}

func rejectionOf(action *domain.TriggeredAction, err error) *toolcall.Rejection {
	if rej, ok := toolcall.AsRejection(err); ok {
		return rej
	}
	return &toolcall.Rejection{Kind: action.Kind, Reason: err.Error()}
}
