package tools

import (
	"context"
	"fmt"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// ToolContext brings metadata of the call to the tool
type ToolContext struct {
	EmployeeID domain.EmployeeID
	ProjectID  domain.ProjectID
	ActionID   domain.ActionID
	RequestID  string
}

// Result is the outcome of a tool call. When Applied is false nothing was
// mutated and Message explains why.
type Result struct {
	Applied bool
	Message string
}

func applied(format string, args ...any) Result {
	return Result{Applied: true, Message: fmt.Sprintf(format, args...)}
}

func refused(format string, args ...any) Result {
	return Result{Applied: false, Message: fmt.Sprintf(format, args...)}
}

// Tool applies one kind of approved action to the workspace.
// A returned error means the workspace itself failed, not the request.
type Tool interface {
	Name() string
	Kind() domain.ActionKind
	Call(ctx context.Context, tctx ToolContext, payload toolcall.Payload) (Result, error)
}
