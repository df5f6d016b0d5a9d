package instruction

import (
	"context"
	"fmt"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Resolver reads the workspace to build scopes.
type Resolver struct {
	ws domain.Workspace
}

func NewResolver(ws domain.Workspace) *Resolver {
	return &Resolver{ws: ws}
}

// ForConversation gathers the fragments for a one-on-one conversation.
func (r *Resolver) ForConversation(ctx context.Context, emp *domain.Employee, contextID domain.ContextID) (Scope, error) {
	scope := Scope{ContextID: contextID}

	roster, err := r.ws.Employees(ctx)
	if err != nil {
		return Scope{}, fmt.Errorf("load roster: %w", err)
	}
	scope.Roster = roster

	if pid := contextID.ProjectID(); pid != "" {
		if err := r.loadProject(ctx, &scope, pid); err != nil {
			return Scope{}, err
		}
	}

	if emp.Assistant {
		if scope.AllProjects, err = r.ws.Projects(ctx); err != nil {
			return Scope{}, fmt.Errorf("load projects: %w", err)
		}
		if scope.AllTasks, err = r.ws.Tasks(ctx); err != nil {
			return Scope{}, fmt.Errorf("load tasks: %w", err)
		}
		if scope.Clients, err = r.ws.Clients(ctx); err != nil {
			return Scope{}, fmt.Errorf("load clients: %w", err)
		}
	}
	return scope, nil
}

// ForSession gathers the fragments for a brainstorm participant.
func (r *Resolver) ForSession(ctx context.Context, emp *domain.Employee, session *domain.Session, participants []domain.Employee) (Scope, error) {
	contextID := domain.GeneralContext
	if pid := session.ProjectID(); pid != "" {
		contextID = domain.ProjectContext(pid)
	}
	scope, err := r.ForConversation(ctx, emp, contextID)
	if err != nil {
		return Scope{}, err
	}
	scope.Brainstorm = &BrainstormScope{Topic: session.Topic, Participants: participants}
	return scope, nil
}

const minutesInContext = 5

func (r *Resolver) loadProject(ctx context.Context, scope *Scope, pid domain.ProjectID) error {
	project, err := r.ws.Project(ctx, pid)
	if err != nil {
		return fmt.Errorf("load project %s: %w", pid, err)
	}
	scope.Project = project
	scope.Files = project.Files

	minutes, err := r.ws.ListMinutes(ctx, pid, minutesInContext)
	if err != nil {
		return fmt.Errorf("load minutes for %s: %w", pid, err)
	}
	scope.Minutes = minutes
	return nil
}
