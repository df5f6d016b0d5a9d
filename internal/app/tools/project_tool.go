package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// ProjectTool applies project-management sub-actions to a project plan.
type ProjectTool struct {
	projects domain.ProjectReader
	mutator  domain.ProjectMutator
	now      func() time.Time
}

func NewProjectTool(projects domain.ProjectReader, mutator domain.ProjectMutator) *ProjectTool {
	return &ProjectTool{projects: projects, mutator: mutator, now: time.Now}
}

func (t *ProjectTool) Name() string            { return "project_plan" }
func (t *ProjectTool) Kind() domain.ActionKind { return domain.ActionProjectManagement }

func (t *ProjectTool) Call(ctx context.Context, tctx ToolContext, payload toolcall.Payload) (Result, error) {
	p, ok := payload.(toolcall.ProjectManagementPayload)
	if !ok {
		return Result{}, fmt.Errorf("project_plan: unexpected payload %T", payload)
	}

	pid := p.ProjectID
	if pid == "" {
		pid = tctx.ProjectID
	}
	if pid == "" {
		return refused("There is no active project to change, so nothing was applied."), nil
	}

	project, err := t.projects.Project(ctx, pid)
	if errors.Is(err, domain.ErrNotFound) {
		return refused("I could not find project %q, so nothing was changed.", pid), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("project_plan: load project: %w", err)
	}

	switch op := p.Op.(type) {
	case toolcall.AddPhaseOp:
		phase, err := t.mutator.AddPhase(ctx, pid, newPhase(op.Phase))
		if err != nil {
			return Result{}, fmt.Errorf("project_plan: add phase: %w", err)
		}
		return applied("Added phase %q (%s to %s) to %s.", phase.Name, day(phase.StartDate), day(phase.EndDate), project.Name), nil

	case toolcall.AddPhasesOp:
		added := 0
		for _, spec := range op.Phases {
			if _, err := t.mutator.AddPhase(ctx, pid, newPhase(spec)); err != nil {
				return Result{}, fmt.Errorf("project_plan: add phase %q: %w", spec.Name, err)
			}
			added++
		}
		return applied("Added %d %s to %s.", added, plural(added, "phase", "phases"), project.Name), nil

	case toolcall.UpdatePhaseOp:
		if _, ok := project.PhaseByID(op.PhaseID); !ok {
			return refused("I could not find a phase with id %q in %s, so nothing was updated.", op.PhaseID, project.Name), nil
		}
		phase, err := t.mutator.UpdatePhase(ctx, pid, op.PhaseID, op.Update)
		if err != nil {
			return Result{}, fmt.Errorf("project_plan: update phase: %w", err)
		}
		return applied("Updated phase %q in %s.", phase.Name, project.Name), nil

	case toolcall.DeletePhaseOp:
		phase, ok := project.PhaseByID(op.PhaseID)
		if !ok {
			return refused("I could not find a phase with id %q in %s, so nothing was deleted.", op.PhaseID, project.Name), nil
		}
		name := phase.Name
		if err := t.mutator.DeletePhase(ctx, pid, op.PhaseID); err != nil {
			return Result{}, fmt.Errorf("project_plan: delete phase: %w", err)
		}
		return applied("Deleted phase %q from %s.", name, project.Name), nil

	case toolcall.SetBudgetOp:
		if err := t.mutator.SetBudget(ctx, pid, op.Total); err != nil {
			return Result{}, fmt.Errorf("project_plan: set budget: %w", err)
		}
		return applied("Set the budget of %s to %.2f.", project.Name, op.Total), nil

	case toolcall.AddExpenseOp:
		date := t.now()
		if op.Date != nil {
			date = *op.Date
		}
		expense := domain.Expense{
			ID:          domain.NewID(),
			Amount:      op.Amount,
			Description: op.Description,
			Category:    op.Category,
			Date:        date,
		}
		if err := t.mutator.AddExpense(ctx, pid, expense); err != nil {
			return Result{}, fmt.Errorf("project_plan: add expense: %w", err)
		}
		return applied("Recorded an expense of %.2f for %q (%s) on %s.", op.Amount, op.Description, op.Category, project.Name), nil

	default:
		return refused("I do not know how to apply %T, so nothing was changed.", p.Op), nil
	}
}

func newPhase(spec toolcall.PhaseSpec) domain.Phase {
	return domain.Phase{
		ID:        domain.PhaseID(domain.NewID()),
		Name:      spec.Name,
		StartDate: spec.Start,
		EndDate:   spec.End,
	}
}
