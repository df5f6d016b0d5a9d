package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Workspace holds company state in memory and implements domain.Workspace.
// Reads return copies.
type Workspace struct {
	*MinutesStore

	mu        sync.RWMutex
	company   domain.CompanyProfile
	employees []domain.Employee
	projects  []*domain.Project
	clients   []domain.Client
	tasks     []domain.Task
	events    []domain.CalendarEvent
	documents []domain.GeneratedDocument
}

func NewWorkspace(seed domain.WorkspaceSeed) *Workspace {
	ws := &Workspace{
		MinutesStore: NewMinutesStore(),
		company:      seed.Company,
		employees:    append([]domain.Employee(nil), seed.Employees...),
		clients:      append([]domain.Client(nil), seed.Clients...),
		tasks:        append([]domain.Task(nil), seed.Tasks...),
	}
	for i := range seed.Projects {
		p := copyProject(&seed.Projects[i])
		ws.projects = append(ws.projects, &p)
	}
	return ws
}

func copyProject(p *domain.Project) domain.Project {
	out := *p
	out.Phases = append([]domain.Phase(nil), p.Phases...)
	out.Files = append([]domain.File(nil), p.Files...)
	out.Budget.Expenses = append([]domain.Expense(nil), p.Budget.Expenses...)
	return out
}

// --- Directory --- //

func (w *Workspace) Company(ctx context.Context) (domain.CompanyProfile, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.company, nil
}

func (w *Workspace) Employees(ctx context.Context) ([]domain.Employee, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.Employee(nil), w.employees...), nil
}

func (w *Workspace) Employee(ctx context.Context, id domain.EmployeeID) (*domain.Employee, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, e := range w.employees {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, domain.NotFoundf("employee %s", id)
}

func (w *Workspace) AdjustMorale(ctx context.Context, id domain.EmployeeID, delta int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.employees {
		if w.employees[i].ID == id {
			w.employees[i].Morale = domain.ClampMorale(w.employees[i].Morale + delta)
			return w.employees[i].Morale, nil
		}
	}
	return 0, domain.NotFoundf("employee %s", id)
}

// --- ProjectReader --- //

func (w *Workspace) project(id domain.ProjectID) (*domain.Project, error) {
	for _, p := range w.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.NotFoundf("project %s", id)
}

func (w *Workspace) Project(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, err := w.project(id)
	if err != nil {
		return nil, err
	}
	cp := copyProject(p)
	return &cp, nil
}

func (w *Workspace) Projects(ctx context.Context) ([]domain.Project, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]domain.Project, 0, len(w.projects))
	for _, p := range w.projects {
		out = append(out, copyProject(p))
	}
	return out, nil
}

func (w *Workspace) Tasks(ctx context.Context) ([]domain.Task, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.Task(nil), w.tasks...), nil
}

func (w *Workspace) Clients(ctx context.Context) ([]domain.Client, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.Client(nil), w.clients...), nil
}

// CalendarEvents returns every scheduled event.
func (w *Workspace) CalendarEvents(ctx context.Context) ([]domain.CalendarEvent, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.CalendarEvent(nil), w.events...), nil
}

// GeneratedDocuments returns every saved document.
func (w *Workspace) GeneratedDocuments(ctx context.Context) ([]domain.GeneratedDocument, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.GeneratedDocument(nil), w.documents...), nil
}

// --- Mutators --- //

func (w *Workspace) AddPhase(ctx context.Context, projectID domain.ProjectID, phase domain.Phase) (domain.Phase, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.project(projectID)
	if err != nil {
		return domain.Phase{}, err
	}
	if phase.ID == "" {
		phase.ID = domain.PhaseID(domain.NewID())
	}
	p.Phases = append(p.Phases, phase)
	return phase, nil
}

func (w *Workspace) UpdatePhase(ctx context.Context, projectID domain.ProjectID, phaseID domain.PhaseID, update domain.PhaseUpdate) (domain.Phase, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.project(projectID)
	if err != nil {
		return domain.Phase{}, err
	}
	phase, ok := p.PhaseByID(phaseID)
	if !ok {
		return domain.Phase{}, domain.NotFoundf("phase %s", phaseID)
	}
	if update.Name != nil {
		phase.Name = *update.Name
	}
	if update.StartDate != nil {
		phase.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		phase.EndDate = *update.EndDate
	}
	if update.Progress != nil {
		phase.Progress = min(max(*update.Progress, 0), 100)
	}
	return *phase, nil
}

func (w *Workspace) DeletePhase(ctx context.Context, projectID domain.ProjectID, phaseID domain.PhaseID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.project(projectID)
	if err != nil {
		return err
	}
	for i, ph := range p.Phases {
		if ph.ID == phaseID {
			p.Phases = append(p.Phases[:i], p.Phases[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundf("phase %s", phaseID)
}

func (w *Workspace) SetBudget(ctx context.Context, projectID domain.ProjectID, total float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.project(projectID)
	if err != nil {
		return err
	}
	p.Budget.Total = total
	return nil
}

func (w *Workspace) AddExpense(ctx context.Context, projectID domain.ProjectID, expense domain.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.project(projectID)
	if err != nil {
		return err
	}
	p.Budget.Expenses = append(p.Budget.Expenses, expense)
	return nil
}

func (w *Workspace) AddCalendarEvent(ctx context.Context, event domain.CalendarEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, event)
	return nil
}

func (w *Workspace) AddTask(ctx context.Context, task domain.Task) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks = append(w.tasks, task)
	return nil
}

// UpsertFile replaces a file with the same name and folder, or adds it.
func (w *Workspace) UpsertFile(ctx context.Context, projectID domain.ProjectID, file domain.File) (domain.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, err := w.project(projectID)
	if err != nil {
		return domain.File{}, err
	}
	for i, f := range p.Files {
		if f.Name == file.Name && f.Folder == file.Folder {
			file.ID = f.ID
			p.Files[i] = file
			return file, nil
		}
	}
	if file.ID == "" {
		file.ID = domain.FileID(domain.NewID())
	}
	p.Files = append(p.Files, file)
	return file, nil
}

func (w *Workspace) AddGeneratedDocument(ctx context.Context, doc domain.GeneratedDocument) error {
	if doc.FileName == "" {
		return fmt.Errorf("generated document needs a file name")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.documents = append(w.documents, doc)
	return nil
}

var _ domain.Workspace = (*Workspace)(nil)
