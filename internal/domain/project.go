package domain

import "time"

type PhaseID string
type TaskID string
type FileID string

type Project struct {
	ID          ProjectID `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	ClientID    ClientID  `json:"client_id,omitempty" yaml:"client_id"`
	Status      string    `json:"status,omitempty" yaml:"status"`
	Phases      []Phase   `json:"phases" yaml:"phases"`
	Budget      Budget    `json:"budget" yaml:"budget"`
	Files       []File    `json:"files" yaml:"files"`
}

// PhaseByID returns the phase with the given id, if any.
func (p *Project) PhaseByID(id PhaseID) (*Phase, bool) {
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return &p.Phases[i], true
		}
	}
	return nil, false
}

type Phase struct {
	ID        PhaseID   `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`
	Progress  int       `json:"progress" yaml:"progress"`
}

// PhaseUpdate carries the fields of a phase an update may change.
type PhaseUpdate struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Progress  *int
}

type Budget struct {
	Total    float64   `json:"total" yaml:"total"`
	Expenses []Expense `json:"expenses" yaml:"expenses"`
}

func (b Budget) Spent() float64 {
	var sum float64
	for _, e := range b.Expenses {
		sum += e.Amount
	}
	return sum
}

type Expense struct {
	ID          string    `json:"id" yaml:"id"`
	Amount      float64   `json:"amount" yaml:"amount"`
	Description string    `json:"description" yaml:"description"`
	Category    string    `json:"category" yaml:"category"`
	Date        time.Time `json:"date" yaml:"date"`
}

type Task struct {
	ID          TaskID     `json:"id" yaml:"id"`
	ProjectID   ProjectID  `json:"project_id,omitempty" yaml:"project_id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description"`
	AssigneeID  EmployeeID `json:"assignee_id,omitempty" yaml:"assignee_id"`
	Priority    string     `json:"priority,omitempty" yaml:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date"`
	Status      string     `json:"status" yaml:"status"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
}

type CalendarEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	ProjectID   ProjectID  `json:"project_id,omitempty"`
	CreatedBy   EmployeeID `json:"created_by,omitempty"`
	Attendees   []string   `json:"attendees,omitempty"`
}

// File is an entry in a project's file tree. Content is text or base64 for binary files.
type File struct {
	ID        FileID    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	MIMEType  string    `json:"mime_type" yaml:"mime_type"`
	Content   string    `json:"content,omitempty" yaml:"content"`
	Folder    string    `json:"folder,omitempty" yaml:"folder"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// GeneratedDocument records a saved office document produced by an employee.
type GeneratedDocument struct {
	ID        string     `json:"id"`
	ProjectID ProjectID  `json:"project_id,omitempty"`
	AuthorID  EmployeeID `json:"author_id"`
	Kind      ActionKind `json:"kind"`
	FileName  string     `json:"file_name"`
	MIMEType  string     `json:"mime_type"`
	Data      []byte     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
}
