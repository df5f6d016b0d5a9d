package domain

import "context"

// ModelGateway defines how the core application talks to the language model service.
type ModelGateway interface {
	ContinueConversation(ctx context.Context, history []*Message, systemInstruction string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
	SummarizeSession(ctx context.Context, history []*Message, instruction string) (MinutesSummary, error)
}

// ConversationStore persists one-on-one logs keyed by (employee, context).
// Logs are append-only apart from UpdateMessage, which edits one message in place.
type ConversationStore interface {
	AppendMessages(ctx context.Context, key ConversationKey, msgs ...*Message) error
	GetMessages(ctx context.Context, key ConversationKey) ([]*Message, error)
	UpdateMessage(ctx context.Context, key ConversationKey, id MessageID, fn func(*Message) error) error
}

// SessionStore persists brainstorm sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]*Session, error)
}

// Directory exposes the company profile and roster.
type Directory interface {
	Company(ctx context.Context) (CompanyProfile, error)
	Employees(ctx context.Context) ([]Employee, error)
	Employee(ctx context.Context, id EmployeeID) (*Employee, error)
	AdjustMorale(ctx context.Context, id EmployeeID, delta int) (int, error)
}

// ProjectReader exposes read access to projects and company-wide data.
type ProjectReader interface {
	Project(ctx context.Context, id ProjectID) (*Project, error)
	Projects(ctx context.Context) ([]Project, error)
	Tasks(ctx context.Context) ([]Task, error)
	Clients(ctx context.Context) ([]Client, error)
}

type ProjectMutator interface {
	AddPhase(ctx context.Context, projectID ProjectID, phase Phase) (Phase, error)
	UpdatePhase(ctx context.Context, projectID ProjectID, phaseID PhaseID, update PhaseUpdate) (Phase, error)
	DeletePhase(ctx context.Context, projectID ProjectID, phaseID PhaseID) error
	SetBudget(ctx context.Context, projectID ProjectID, total float64) error
	AddExpense(ctx context.Context, projectID ProjectID, expense Expense) error
}

type CalendarMutator interface {
	AddCalendarEvent(ctx context.Context, event CalendarEvent) error
}

type TaskMutator interface {
	AddTask(ctx context.Context, task Task) error
}

type FileMutator interface {
	UpsertFile(ctx context.Context, projectID ProjectID, file File) (File, error)
}

type DocumentMutator interface {
	AddGeneratedDocument(ctx context.Context, doc GeneratedDocument) error
}

// MinutesStore persists meeting minutes.
type MinutesStore interface {
	AppendMinutes(ctx context.Context, minutes *MeetingMinutes) error
	ListMinutes(ctx context.Context, projectID ProjectID, limit int) ([]*MeetingMinutes, error)
}

// Workspace is the full application state the core reads and mutates.
type Workspace interface {
	Directory
	ProjectReader
	ProjectMutator
	CalendarMutator
	TaskMutator
	FileMutator
	DocumentMutator
	MinutesStore
}

// EncodedFile is the output of a FileEncoder.
type EncodedFile struct {
	Data     []byte
	FileName string
	MIMEType string
}

// FileEncoder renders a document action into a downloadable file.
type FileEncoder interface {
	Encode(ctx context.Context, action *TriggeredAction) (*EncodedFile, error)
}
