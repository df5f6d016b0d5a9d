package domain

import (
	"time"

	"github.com/google/uuid"
)

type EmployeeID string
type ProjectID string
type SessionID string
type MessageID string
type ActionID string

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// GeneralContext addresses the conversation that is not tied to any project.
const GeneralContext ContextID = "general"

// ContextID partitions one employee's history: GeneralContext or a project id.
type ContextID string

func ProjectContext(id ProjectID) ContextID {
	return ContextID(id)
}

func (c ContextID) IsGeneral() bool {
	return c == "" || c == GeneralContext
}

// ProjectID returns the project addressed by c, or "" for the general context.
func (c ContextID) ProjectID() ProjectID {
	if c.IsGeneral() {
		return ""
	}
	return ProjectID(c)
}

// ConversationKey addresses exactly one ordered one-on-one message log.
type ConversationKey struct {
	EmployeeID EmployeeID
	ContextID  ContextID
}

func (k ConversationKey) String() string {
	ctx := k.ContextID
	if ctx == "" {
		ctx = GeneralContext
	}
	return string(k.EmployeeID) + "/" + string(ctx)
}

type Timestamp = time.Time

// NewID returns a random identifier for any entity.
func NewID() string {
	return uuid.NewString()
}

func NewMessageID() MessageID { return MessageID(NewID()) }
func NewActionID() ActionID   { return ActionID(NewID()) }
func NewSessionID() SessionID { return SessionID(NewID()) }
