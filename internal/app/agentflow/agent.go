package agentflow

import (
	"context"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// AgentInput is what one step of a flow receives.
type AgentInput struct {
	// Message is the text this step works on: a question, or the previous step's reply.
	Message string
	History []*domain.Message
}

type AgentOutput struct {
	Reply   string
	History []*domain.Message
}

// Agent is one model-backed step of a flow.
type Agent interface {
	Name() string
	Run(ctx context.Context, in AgentInput) (AgentOutput, error)
}
