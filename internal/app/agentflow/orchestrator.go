package agentflow

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

// Orchestrator is responsible for running multiple agents in sequence.
type Orchestrator struct {
	agents []Agent
}

func NewOrchestrator(agents ...Agent) *Orchestrator {
	return &Orchestrator{agents: agents}
}

// Consultation describes one employee asking a colleague before answering.
type Consultation struct {
	Colleague            *domain.Employee
	ColleagueInstruction string
	Question             string
	// RequesterInstruction is the full instruction of the asking employee.
	RequesterInstruction string
	// History is the requester's conversation up to and including the user's turn.
	History []*domain.Message
}

// NewConsultation builds the two-step collaboration flow: the colleague answers
// the question, then the requester synthesizes the final reply. That is exactly
// two gateway calls and the flow never recurses.
func NewConsultation(gateway domain.ModelGateway, c Consultation) (*Orchestrator, AgentInput) {
	o := NewOrchestrator(
		NewColleagueAgent(gateway, c.Colleague, c.ColleagueInstruction),
		NewSynthesisAgent(gateway, c.Colleague, c.Question, c.RequesterInstruction),
	)
	return o, AgentInput{Message: c.Question, History: c.History}
}

// Run executes the chain of agents sequentially.
func (o *Orchestrator) Run(ctx context.Context, in AgentInput) (string, error) {
	if len(o.agents) == 0 {
		return "", fmt.Errorf("no agents configured in orchestrator")
	}

	log := observability.LoggerFromContext(ctx)
	log.Info("orchestrator started", "agents_count", len(o.agents))

	var (
		out AgentOutput
		err error
	)

	for _, ag := range o.agents {
		start := time.Now()
		log.Info("agent run start", "agent", ag.Name())

		out, err = ag.Run(ctx, in)
		if err != nil {
			log.Error("agent failed",
				"agent", ag.Name(),
				"error", err)
			return "", fmt.Errorf("agent %s failed: %w", ag.Name(), err)
		}

		elapsed := time.Since(start)
		log.Info("agent run end", "agent", ag.Name(), "elapsed_ms", elapsed.Milliseconds())

		// The output of an agent is the input for the next agent
		in.Message = out.Reply
		in.History = out.History
	}

	log.Info("orchestrator end")
	return out.Reply, nil
}
