package agentflow

import (
	"context"
	"fmt"
	"time"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// SynthesisAgent hands a colleague's answer back to the requesting employee
// and asks for the final reply to the user.
type SynthesisAgent struct {
	gateway     domain.ModelGateway
	colleague   *domain.Employee
	question    string
	instruction string
	now         func() time.Time
}

func NewSynthesisAgent(gateway domain.ModelGateway, colleague *domain.Employee, question, instruction string) *SynthesisAgent {
	return &SynthesisAgent{
		gateway:     gateway,
		colleague:   colleague,
		question:    question,
		instruction: instruction,
		now:         time.Now,
	}
}

func (a *SynthesisAgent) Name() string {
	return "synthesis"
}

// FollowUp is the synthetic turn quoting the question and the colleague's answer.
func FollowUp(colleague *domain.Employee, question, answer string) string {
	return fmt.Sprintf(
		"You asked your colleague %s (%s): %q\n"+
			"They replied: %q\n\n"+
			"Using their input, write your final answer to the user now. Do not ask another colleague.",
		colleague.Name, colleague.Role, question, answer,
	)
}

func (a *SynthesisAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	history := append(domain.CloneMessages(in.History), &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleUser,
		Text:      FollowUp(a.colleague, a.question, in.Message),
		CreatedAt: a.now(),
	})

	reply, err := a.gateway.ContinueConversation(ctx, history, a.instruction)
	if err != nil {
		return AgentOutput{}, err
	}

	return AgentOutput{
		Reply:   reply,
		History: in.History,
	}, nil
}
