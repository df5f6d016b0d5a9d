package agentflow

import (
	"context"
	"time"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// ColleagueAgent answers a single question in isolation, under the colleague's
// own instruction and without the requester's history.
type ColleagueAgent struct {
	gateway     domain.ModelGateway
	colleague   *domain.Employee
	instruction string
	now         func() time.Time
}

func NewColleagueAgent(gateway domain.ModelGateway, colleague *domain.Employee, instruction string) *ColleagueAgent {
	return &ColleagueAgent{gateway: gateway, colleague: colleague, instruction: instruction, now: time.Now}
}

func (a *ColleagueAgent) Name() string {
	return "colleague:" + string(a.colleague.ID)
}

func (a *ColleagueAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	question := []*domain.Message{{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleUser,
		Text:      in.Message,
		CreatedAt: a.now(),
	}}

	reply, err := a.gateway.ContinueConversation(ctx, question, a.instruction)
	if err != nil {
		return AgentOutput{}, err
	}

	return AgentOutput{
		Reply:   reply,
		History: in.History,
	}, nil
}
