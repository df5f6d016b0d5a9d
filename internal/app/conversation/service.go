package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/PabloGalante/staffdesk/internal/app/agentflow"
	"github.com/PabloGalante/staffdesk/internal/app/instruction"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/app/serial"
	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

const (
	greeting     = "Hello."
	praiseMorale = 5
)

// Options tune a Service. The zero value is usable.
type Options struct {
	// HistoryLimit caps the trailing messages sent to the model. <= 0 means all.
	HistoryLimit int
	Now          func() time.Time
}

// Service is the controller of one-on-one conversations. It is the only
// writer of each (employee, context) log.
type Service struct {
	gateway  domain.ModelGateway
	store    domain.ConversationStore
	ws       domain.Workspace
	resolver *instruction.Resolver
	router   *router.Router

	historyLimit int
	now          func() time.Time

	locks  serial.Locks[domain.ConversationKey]
	seeds  singleflight.Group
	mu     sync.Mutex
	seeded map[domain.ConversationKey]bool
}

func NewService(
	gateway domain.ModelGateway,
	store domain.ConversationStore,
	ws domain.Workspace,
	rt *router.Router,
	opts Options,
) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		gateway:      gateway,
		store:        store,
		ws:           ws,
		resolver:     instruction.NewResolver(ws),
		router:       rt,
		historyLimit: opts.HistoryLimit,
		now:          now,
		seeded:       make(map[domain.ConversationKey]bool),
	}
}

// Conversation is the log of one (employee, context) pair.
type Conversation struct {
	Key      domain.ConversationKey
	Messages []*domain.Message
	// Notice is an unsaved apology, set when the greeting could not be produced.
	Notice *domain.Message
}

// Turn is everything one user message added to a log.
type Turn struct {
	UserMessage *domain.Message
	Replies     []*domain.Message
}

type SendMessageInput struct {
	Key        domain.ConversationKey
	Text       string
	Attachment *domain.Attachment
}

// Review is the result of approving or saving an action.
type Review struct {
	// Message is the reviewed turn with its new action state.
	Message *domain.Message
	// Notice is the system turn the gesture appended.
	Notice *domain.Message
	File   *domain.EncodedFile
}

func normalize(key domain.ConversationKey) domain.ConversationKey {
	if key.ContextID.IsGeneral() {
		key.ContextID = domain.GeneralContext
	}
	return key
}

func (s *Service) logger(ctx context.Context, key domain.ConversationKey) *slog.Logger {
	return observability.LoggerFromContext(ctx).With(
		"employee_id", key.EmployeeID,
		"context_id", key.ContextID,
	)
}

func (s *Service) target(ctx context.Context, key domain.ConversationKey, emp *domain.Employee) router.Target {
	return router.Target{
		EmployeeID: key.EmployeeID,
		ProjectID:  key.ContextID.ProjectID(),
		RequestID:  observability.RequestID(ctx),
		Tools:      emp.AvailableTools(),
	}
}

func (s *Service) modelMessage(text string) *domain.Message {
	return &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleModel,
		Text:      text,
		CreatedAt: s.now(),
	}
}

func (s *Service) apology(err error) *domain.Message {
	return s.modelMessage(fmt.Sprintf("Sorry, I couldn't answer that: %s. Please try again.", domain.PresentableMessage(err)))
}

// Open returns the log for key. A fresh pair is seeded once with a greeting
// exchange; concurrent opens share the same seed call.
func (s *Service) Open(ctx context.Context, key domain.ConversationKey) (*Conversation, error) {
	key = normalize(key)
	emp, err := s.ws.Employee(ctx, key.EmployeeID)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.seeds.Do(key.String(), func() (any, error) {
		unlock := s.locks.Lock(key)
		defer unlock()

		msgs, err := s.store.GetMessages(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 || !s.claimSeed(key) {
			return &Conversation{Key: key, Messages: msgs}, nil
		}
		return s.seed(ctx, emp, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conversation), nil
}

func (s *Service) claimSeed(key domain.ConversationKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded[key] {
		return false
	}
	s.seeded[key] = true
	return true
}

func (s *Service) resetSeed(key domain.ConversationKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seeded, key)
}

func (s *Service) seed(ctx context.Context, emp *domain.Employee, key domain.ConversationKey) (*Conversation, error) {
	log := s.logger(ctx, key)
	log.Info("seeding conversation")

	hello := &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleUser,
		Text:      greeting,
		CreatedAt: s.now(),
	}

	instr, err := s.instruction(ctx, emp, key.ContextID)
	if err != nil {
		s.resetSeed(key)
		return nil, err
	}

	reply, err := s.gateway.ContinueConversation(ctx, []*domain.Message{hello}, instr)
	if err != nil {
		s.resetSeed(key)
		log.Error("greeting failed", "error", err)
		return &Conversation{Key: key, Messages: []*domain.Message{}, Notice: s.apology(err)}, nil
	}

	// Greetings never carry actions.
	answer := s.modelMessage(toolcall.Extract(reply).Narration)
	if err := s.store.AppendMessages(ctx, key, hello, answer); err != nil {
		s.resetSeed(key)
		log.Error("failed to append greeting", "error", err)
		return nil, err
	}

	log.Info("conversation seeded")
	return &Conversation{Key: key, Messages: []*domain.Message{hello, answer}}, nil
}

func (s *Service) instruction(ctx context.Context, emp *domain.Employee, contextID domain.ContextID) (string, error) {
	company, err := s.ws.Company(ctx)
	if err != nil {
		return "", fmt.Errorf("load company: %w", err)
	}
	scope, err := s.resolver.ForConversation(ctx, emp, contextID)
	if err != nil {
		return "", err
	}
	return instruction.Build(emp, company, scope), nil
}

// SendMessage appends the user's turn, asks the employee's model and routes
// whatever action the reply carries.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*Turn, error) {
	key := normalize(in.Key)
	log := s.logger(ctx, key)

	emp, err := s.ws.Employee(ctx, key.EmployeeID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	userMsg := &domain.Message{
		ID:         domain.NewMessageID(),
		Role:       domain.RoleUser,
		Text:       in.Text,
		CreatedAt:  s.now(),
		Attachment: in.Attachment,
	}
	if err := s.store.AppendMessages(ctx, key, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}
	turn := &Turn{UserMessage: userMsg}

	history, err := s.store.GetMessages(ctx, key)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	instr, err := s.instruction(ctx, emp, key.ContextID)
	if err != nil {
		return nil, err
	}

	reply, err := s.gateway.ContinueConversation(ctx, domain.Window(history, s.historyLimit), instr)
	if err != nil {
		log.Error("model call failed", "error", err)
		return turn, s.append(ctx, key, turn, s.apology(err))
	}

	proposal, err := s.router.Propose(ctx, s.target(ctx, key, emp), toolcall.Extract(reply))
	if err != nil {
		return nil, err
	}

	if a := proposal.Reply.Action; a != nil && a.Kind == domain.ActionCollaborate && a.State == domain.ActionPending {
		payload := proposal.Payload.(toolcall.CollaborationPayload)
		return turn, s.collaborate(ctx, key, emp, instr, history, proposal, payload, turn)
	}

	router.FillImage(ctx, s.gateway, proposal.Reply)
	if err := s.append(ctx, key, turn, proposal.Reply); err != nil {
		return nil, err
	}
	if err := s.append(ctx, key, turn, proposal.Notices...); err != nil {
		return nil, err
	}

	log.Info("send message completed", "replies", len(turn.Replies))
	return turn, nil
}

func (s *Service) append(ctx context.Context, key domain.ConversationKey, turn *Turn, msgs ...*domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := s.store.AppendMessages(ctx, key, msgs...); err != nil {
		s.logger(ctx, key).Error("failed to append messages", "error", err)
		return err
	}
	turn.Replies = append(turn.Replies, msgs...)
	return nil
}

// collaborate runs the consultation for a collaborate action: one call for the
// colleague, one for the requester's final answer. An action in that final
// answer is honored unless it asks for yet another colleague.
func (s *Service) collaborate(
	ctx context.Context,
	key domain.ConversationKey,
	emp *domain.Employee,
	instr string,
	history []*domain.Message,
	proposal router.Proposal,
	payload toolcall.CollaborationPayload,
	turn *Turn,
) error {
	log := s.logger(ctx, key).With("colleague_id", payload.ColleagueID)

	colleague, err := s.ws.Employee(ctx, payload.ColleagueID)
	if err != nil || colleague.ID == emp.ID {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		log.Info("colleague not found")
		return s.append(ctx, key, turn, s.router.SystemMessage(
			"I couldn't reach a colleague with id %q, so I could not ask them.", payload.ColleagueID))
	}

	// The narration goes out right away, without the action.
	narration := proposal.Reply
	narration.Action = nil
	if narration.Text != "" {
		if err := s.append(ctx, key, turn, narration); err != nil {
			return err
		}
	}

	colleagueInstr, err := s.instruction(ctx, colleague, key.ContextID)
	if err != nil {
		return err
	}

	flow, in := agentflow.NewConsultation(s.gateway, agentflow.Consultation{
		Colleague:            colleague,
		ColleagueInstruction: colleagueInstr,
		Question:             payload.Question,
		RequesterInstruction: instr,
		History:              domain.Window(history, s.historyLimit),
	})
	final, err := flow.Run(ctx, in)
	if err != nil {
		log.Error("collaboration failed", "error", err)
		return s.append(ctx, key, turn, s.apology(err))
	}

	ex := toolcall.Extract(final)
	if ex.Action != nil && ex.Action.Kind == domain.ActionCollaborate {
		ex.Action = nil
	}
	second, err := s.router.Propose(ctx, s.target(ctx, key, emp), ex)
	if err != nil {
		return err
	}
	router.FillImage(ctx, s.gateway, second.Reply)
	if err := s.append(ctx, key, turn, second.Reply); err != nil {
		return err
	}
	log.Info("collaboration completed")
	return s.append(ctx, key, turn, second.Notices...)
}

func (s *Service) find(ctx context.Context, key domain.ConversationKey, id domain.MessageID) (*domain.Message, error) {
	msgs, err := s.store.GetMessages(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.NotFoundf("message %s in %s", id, key)
}

// settle records a review outcome on the reviewed message and appends its notice.
func (s *Service) settle(ctx context.Context, key domain.ConversationKey, id domain.MessageID, out router.Outcome) (*Review, error) {
	var updated *domain.Message
	err := s.store.UpdateMessage(ctx, key, id, func(m *domain.Message) error {
		if m.Action == nil {
			return domain.ErrNoAction
		}
		m.Action.State = out.State
		m.Action.Reason = out.Reason
		updated = m.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Message != nil {
		if err := s.store.AppendMessages(ctx, key, out.Message); err != nil {
			return nil, err
		}
	}
	s.router.Release(updated.Action.ID)
	return &Review{Message: updated, Notice: out.Message}, nil
}

// Approve applies the data change proposed by a message. Approving the same
// action twice returns domain.ErrActionResolved and changes nothing.
func (s *Service) Approve(ctx context.Context, key domain.ConversationKey, id domain.MessageID) (*Review, error) {
	key = normalize(key)
	unlock := s.locks.Lock(key)
	defer unlock()

	emp, err := s.ws.Employee(ctx, key.EmployeeID)
	if err != nil {
		return nil, err
	}
	msg, err := s.find(ctx, key, id)
	if err != nil {
		return nil, err
	}
	out, err := s.router.Approve(ctx, s.target(ctx, key, emp), msg.Action)
	if err != nil {
		return nil, err
	}
	s.logger(ctx, key).Info("action reviewed", "message_id", id, "state", out.State)
	return s.settle(ctx, key, id, out)
}

// Save records a document action as a generated document.
func (s *Service) Save(ctx context.Context, key domain.ConversationKey, id domain.MessageID) (*Review, error) {
	key = normalize(key)
	unlock := s.locks.Lock(key)
	defer unlock()

	emp, err := s.ws.Employee(ctx, key.EmployeeID)
	if err != nil {
		return nil, err
	}
	msg, err := s.find(ctx, key, id)
	if err != nil {
		return nil, err
	}
	out, file, err := s.router.Save(ctx, s.target(ctx, key, emp), msg.Action)
	if err != nil {
		return nil, err
	}
	review, err := s.settle(ctx, key, id, out)
	if err != nil {
		return nil, err
	}
	review.File = file
	return review, nil
}

// Download encodes a document action without recording anything.
func (s *Service) Download(ctx context.Context, key domain.ConversationKey, id domain.MessageID) (*domain.EncodedFile, error) {
	key = normalize(key)
	msg, err := s.find(ctx, key, id)
	if err != nil {
		return nil, err
	}
	return s.router.Download(ctx, msg.Action)
}

// Praise sets or clears the feedback flag on a model turn. Setting it raises
// the employee's morale; clearing it does not lower it.
func (s *Service) Praise(ctx context.Context, key domain.ConversationKey, id domain.MessageID, praised bool) (*domain.Message, error) {
	key = normalize(key)
	unlock := s.locks.Lock(key)
	defer unlock()

	var (
		updated *domain.Message
		raised  bool
	)
	err := s.store.UpdateMessage(ctx, key, id, func(m *domain.Message) error {
		if m.Role != domain.RoleModel || m.System {
			return fmt.Errorf("%w: only employee replies can be praised", domain.ErrInvalid)
		}
		raised = praised && !m.Praised
		m.Praised = praised
		updated = m.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if raised {
		morale, err := s.ws.AdjustMorale(ctx, key.EmployeeID, praiseMorale)
		if err != nil {
			return nil, err
		}
		s.logger(ctx, key).Info("employee praised", "morale", morale)
	}
	return updated, nil
}
