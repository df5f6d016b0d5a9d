package brainstorm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/staffdesk/internal/app/instruction"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

type SubmitInput struct {
	SessionID  domain.SessionID
	Text       string
	Attachment *domain.Attachment
}

// Round is what one submission added to the session.
type Round struct {
	UserMessage *domain.Message
	// Messages are the settled turns after the user's, in log order.
	Messages []*domain.Message
	// Failed is set when the round as a whole broke down.
	Failed bool
}

// resolution replaces the placeholder of one speaker.
type resolution struct {
	speaker  domain.EmployeeID
	messages []*domain.Message
}

// Submit runs one round: user turn, a placeholder per participant, one
// concurrent model call each, then the image pass. The settled log is
// persisted once at the end.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Round, error) {
	unlock := s.locks.Lock(in.SessionID)
	defer unlock()
	log := s.logger(ctx, in.SessionID)

	session, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants(ctx, session)
	if err != nil {
		return nil, err
	}
	company, err := s.ws.Company(ctx)
	if err != nil {
		return nil, err
	}

	userMsg := &domain.Message{
		ID:         domain.NewMessageID(),
		Role:       domain.RoleUser,
		Text:       in.Text,
		CreatedAt:  s.now(),
		Attachment: in.Attachment,
	}
	session.History = append(session.History, userMsg)
	s.publish(session.ID, EventUserTurn, userMsg)
	start := len(session.History)

	// Every participant answers from the same history.
	shared := domain.CloneMessages(domain.Window(session.History, s.historyLimit))

	for i := range participants {
		placeholder := &domain.Message{
			ID:        domain.NewMessageID(),
			Role:      domain.RoleModel,
			CreatedAt: s.now(),
			Speaker:   participants[i].Speaker(),
			IsTyping:  true,
		}
		session.History = append(session.History, placeholder)
		s.publish(session.ID, EventPlaceholder, placeholder)
	}
	log.Info("brainstorm round started", "participants", len(participants))

	results := make(chan resolution)
	g, gctx := errgroup.WithContext(ctx)
	for i := range participants {
		emp := participants[i]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("participant %s panicked: %v", emp.ID, r)
				}
			}()
			msgs, err := s.respond(gctx, session, &emp, participants, company, shared)
			if err != nil {
				return err
			}
			select {
			case results <- resolution{speaker: emp.ID, messages: msgs}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	// Single reducer: only this loop touches session.History while calls run.
	for r := range results {
		session.History = replacePlaceholder(session.History, r)
		for _, m := range r.messages {
			s.publish(session.ID, EventResolved, m)
		}
	}

	round := &Round{UserMessage: userMsg}
	if err := <-done; err != nil {
		log.Error("brainstorm round failed", "error", err)
		session.History = dropPlaceholders(session.History)
		failure := s.systemNote(roundFailureText)
		session.History = append(session.History, failure)
		round.Failed = true
		s.publish(session.ID, EventFailed, failure)
	}
	// Turns that did settle keep their images even when the round broke down.
	s.fillImages(ctx, session)

	session.LastActivity = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Error("failed to persist brainstorm round", "error", err)
		return nil, err
	}
	s.publish(session.ID, EventSettled, nil)

	round.Messages = session.History[start:]
	log.Info("brainstorm round settled", "messages", len(round.Messages), "failed", round.Failed)
	return round, nil
}

// respond produces one participant's turn. Gateway failures become an
// apology from that participant; only infrastructure failures are errors.
func (s *Service) respond(
	ctx context.Context,
	session *domain.Session,
	emp *domain.Employee,
	participants []domain.Employee,
	company domain.CompanyProfile,
	shared []*domain.Message,
) ([]*domain.Message, error) {
	log := s.logger(ctx, session.ID).With("employee_id", emp.ID)

	if !emp.InstantResponder && s.pacing > 0 {
		t := time.NewTimer(s.pacing)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}

	scope, err := s.resolver.ForSession(ctx, emp, session, participants)
	if err != nil {
		return nil, err
	}
	instr := instruction.Build(emp, company, scope)

	reply, err := s.gateway.ContinueConversation(ctx, shared, instr)
	if err != nil {
		log.Error("participant call failed", "error", err)
		return []*domain.Message{{
			ID:        domain.NewMessageID(),
			Role:      domain.RoleModel,
			Text:      fmt.Sprintf("Sorry, I couldn't weigh in: %s.", domain.PresentableMessage(err)),
			CreatedAt: s.now(),
			Speaker:   emp.Speaker(),
		}}, nil
	}

	ex := toolcall.Extract(reply)
	// Consulting a colleague is a one-on-one flow; here the narration stands alone.
	if ex.Action != nil && ex.Action.Kind == domain.ActionCollaborate {
		ex.Action = nil
	}
	proposal, err := s.router.Propose(ctx, s.target(ctx, session, emp), ex)
	if err != nil {
		return nil, err
	}
	proposal.Reply.Speaker = emp.Speaker()
	return append([]*domain.Message{proposal.Reply}, proposal.Notices...), nil
}

// replacePlaceholder swaps the speaker's placeholder for its settled turns.
// Matching is by speaker, never by position.
func replacePlaceholder(history []*domain.Message, r resolution) []*domain.Message {
	for i, m := range history {
		if !m.IsTyping || !m.SameSpeaker(r.speaker) {
			continue
		}
		out := make([]*domain.Message, 0, len(history)+len(r.messages)-1)
		out = append(out, history[:i]...)
		out = append(out, r.messages...)
		return append(out, history[i+1:]...)
	}
	return append(history, r.messages...)
}

func dropPlaceholders(history []*domain.Message) []*domain.Message {
	out := history[:0]
	for _, m := range history {
		if !m.IsTyping {
			out = append(out, m)
		}
	}
	return out
}

// fillImages generates every image still pending in the log, concurrently.
// Each call owns exactly one message.
func (s *Service) fillImages(ctx context.Context, session *domain.Session) {
	var g errgroup.Group
	var pending []*domain.Message
	for _, m := range session.History {
		if !m.HasPendingImage() {
			continue
		}
		msg := m
		pending = append(pending, msg)
		g.Go(func() error {
			router.FillImage(ctx, s.gateway, msg)
			return nil
		})
	}
	_ = g.Wait()

	for _, m := range pending {
		s.publish(session.ID, EventImage, m)
	}
}
