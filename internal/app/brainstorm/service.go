// Package brainstorm runs multi-participant sessions: one user turn fans out to
// a concurrent model call per participant, and every reply lands in the single
// shared log of the session.
package brainstorm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PabloGalante/staffdesk/internal/app/instruction"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/app/serial"
	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

const roundFailureText = "Sorry, the team could not respond this time. Please try again."

// Options tune a Service. The zero value is usable.
type Options struct {
	// Pacing delays the call of each participant that is not an instant responder.
	Pacing       time.Duration
	HistoryLimit int
	Now          func() time.Time
}

type Service struct {
	gateway  domain.ModelGateway
	sessions domain.SessionStore
	ws       domain.Workspace
	resolver *instruction.Resolver
	router   *router.Router
	hub      *Hub

	pacing       time.Duration
	historyLimit int
	now          func() time.Time

	locks serial.Locks[domain.SessionID]
}

func NewService(
	gateway domain.ModelGateway,
	sessions domain.SessionStore,
	ws domain.Workspace,
	rt *router.Router,
	hub *Hub,
	opts Options,
) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		gateway:      gateway,
		sessions:     sessions,
		ws:           ws,
		resolver:     instruction.NewResolver(ws),
		router:       rt,
		hub:          hub,
		pacing:       opts.Pacing,
		historyLimit: opts.HistoryLimit,
		now:          now,
	}
}

func (s *Service) logger(ctx context.Context, id domain.SessionID) *slog.Logger {
	return observability.LoggerFromContext(ctx).With("session_id", id)
}

func (s *Service) publish(id domain.SessionID, t EventType, msg *domain.Message) {
	s.hub.Publish(Event{Type: t, SessionID: id, Message: msg})
}

type CreateSessionInput struct {
	Topic          string
	ProjectID      domain.ProjectID
	ParticipantIDs []domain.EmployeeID
}

// CreateSession starts a meeting. Participants and the project must exist.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (*domain.Session, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, fmt.Errorf("%w: a brainstorm needs a topic", domain.ErrInvalid)
	}
	if len(in.ParticipantIDs) == 0 {
		return nil, fmt.Errorf("%w: a brainstorm needs at least one participant", domain.ErrInvalid)
	}

	seen := make(map[domain.EmployeeID]bool, len(in.ParticipantIDs))
	ids := make([]domain.EmployeeID, 0, len(in.ParticipantIDs))
	for _, id := range in.ParticipantIDs {
		if seen[id] {
			continue
		}
		if _, err := s.ws.Employee(ctx, id); err != nil {
			return nil, err
		}
		seen[id] = true
		ids = append(ids, id)
	}

	now := s.now()
	session := &domain.Session{
		ID:             domain.NewSessionID(),
		Topic:          strings.TrimSpace(in.Topic),
		ContextType:    domain.ContextTypeGeneral,
		ParticipantIDs: ids,
		History:        []*domain.Message{},
		CreatedAt:      now,
		LastActivity:   now,
	}
	if in.ProjectID != "" {
		if _, err := s.ws.Project(ctx, in.ProjectID); err != nil {
			return nil, err
		}
		session.ContextType = domain.ContextTypeProject
		session.ContextID = in.ProjectID
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	s.logger(ctx, session.ID).Info("brainstorm created", "participants", len(ids), "project_id", in.ProjectID)
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.sessions.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	return s.sessions.ListSessions(ctx, limit)
}

func (s *Service) participants(ctx context.Context, session *domain.Session) ([]domain.Employee, error) {
	out := make([]domain.Employee, 0, len(session.ParticipantIDs))
	for _, id := range session.ParticipantIDs {
		emp, err := s.ws.Employee(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("participant %s: %w", id, err)
		}
		out = append(out, *emp)
	}
	return out, nil
}

func (s *Service) target(ctx context.Context, session *domain.Session, emp *domain.Employee) router.Target {
	return router.Target{
		EmployeeID: emp.ID,
		ProjectID:  session.ProjectID(),
		RequestID:  observability.RequestID(ctx),
		Tools:      emp.AvailableTools(),
	}
}

func (s *Service) systemNote(text string) *domain.Message {
	return &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleModel,
		Text:      text,
		CreatedAt: s.now(),
		System:    true,
	}
}

func (s *Service) find(session *domain.Session, id domain.MessageID) (*domain.Message, error) {
	for _, m := range session.History {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.NotFoundf("message %s in session %s", id, session.ID)
}

// Approve applies a data change proposed by one participant.
func (s *Service) Approve(ctx context.Context, id domain.SessionID, messageID domain.MessageID) (*domain.Message, *domain.Message, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	msg, err := s.find(session, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg.Speaker == nil {
		return nil, nil, domain.ErrNoAction
	}

	emp, err := s.ws.Employee(ctx, msg.Speaker.EmployeeID)
	if err != nil {
		return nil, nil, err
	}

	out, err := s.router.Approve(ctx, s.target(ctx, session, emp), msg.Action)
	if err != nil {
		return nil, nil, err
	}
	msg.Action.State = out.State
	msg.Action.Reason = out.Reason
	session.History = append(session.History, out.Message)
	session.LastActivity = s.now()

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, nil, err
	}
	s.router.Release(msg.Action.ID)
	s.publish(id, EventNotice, out.Message)
	s.logger(ctx, id).Info("action reviewed", "message_id", messageID, "state", out.State)
	return msg, out.Message, nil
}

// MinutesResult carries stored minutes, or only a note when summarizing failed.
type MinutesResult struct {
	Minutes *domain.MeetingMinutes
	Note    *domain.Message
}

// GenerateMinutes summarizes the session, stores the minutes under the
// session's project and notes it in the session log.
func (s *Service) GenerateMinutes(ctx context.Context, id domain.SessionID) (*MinutesResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	log := s.logger(ctx, id)

	session, err := s.sessions.GetSession(ctx, id)
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

	result := &MinutesResult{}
	summary, err := s.gateway.SummarizeSession(ctx, session.History, minutesInstruction(session, participants, company))
	if err != nil {
		log.Error("minutes generation failed", "error", err)
		result.Note = s.systemNote(fmt.Sprintf("I couldn't write the minutes: %s.", domain.PresentableMessage(err)))
	} else {
		minutes := &domain.MeetingMinutes{
			ID:           domain.MinutesID(domain.NewID()),
			SessionID:    session.ID,
			ProjectID:    session.ProjectID(),
			Title:        summary.Title,
			Content:      summary.Content,
			Participants: append([]domain.EmployeeID(nil), session.ParticipantIDs...),
			CreatedAt:    s.now(),
		}
		if err := s.ws.AppendMinutes(ctx, minutes); err != nil {
			return nil, err
		}
		result.Minutes = minutes
		result.Note = s.systemNote(fmt.Sprintf("Meeting minutes saved: %q.", minutes.Title))
	}

	session.History = append(session.History, result.Note)
	session.LastActivity = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	s.publish(id, EventNotice, result.Note)
	log.Info("minutes generated", "stored", result.Minutes != nil)
	return result, nil
}

func minutesInstruction(session *domain.Session, participants []domain.Employee, company domain.CompanyProfile) string {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Role))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are writing the minutes of a brainstorm at %s.\n", company.Name)
	fmt.Fprintf(&b, "Topic: %s\n", session.Topic)
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(names, ", "))
	b.WriteString("Return a short title and the minutes as Markdown: key ideas, decisions and follow-up actions with owners.")
	return b.String()
}
