package httpadapter

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/PabloGalante/staffdesk/internal/app/brainstorm"
	"github.com/PabloGalante/staffdesk/internal/app/conversation"
	"github.com/PabloGalante/staffdesk/internal/app/minutes"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Directory     domain.Directory
	Conversations *conversation.Service
	Brainstorms   *brainstorm.Service
	Minutes       *minutes.Service
	Hub           *brainstorm.Hub
}

type Server struct {
	deps Deps
}

func NewServer(deps Deps) http.Handler {
	s := &Server{deps: deps}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(withRequestContext)
	r.Use(withLogging)
	r.Use(chiMiddleware.Recoverer)
	r.Use(withCORS)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/employees", s.handleListEmployees)

	r.Route("/employees/{employeeID}/conversations/{contextID}", func(r chi.Router) {
		r.Get("/", s.handleOpenConversation)
		r.Post("/messages", s.handleSendMessage)
		r.Route("/messages/{messageID}", func(r chi.Router) {
			r.Post("/approve", s.handleApprove)
			r.Post("/save", s.handleSave)
			r.Post("/praise", s.handlePraise)
			r.Get("/download", s.handleDownload)
		})
	})

	r.Route("/brainstorms", func(r chi.Router) {
		r.Post("/", s.handleCreateBrainstorm)
		r.Get("/", s.handleListBrainstorms)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetBrainstorm)
			r.Post("/messages", s.handleSubmitRound)
			r.Post("/messages/{messageID}/approve", s.handleApproveInBrainstorm)
			r.Post("/minutes", s.handleGenerateMinutes)
			r.Get("/stream", s.handleStream)
		})
	})

	r.Get("/projects/{projectID}/minutes", s.handleProjectMinutes)

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sendMessageRequest struct {
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

type conversationResponse struct {
	EmployeeID string            `json:"employee_id"`
	ContextID  string            `json:"context_id"`
	Messages   []*domain.Message `json:"messages"`
	Notice     *domain.Message   `json:"notice,omitempty"`
}

type turnResponse struct {
	UserMessage *domain.Message   `json:"user_message"`
	Replies     []*domain.Message `json:"replies"`
}

type fileResponse struct {
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type reviewResponse struct {
	Message *domain.Message `json:"message"`
	Notice  *domain.Message `json:"notice,omitempty"`
	File    *fileResponse   `json:"file,omitempty"`
}

type praiseRequest struct {
	Praised *bool `json:"praised"`
}

type createBrainstormRequest struct {
	Topic          string   `json:"topic"`
	ProjectID      string   `json:"project_id,omitempty"`
	ParticipantIDs []string `json:"participant_ids"`
}

type roundResponse struct {
	UserMessage *domain.Message   `json:"user_message"`
	Messages    []*domain.Message `json:"messages"`
	Failed      bool              `json:"failed"`
}

type minutesResponse struct {
	Minutes *domain.MeetingMinutes `json:"minutes,omitempty"`
	Note    *domain.Message        `json:"note"`
}

// ─────────────────────────────────────────────
// Conversation handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := s.deps.Directory.Employees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employees": emps})
}

func conversationKey(r *http.Request) domain.ConversationKey {
	return domain.ConversationKey{
		EmployeeID: domain.EmployeeID(chi.URLParam(r, "employeeID")),
		ContextID:  domain.ContextID(chi.URLParam(r, "contextID")),
	}
}

func messageID(r *http.Request) domain.MessageID {
	return domain.MessageID(chi.URLParam(r, "messageID"))
}

func (s *Server) handleOpenConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.deps.Conversations.Open(r.Context(), conversationKey(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationResponse{
		EmployeeID: string(conv.Key.EmployeeID),
		ContextID:  string(conv.Key.ContextID),
		Messages:   conv.Messages,
		Notice:     conv.Notice,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.Attachment == nil {
		badRequest(w, "text is required")
		return
	}

	turn, err := s.deps.Conversations.SendMessage(r.Context(), conversation.SendMessageInput{
		Key:        conversationKey(r),
		Text:       req.Text,
		Attachment: req.Attachment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{UserMessage: turn.UserMessage, Replies: turn.Replies})
}

func toReviewResponse(rv *conversation.Review) reviewResponse {
	resp := reviewResponse{Message: rv.Message, Notice: rv.Notice}
	if rv.File != nil {
		resp.File = &fileResponse{FileName: rv.File.FileName, MIMEType: rv.File.MIMEType, Data: rv.File.Data}
	}
	return resp
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	rv, err := s.deps.Conversations.Approve(r.Context(), conversationKey(r), messageID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rv))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	rv, err := s.deps.Conversations.Save(r.Context(), conversationKey(r), messageID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rv))
}

func (s *Server) handlePraise(w http.ResponseWriter, r *http.Request) {
	var req praiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Praised == nil {
		badRequest(w, "praised is required")
		return
	}

	msg, err := s.deps.Conversations.Praise(r.Context(), conversationKey(r), messageID(r), *req.Praised)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	file, err := s.deps.Conversations.Download(r.Context(), conversationKey(r), messageID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", file.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// ─────────────────────────────────────────────
// Brainstorm handlers
// ─────────────────────────────────────────────

func sessionID(r *http.Request) domain.SessionID {
	return domain.SessionID(chi.URLParam(r, "sessionID"))
}

func (s *Server) handleCreateBrainstorm(w http.ResponseWriter, r *http.Request) {
	var req createBrainstormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	ids := make([]domain.EmployeeID, 0, len(req.ParticipantIDs))
	for _, id := range req.ParticipantIDs {
		ids = append(ids, domain.EmployeeID(id))
	}
	session, err := s.deps.Brainstorms.CreateSession(r.Context(), brainstorm.CreateSessionInput{
		Topic:          req.Topic,
		ProjectID:      domain.ProjectID(req.ProjectID),
		ParticipantIDs: ids,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (s *Server) handleListBrainstorms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := s.deps.Brainstorms.ListSessions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleGetBrainstorm(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Brainstorms.GetSession(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (s *Server) handleSubmitRound(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" && req.Attachment == nil {
		badRequest(w, "text is required")
		return
	}

	round, err := s.deps.Brainstorms.Submit(r.Context(), brainstorm.SubmitInput{
		SessionID:  sessionID(r),
		Text:       req.Text,
		Attachment: req.Attachment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roundResponse{
		UserMessage: round.UserMessage,
		Messages:    round.Messages,
		Failed:      round.Failed,
	})
}

func (s *Server) handleApproveInBrainstorm(w http.ResponseWriter, r *http.Request) {
	msg, notice, err := s.deps.Brainstorms.Approve(r.Context(), sessionID(r), messageID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Message: msg, Notice: notice})
}

func (s *Server) handleGenerateMinutes(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Brainstorms.GenerateMinutes(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, minutesResponse{Minutes: res.Minutes, Note: res.Note})
}

// ─────────────────────────────────────────────
// Minutes handlers
// ─────────────────────────────────────────────

func (s *Server) handleProjectMinutes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.deps.Minutes.ProjectMinutes(r.Context(), domain.ProjectID(chi.URLParam(r, "projectID")), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"minutes": entries})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrActionResolved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalid),
		errors.Is(err, domain.ErrNoAction),
		errors.Is(err, domain.ErrNotSavable),
		errors.Is(err, router.ErrNotApprovable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps service errors to status codes. Internal details stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
