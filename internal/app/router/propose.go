package router

import (
	"context"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Proposal is what a model response turns into before anyone reviews it.
type Proposal struct {
	// Reply is the model turn to append. Its Action, if any, carries its review state.
	Reply *domain.Message
	// Payload is the decoded action payload; nil when there is no valid action.
	Payload toolcall.Payload
	// Notices are system turns produced immediately, appended after Reply.
	Notices []*domain.Message
}

// Propose classifies an extraction and prepares it for review. Data changes are
// checked up front: invalid ones, and kinds the employee may not use, are
// marked rejected so no approve control is offered. Generic documents are persisted right away inside a project and
// dropped outside one.
func (r *Router) Propose(ctx context.Context, target Target, ex toolcall.Extraction) (Proposal, error) {
	reply := &domain.Message{
		ID:        domain.NewMessageID(),
		Role:      domain.RoleModel,
		Text:      ex.Narration,
		CreatedAt: r.now(),
	}
	out := Proposal{Reply: reply}

	action := ex.Action
	if action == nil {
		return out, nil
	}
	log := r.logger(ctx, target, action)

	if !target.allows(action.Kind) {
		return r.reject(ctx, target, out, action, notAllowed(action.Kind)), nil
	}
	payload, err := toolcall.Decode(action)
	if err != nil {
		return r.reject(ctx, target, out, action, rejectionOf(action, err).Reason), nil
	}
	out.Payload = payload

	switch action.Kind.Class() {
	case domain.ClassDataMutation:
		action.State = domain.ActionPending
		reply.Action = action

	case domain.ClassDocument:
		// Awaiting an optional save; download is always possible.
		action.State = domain.ActionPending
		reply.Action = action

	case domain.ClassImage:
		action.State = domain.ActionPending
		reply.Action = action
		reply.Image = &domain.GeneratedImage{Status: domain.ImagePending}

	case domain.ClassCollaboration:
		action.State = domain.ActionPending
		reply.Action = action

	default:
		if action.Kind == domain.ActionDocument {
			return r.persistDocument(ctx, target, out, action, payload)
		}
		action.State = domain.ActionPreview
		reply.Action = action
	}

	log.Info("action proposed", "state", action.State)
	return out, nil
}

// reject marks an action unusable before review. A data change also gets a
// system turn saying nothing happened, since no approve control will show.
func (r *Router) reject(ctx context.Context, target Target, out Proposal, action *domain.TriggeredAction, reason string) Proposal {
	r.logger(ctx, target, action).Info("action rejected at preview", "reason", reason)
	action.State = domain.ActionRejected
	action.Reason = reason
	out.Reply.Action = action
	if action.Kind.Class() == domain.ClassDataMutation {
		out.Notices = append(out.Notices, r.SystemMessage("Nothing was changed: %s.", reason))
	}
	return out
}

func (r *Router) persistDocument(ctx context.Context, target Target, out Proposal, action *domain.TriggeredAction, payload toolcall.Payload) (Proposal, error) {
	log := r.logger(ctx, target, action)
	if target.ProjectID == "" {
		log.Info("document dropped outside project scope")
		out.Payload = nil
		return out, nil
	}

	tool, ok := r.tools[domain.ActionDocument]
	if !ok {
		return out, ErrNoHandler
	}
	res, err := tool.Call(ctx, target.toolContext(action.ID), payload)
	if err != nil {
		log.Error("document persist failed", "error", err)
		action.State = domain.ActionFailed
		action.Reason = "the file could not be saved"
		out.Reply.Action = action
		out.Notices = append(out.Notices, r.SystemMessage("I could not save the document to the project files."))
		return out, nil
	}

	action.State = domain.ActionCommitted
	out.Reply.Action = action
	out.Notices = append(out.Notices, r.SystemMessage("%s", res.Message))
	log.Info("document persisted")
	return out, nil
}
