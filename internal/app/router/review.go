package router

import (
	"context"
	"fmt"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Outcome is the result of one review gesture.
type Outcome struct {
	State domain.ActionState
	// Message is the single system turn the gesture produces.
	Message *domain.Message
	Reason  string
}

// Approve applies a pending data change exactly once per action id. Validation
// and resolution failures produce an explanatory message and no mutation.
func (r *Router) Approve(ctx context.Context, target Target, action *domain.TriggeredAction) (Outcome, error) {
	if action == nil {
		return Outcome{}, domain.ErrNoAction
	}
	if action.Kind.Class() != domain.ClassDataMutation {
		return Outcome{}, ErrNotApprovable
	}
	if action.State.Terminal() {
		return Outcome{}, domain.ErrActionResolved
	}
	if !target.allows(action.Kind) {
		reason := notAllowed(action.Kind)
		return Outcome{
			State:   domain.ActionRejected,
			Reason:  reason,
			Message: r.SystemMessage("Nothing was changed: %s.", reason),
		}, nil
	}
	if !r.claim(action.ID) {
		return Outcome{}, domain.ErrActionResolved
	}
	log := r.logger(ctx, target, action)

	payload, err := toolcall.Decode(action)
	if err != nil {
		rej := rejectionOf(action, err)
		log.Info("approval rejected", "reason", rej.Reason)
		return Outcome{
			State:   domain.ActionRejected,
			Reason:  rej.Reason,
			Message: r.SystemMessage("Nothing was changed: %s.", rej.Reason),
		}, nil
	}

	tool, ok := r.tools[action.Kind]
	if !ok {
		r.Release(action.ID)
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoHandler, action.Kind)
	}

	res, err := tool.Call(ctx, target.toolContext(action.ID), payload)
	if err != nil {
		log.Error("approved action failed", "error", err)
		return Outcome{
			State:   domain.ActionFailed,
			Reason:  "the change could not be applied",
			Message: r.SystemMessage("Sorry, something went wrong while applying this change. Nothing was saved."),
		}, nil
	}
	if !res.Applied {
		log.Info("approved action refused", "reason", res.Message)
		return Outcome{
			State:   domain.ActionRejected,
			Reason:  res.Message,
			Message: r.SystemMessage("%s", res.Message),
		}, nil
	}

	log.Info("approved action applied")
	return Outcome{State: domain.ActionCommitted, Message: r.SystemMessage("%s", res.Message)}, nil
}

func notAllowed(kind domain.ActionKind) string {
	return fmt.Sprintf("this employee is not set up to use %s actions", kind)
}

// Save encodes a document action and records it as a generated document.
func (r *Router) Save(ctx context.Context, target Target, action *domain.TriggeredAction) (Outcome, *domain.EncodedFile, error) {
	if action == nil {
		return Outcome{}, nil, domain.ErrNoAction
	}
	if action.Kind.Class() != domain.ClassDocument {
		return Outcome{}, nil, domain.ErrNotSavable
	}
	if action.State.Terminal() || !r.claim(action.ID) {
		return Outcome{}, nil, domain.ErrActionResolved
	}
	log := r.logger(ctx, target, action)

	file, err := r.encoder.Encode(ctx, action)
	if err != nil {
		r.Release(action.ID)
		log.Error("document encoding failed", "error", err)
		return Outcome{}, nil, fmt.Errorf("encode %s: %w", action.Kind, err)
	}

	doc := domain.GeneratedDocument{
		ID:        domain.NewID(),
		ProjectID: target.ProjectID,
		AuthorID:  target.EmployeeID,
		Kind:      action.Kind,
		FileName:  file.FileName,
		MIMEType:  file.MIMEType,
		Data:      file.Data,
		CreatedAt: r.now(),
	}
	if err := r.documents.AddGeneratedDocument(ctx, doc); err != nil {
		r.Release(action.ID)
		log.Error("recording generated document failed", "error", err)
		return Outcome{}, nil, fmt.Errorf("record document: %w", err)
	}

	log.Info("document saved", "file_name", file.FileName)
	return Outcome{
		State:   domain.ActionSaved,
		Message: r.SystemMessage("Saved %q to your documents.", file.FileName),
	}, file, nil
}

// Download encodes a document action without recording anything.
func (r *Router) Download(ctx context.Context, action *domain.TriggeredAction) (*domain.EncodedFile, error) {
	if action == nil {
		return nil, domain.ErrNoAction
	}
	if action.Kind.Class() != domain.ClassDocument {
		return nil, domain.ErrNotSavable
	}
	return r.encoder.Encode(ctx, action)
}
