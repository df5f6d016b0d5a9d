package router

import (
	"context"

	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
	"github.com/PabloGalante/staffdesk/internal/observability"
)

// FillImage generates the image msg is waiting for and settles its action.
// It only touches msg; callers own persisting it. A failed generation leaves
// the slot marked failed rather than pending.
func FillImage(ctx context.Context, gateway domain.ModelGateway, msg *domain.Message) {
	if !msg.HasPendingImage() {
		return
	}
	log := observability.LoggerFromContext(ctx).With(
		"message_id", msg.ID,
		"action_id", msg.Action.ID,
	)

	payload, err := toolcall.Decode(msg.Action)
	img, ok := payload.(toolcall.ImagePayload)
	if err != nil || !ok {
		log.Warn("image action without a usable prompt")
		msg.Image = &domain.GeneratedImage{Status: domain.ImageFailed}
		msg.Action.State = domain.ActionRejected
		msg.Action.Reason = "missing image prompt"
		return
	}

	generated, err := gateway.GenerateImage(ctx, img.Prompt)
	if err != nil || generated == nil {
		log.Error("image generation failed", "error", err)
		msg.Image = &domain.GeneratedImage{Status: domain.ImageFailed}
		msg.Action.State = domain.ActionFailed
		msg.Action.Reason = domain.PresentableMessage(err)
		return
	}

	out := *generated
	out.Status = domain.ImageReady
	msg.Image = &out
	msg.Action.State = domain.ActionCommitted
	log.Info("image generated")
}
