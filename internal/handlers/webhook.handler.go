package handlers

import (
	"context"
	"errors"

	"github.com/nimasrn/webhook-gateway/internal/model"
	"github.com/nimasrn/webhook-gateway/internal/services"
	xhttp "github.com/nimasrn/webhook-gateway/pkg/http"
	"github.com/nimasrn/webhook-gateway/pkg/logger"
	"github.com/nimasrn/webhook-gateway/pkg/prom"
)

const signatureHeader = "X-Signature"

type WebhookService interface {
	Process(ctx context.Context, rawBody []byte, signatureHex string) (*services.Result, error)
}

type WebhookHandler struct {
	svc WebhookService
}

func RegisterWebhookRoutes(r *xhttp.Router, h *WebhookHandler) {
	r.POST("/webhook", h.Receive)
}

func NewWebhookHandler(webhookService WebhookService) *WebhookHandler {
	return &WebhookHandler{
		svc: webhookService,
	}
}

type webhookResponse struct {
	Status string `json:"status"`
}

type validationErrorResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields"`
}

// Receive ingests one webhook delivery. Created and duplicate both
// answer 200 so upstream retries never look like failures.
func (h *WebhookHandler) Receive(ctx *xhttp.RequestCtx) {
	signature := string(ctx.Request.Header.Peek(signatureHeader))

	result, err := h.svc.Process(ctx, ctx.PostBody(), signature)
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			// never log the provided or expected signature
			logger.Error("invalid webhook signature", "request_id", xhttp.RequestID(ctx), "result", "invalid_signature")
			prom.AddWebhookResult("invalid_signature")
			writeError(ctx, 401, "invalid signature")
		case errors.As(err, &verr):
			logger.Error("webhook validation failed", "request_id", xhttp.RequestID(ctx), "result", "validation_error", "detail", verr.Error())
			prom.AddWebhookResult("validation_error")
			writeJSON(ctx, 422, validationErrorResponse{Error: "validation failed", Fields: verr.Fields})
		default:
			logger.Error("webhook storage failure", "request_id", xhttp.RequestID(ctx), "result", "storage_error", "error", err)
			prom.AddWebhookResult("storage_error")
			writeError(ctx, 500, "internal server error")
		}
		return
	}

	prom.AddWebhookResult(result.Outcome.String())
	writeJSON(ctx, 200, webhookResponse{Status: "ok"})
}
