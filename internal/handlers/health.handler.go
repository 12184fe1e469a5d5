package handlers

import (
	"context"

	xhttp "github.com/nimasrn/webhook-gateway/pkg/http"
)

type HealthService interface {
	Ready(ctx context.Context) error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(r *xhttp.Router, h *HealthHandler) {
	r.GET("/health/live", h.GetLive)
	r.GET("/health/ready", h.GetReady)
}

func NewHealthHandler(healthService HealthService) *HealthHandler {
	return &HealthHandler{
		svc: healthService,
	}
}

func (h *HealthHandler) GetLive(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, 200, map[string]string{"status": "ok"})
}

func (h *HealthHandler) GetReady(ctx *xhttp.RequestCtx) {
	if err := h.svc.Ready(ctx); err != nil {
		writeError(ctx, 503, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "ok"})
}
