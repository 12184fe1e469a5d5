package handlers

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/nimasrn/webhook-gateway/internal/model"
	xhttp "github.com/nimasrn/webhook-gateway/pkg/http"
)

type MessageService interface {
	List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

type MessageHandler struct {
	svc MessageService
}

func RegisterMessageRoutes(r *xhttp.Router, h *MessageHandler) {
	r.GET("/messages", h.ListMessages)
	r.GET("/stats", h.GetStats)
}

func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{
		svc: messageService,
	}
}

type listResponse struct {
	Data   []*model.Message `json:"data"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *MessageHandler) ListMessages(ctx *xhttp.RequestCtx) {
	f := model.MessageFilter{Limit: 10, Offset: 0}

	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if v := query(ctx, "from"); v != "" {
		f.From = &v
	}
	if v := query(ctx, "since"); v != "" {
		f.Since = &v
	}
	if v := query(ctx, "q"); v != "" {
		f.Q = &v
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 500, "storage unavailable")
		return
	}
	if items == nil {
		items = []*model.Message{}
	}

	writeJSON(ctx, 200, listResponse{Data: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *MessageHandler) GetStats(ctx *xhttp.RequestCtx) {
	stats, err := h.svc.Stats(ctx)
	if err != nil {
		writeError(ctx, 500, "storage unavailable")
		return
	}
	writeJSON(ctx, 200, stats)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
