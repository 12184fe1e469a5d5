package services

import (
	"context"
	"errors"

	"github.com/nimasrn/webhook-gateway/internal/model"
	"github.com/nimasrn/webhook-gateway/internal/repository"
	"github.com/nimasrn/webhook-gateway/internal/webhook"
	"github.com/nimasrn/webhook-gateway/pkg/logger"
	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrInvalidSignature is terminal: no store access happens after it.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Result is the terminal state of one pipeline run. Created and
// Duplicate are both success from the sender's point of view.
type Result struct {
	Outcome   repository.InsertOutcome
	MessageID string
}

type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) (repository.InsertOutcome, error)
}

// DedupeCache is the optional redis fast path. Nil disables it.
type DedupeCache interface {
	Seen(ctx context.Context, messageID string) bool
	MarkSeen(ctx context.Context, messageID string)
}

// WebhookService runs the ingestion pipeline:
// normalize -> verify signature -> validate -> persist -> classify.
// It is stateless per request and safe for concurrent use; the store
// resolves same-id races via its unique constraint.
type WebhookService struct {
	store  MessageStore
	dedupe DedupeCache
	secret string
}

func NewWebhookService(store MessageStore, dedupe DedupeCache, secret string) *WebhookService {
	return &WebhookService{
		store:  store,
		dedupe: dedupe,
		secret: secret,
	}
}

// Process ingests one raw webhook delivery. Error returns are either
// ErrInvalidSignature, a *model.ValidationError, or a wrapped storage
// error; the handler maps each to its status code.
func (s *WebhookService) Process(ctx context.Context, rawBody []byte, signatureHex string) (*Result, error) {
	normalized := webhook.Normalize(rawBody)

	// the signature covers the normalized bytes, never the raw body
	if !webhook.Verify(normalized, signatureHex, s.secret) {
		return nil, ErrInvalidSignature
	}

	msg, err := model.ParseWebhookMessage(normalized)
	if err != nil {
		return nil, err
	}

	if s.dedupe != nil && s.dedupe.Seen(ctx, msg.MessageID) {
		logger.Info("webhook processed", "message_id", msg.MessageID, "dup", true, "result", "duplicate", "cache_hit", true)
		return &Result{Outcome: repository.OutcomeDuplicate, MessageID: msg.MessageID}, nil
	}

	outcome, err := s.store.Insert(ctx, msg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "insert message")
	}

	if s.dedupe != nil {
		s.dedupe.MarkSeen(ctx, msg.MessageID)
	}

	logger.Info("webhook processed",
		"message_id", msg.MessageID,
		"dup", outcome == repository.OutcomeDuplicate,
		"result", outcome.String(),
	)

	return &Result{Outcome: outcome, MessageID: msg.MessageID}, nil
}
