package services

import (
	"context"

	"github.com/pkg/errors"
)

type ReadinessChecker interface {
	IsReady(ctx context.Context) bool
}

// HealthService backs the readiness probe: not-ready while the shared
// secret is unconfigured or the store cannot serve a trivial read.
type HealthService struct {
	secret string
	store  ReadinessChecker
}

func NewHealthService(secret string, store ReadinessChecker) *HealthService {
	return &HealthService{
		secret: secret,
		store:  store,
	}
}

func (s *HealthService) Ready(ctx context.Context) error {
	if s.secret == "" {
		return errors.New("WEBHOOK_SECRET not set")
	}
	if !s.store.IsReady(ctx) {
		return errors.New("database not ready")
	}
	return nil
}
