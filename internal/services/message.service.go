package services

import (
	"context"

	"github.com/nimasrn/webhook-gateway/internal/model"
)

type MessageRepository interface {
	List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) // results, totalCount
	Stats(ctx context.Context) (*model.Stats, error)
}

// MessageService serves the read side: paginated listing and stats.
type MessageService struct {
	messageRepo MessageRepository
}

func NewMessageService(messageRepo MessageRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
	}
}

func (s *MessageService) List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.messageRepo.List(ctx, f)
}

func (s *MessageService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.messageRepo.Stats(ctx)
}
