package repository

import (
	"time"

	"github.com/nimasrn/webhook-gateway/internal/model"
)

type MessageEntity struct {
	MessageID  string    `db:"message_id"  gorm:"column:message_id;primaryKey"`
	FromMSISDN string    `db:"from_msisdn" gorm:"column:from_msisdn;not null;index:idx_messages_from"`
	ToMSISDN   string    `db:"to_msisdn"   gorm:"column:to_msisdn;not null"`
	TS         string    `db:"ts"          gorm:"column:ts;not null;index:idx_messages_ts"`
	Text       *string   `db:"text"        gorm:"column:text"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;not null"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	return &MessageEntity{
		MessageID:  m.MessageID,
		FromMSISDN: m.From,
		ToMSISDN:   m.To,
		TS:         m.TS,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	return &model.Message{
		MessageID: e.MessageID,
		From:      e.FromMSISDN,
		To:        e.ToMSISDN,
		TS:        e.TS,
		Text:      e.Text,
		CreatedAt: e.CreatedAt,
	}
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
