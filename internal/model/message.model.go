package model

import (
	"time"
)

// Message is a validated, persisted webhook message. Messages are
// immutable once stored; message_id is the idempotency key.
type Message struct {
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	TS        string    `json:"ts"`
	Text      *string   `json:"text"`
	CreatedAt time.Time `json:"-"`
}

// MessageFilter controls List queries. Filters compose with AND.
type MessageFilter struct {
	From   *string // equals on sender msisdn
	Since  *string // inclusive lower bound on ts, lexicographic
	Q      *string // substring match on text
	Limit  int     // default 10, max 100
	Offset int     // for pagination
}

type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalMessages     int64         `json:"total_messages"`
	SendersCount      int64         `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}
