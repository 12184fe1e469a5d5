package repository

import (
	"context"
	"time"

	"github.com/nimasrn/webhook-gateway/internal/model"
	"github.com/nimasrn/webhook-gateway/pkg/pg"
	"gorm.io/gorm/clause"
)

// InsertOutcome tags what happened on insert. Duplicate is a success,
// not an error: webhook senders retry, and a retry must look identical
// to the first delivery.
type InsertOutcome int

const (
	OutcomeCreated InsertOutcome = iota
	OutcomeDuplicate
)

func (o InsertOutcome) String() string {
	if o == OutcomeDuplicate {
		return "duplicate"
	}
	return "created"
}

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

// Insert persists a message with a server-assigned receipt timestamp.
// Concurrent inserts of the same message_id are resolved by the unique
// constraint: exactly one row lands, everyone else sees Duplicate. The
// existing row is never modified.
func (r *MessageRepository) Insert(ctx context.Context, msg *model.Message) (InsertOutcome, error) {
	entity := toMessageEntity(msg)
	entity.CreatedAt = time.Now().UTC()

	res := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(entity)
	if res.Error != nil {
		return OutcomeCreated, res.Error
	}
	if res.RowsAffected == 0 {
		return OutcomeDuplicate, nil
	}
	return OutcomeCreated, nil
}

// List returns a page of messages plus the total count of the filtered
// set. Ordering is (ts, message_id) ascending so pages are stable even
// when many messages share a timestamp. Since is a string comparison on
// ts, which is correct because stored timestamps are normalized
// ISO-8601 UTC and therefore sort lexicographically.
func (r *MessageRepository) List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) {
	q := r.Read(ctx).Model(&MessageEntity{})

	if f.From != nil && *f.From != "" {
		q = q.Where("from_msisdn = ?", *f.From)
	}
	if f.Since != nil && *f.Since != "" {
		q = q.Where("ts >= ?", *f.Since)
	}
	if f.Q != nil && *f.Q != "" {
		q = q.Where("text LIKE ?", "%"+*f.Q+"%")
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*MessageEntity
	if err := q.Order("ts ASC, message_id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toMessageModels(entities), total, nil
}

// Stats aggregates over the whole table. Top senders are tie-broken by
// sender value so repeated calls return the same order.
func (r *MessageRepository) Stats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{MessagesPerSender: []model.SenderCount{}}

	if err := r.Read(ctx).Model(&MessageEntity{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, err
	}

	if err := r.Read(ctx).Model(&MessageEntity{}).
		Distinct("from_msisdn").
		Count(&stats.SendersCount).Error; err != nil {
		return nil, err
	}

	type senderRow struct {
		FromMSISDN string `gorm:"column:from_msisdn"`
		Count      int64  `gorm:"column:count"`
	}
	var senders []senderRow
	if err := r.Read(ctx).Model(&MessageEntity{}).
		Select("from_msisdn, COUNT(*) AS count").
		Group("from_msisdn").
		Order("count DESC, from_msisdn ASC").
		Limit(10).
		Scan(&senders).Error; err != nil {
		return nil, err
	}
	for _, s := range senders {
		stats.MessagesPerSender = append(stats.MessagesPerSender, model.SenderCount{From: s.FromMSISDN, Count: s.Count})
	}

	type tsRow struct {
		FirstTS *string `gorm:"column:first_ts"`
		LastTS  *string `gorm:"column:last_ts"`
	}
	var ts tsRow
	if err := r.Read(ctx).Model(&MessageEntity{}).
		Select("MIN(ts) AS first_ts, MAX(ts) AS last_ts").
		Scan(&ts).Error; err != nil {
		return nil, err
	}
	stats.FirstMessageTS = ts.FirstTS
	stats.LastMessageTS = ts.LastTS

	return stats, nil
}

// IsReady reports whether the store can serve a trivial read. Existence
// check, not emptiness: an empty table is ready.
func (r *MessageRepository) IsReady(ctx context.Context) bool {
	var one int
	err := r.Read(ctx).Raw("SELECT 1 FROM messages LIMIT 1").Scan(&one).Error
	return err == nil
}
