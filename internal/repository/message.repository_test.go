package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/nimasrn/webhook-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func newTestMessage(id, from, ts string, text *string) *model.Message {
	return &model.Message{
		MessageID: id,
		From:      from,
		To:        "+1555000999",
		TS:        ts,
		Text:      text,
	}
}

func mustInsert(t *testing.T, repo *MessageRepository, msg *model.Message) {
	t.Helper()
	outcome, err := repo.Insert(context.Background(), msg)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)
}

func TestMessageRepository_Insert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db.DB)
	ctx := context.Background()

	t.Run("first insert creates", func(t *testing.T) {
		outcome, err := repo.Insert(ctx, newTestMessage("m1", "+1555000111", "2025-01-15T10:00:00Z", strptr("hello")))
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, outcome)
	})

	t.Run("same id is duplicate and row is untouched", func(t *testing.T) {
		outcome, err := repo.Insert(ctx, newTestMessage("m1", "+1555999999", "2099-01-01T00:00:00Z", strptr("changed")))
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, outcome)

		var entity MessageEntity
		require.NoError(t, db.rawDB.First(&entity, "message_id = ?", "m1").Error)
		assert.Equal(t, "+1555000111", entity.FromMSISDN)
		assert.Equal(t, "2025-01-15T10:00:00Z", entity.TS)
		require.NotNil(t, entity.Text)
		assert.Equal(t, "hello", *entity.Text)
	})

	t.Run("nil text persists as NULL", func(t *testing.T) {
		mustInsert(t, repo, newTestMessage("m2", "+1555000111", "2025-01-15T11:00:00Z", nil))

		var entity MessageEntity
		require.NoError(t, db.rawDB.First(&entity, "message_id = ?", "m2").Error)
		assert.Nil(t, entity.Text)
	})

	t.Run("created_at is server assigned", func(t *testing.T) {
		mustInsert(t, repo, newTestMessage("m3", "+1555000111", "2025-01-15T12:00:00Z", nil))

		var entity MessageEntity
		require.NoError(t, db.rawDB.First(&entity, "message_id = ?", "m3").Error)
		assert.False(t, entity.CreatedAt.IsZero())
	})
}

func TestMessageRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db.DB)
	ctx := context.Background()

	// two senders, interleaved timestamps, one shared timestamp
	mustInsert(t, repo, newTestMessage("m-b", "+1555000111", "2025-01-15T10:00:00Z", strptr("good morning")))
	mustInsert(t, repo, newTestMessage("m-a", "+1555000111", "2025-01-15T10:00:00Z", strptr("hello world")))
	mustInsert(t, repo, newTestMessage("m-c", "+1555000222", "2025-01-15T11:00:00Z", strptr("hello again")))
	mustInsert(t, repo, newTestMessage("m-d", "+1555000222", "2025-01-15T12:00:00Z", nil))

	t.Run("no filter orders by ts then message_id", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, msgs, 4)
		assert.Equal(t, "m-a", msgs[0].MessageID)
		assert.Equal(t, "m-b", msgs[1].MessageID)
		assert.Equal(t, "m-c", msgs[2].MessageID)
		assert.Equal(t, "m-d", msgs[3].MessageID)
	})

	t.Run("filter by sender", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{From: strptr("+1555000222")})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, msgs, 2)
		assert.Equal(t, "m-c", msgs[0].MessageID)
		assert.Equal(t, "m-d", msgs[1].MessageID)
	})

	t.Run("since is inclusive", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{Since: strptr("2025-01-15T11:00:00Z")})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, msgs, 2)
		assert.Equal(t, "m-c", msgs[0].MessageID)
	})

	t.Run("substring match on text", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{Q: strptr("hello")})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, msgs, 2)
		assert.Equal(t, "m-a", msgs[0].MessageID)
		assert.Equal(t, "m-c", msgs[1].MessageID)
	})

	t.Run("filters compose with AND", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{
			From:  strptr("+1555000222"),
			Since: strptr("2025-01-15T10:30:00Z"),
			Q:     strptr("hello"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, msgs, 1)
		assert.Equal(t, "m-c", msgs[0].MessageID)
	})

	t.Run("total ignores pagination", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, msgs, 2)
		assert.Equal(t, "m-b", msgs[0].MessageID)
		assert.Equal(t, "m-c", msgs[1].MessageID)
	})

	t.Run("offset past the end returns empty page", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{Offset: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, msgs)
	})

	t.Run("out of range limit falls back to default", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			mustInsert(t, repo, newTestMessage(fmt.Sprintf("bulk-%02d", i), "+1555000333", "2025-02-01T00:00:00Z", nil))
		}
		msgs, _, err := repo.List(ctx, model.MessageFilter{Limit: 500})
		require.NoError(t, err)
		assert.Len(t, msgs, 10)

		msgs, _, err = repo.List(ctx, model.MessageFilter{Limit: -1})
		require.NoError(t, err)
		assert.Len(t, msgs, 10)
	})
}

func TestMessageRepository_Stats(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewMessageRepository(db.DB)

		stats, err := repo.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalMessages)
		assert.Equal(t, int64(0), stats.SendersCount)
		assert.Empty(t, stats.MessagesPerSender)
		assert.Nil(t, stats.FirstMessageTS)
		assert.Nil(t, stats.LastMessageTS)
	})

	t.Run("counts and bounds", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewMessageRepository(db.DB)

		mustInsert(t, repo, newTestMessage("s1", "+1555000111", "2025-01-15T10:00:00Z", nil))
		mustInsert(t, repo, newTestMessage("s2", "+1555000111", "2025-01-15T12:00:00Z", nil))
		mustInsert(t, repo, newTestMessage("s3", "+1555000222", "2025-01-15T11:00:00Z", nil))

		stats, err := repo.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalMessages)
		assert.Equal(t, int64(2), stats.SendersCount)
		require.NotNil(t, stats.FirstMessageTS)
		require.NotNil(t, stats.LastMessageTS)
		assert.Equal(t, "2025-01-15T10:00:00Z", *stats.FirstMessageTS)
		assert.Equal(t, "2025-01-15T12:00:00Z", *stats.LastMessageTS)

		require.Len(t, stats.MessagesPerSender, 2)
		assert.Equal(t, model.SenderCount{From: "+1555000111", Count: 2}, stats.MessagesPerSender[0])
		assert.Equal(t, model.SenderCount{From: "+1555000222", Count: 1}, stats.MessagesPerSender[1])
	})

	t.Run("equal counts tie break on sender", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewMessageRepository(db.DB)

		mustInsert(t, repo, newTestMessage("t1", "+1555000222", "2025-01-15T10:00:00Z", nil))
		mustInsert(t, repo, newTestMessage("t2", "+1555000111", "2025-01-15T11:00:00Z", nil))

		stats, err := repo.Stats(context.Background())
		require.NoError(t, err)
		require.Len(t, stats.MessagesPerSender, 2)
		assert.Equal(t, "+1555000111", stats.MessagesPerSender[0].From)
		assert.Equal(t, "+1555000222", stats.MessagesPerSender[1].From)
	})

	t.Run("top senders capped at ten", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewMessageRepository(db.DB)

		for i := 0; i < 12; i++ {
			from := fmt.Sprintf("+1555%07d", i)
			mustInsert(t, repo, newTestMessage(fmt.Sprintf("cap-%02d", i), from, "2025-01-15T10:00:00Z", nil))
		}

		stats, err := repo.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(12), stats.TotalMessages)
		assert.Equal(t, int64(12), stats.SendersCount)
		assert.Len(t, stats.MessagesPerSender, 10)
	})
}

func TestMessageRepository_IsReady(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db.DB)
	ctx := context.Background()

	assert.True(t, repo.IsReady(ctx))

	require.NoError(t, db.rawDB.Migrator().DropTable(&MessageEntity{}))
	assert.False(t, repo.IsReady(ctx))
}
