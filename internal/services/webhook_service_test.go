package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/webhook-gateway/internal/model"
	"github.com/nimasrn/webhook-gateway/internal/repository"
	"github.com/nimasrn/webhook-gateway/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Insert(ctx context.Context, msg *model.Message) (repository.InsertOutcome, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(repository.InsertOutcome), args.Error(1)
}

type MockDedupeCache struct {
	mock.Mock
}

func (m *MockDedupeCache) Seen(ctx context.Context, messageID string) bool {
	args := m.Called(ctx, messageID)
	return args.Bool(0)
}

func (m *MockDedupeCache) MarkSeen(ctx context.Context, messageID string) {
	m.Called(ctx, messageID)
}

func signedBody(body string) ([]byte, string) {
	raw := []byte(body)
	return raw, webhook.Sign(webhook.Normalize(raw), testSecret)
}

func TestWebhookService_Process_Created(t *testing.T) {
	store := new(MockMessageStore)
	ctx := context.Background()
	service := NewWebhookService(store, nil, testSecret)

	body, sig := signedBody(`{"message_id":"m1","from":"+1555000111","to":"+1555000222","ts":"2025-01-15T10:00:00Z","text":"hello"}`)

	store.On("Insert", ctx, mock.MatchedBy(func(msg *model.Message) bool {
		return msg.MessageID == "m1" && msg.From == "+1555000111"
	})).Return(repository.OutcomeCreated, nil)

	result, err := service.Process(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, repository.OutcomeCreated, result.Outcome)
	assert.Equal(t, "m1", result.MessageID)

	store.AssertExpectations(t)
}

func TestWebhookService_Process_Duplicate(t *testing.T) {
	store := new(MockMessageStore)
	ctx := context.Background()
	service := NewWebhookService(store, nil, testSecret)

	body, sig := signedBody(`{"message_id":"m1","from":"+1555000111","to":"+1555000222","ts":"2025-01-15T10:00:00Z"}`)

	store.On("Insert", ctx, mock.Anything).Return(repository.OutcomeDuplicate, nil)

	result, err := service.Process(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, repository.OutcomeDuplicate, result.Outcome)
}

func TestWebhookService_Process_InvalidSignature(t *testing.T) {
	store := new(MockMessageStore)
	ctx := context.Background()
	service := NewWebhookService(store, nil, testSecret)

	body := []byte(`{"message_id":"m1","from":"+1555000111","to":"+1555000222","ts":"2025-01-15T10:00:00Z"}`)

	result, err := service.Process(ctx, body, "0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, result)

	// terminal: the store is never touched
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_SignatureOverNormalizedBytes(t *testing.T) {
	store := new(MockMessageStore)
	ctx := context.Background()
	service := NewWebhookService(store, nil, testSecret)

	// near-JSON body, signature computed over the normalized form
	raw := []byte(`{message_id: m5, from: +1555000111, to: +1555000222, ts: 2025-01-15T10:00:00Z, text: hi there}`)
	sig := webhook.Sign(webhook.Normalize(raw), testSecret)

	store.On("Insert", ctx, mock.MatchedBy(func(msg *model.Message) bool {
		return msg.MessageID == "m5" && msg.Text != nil && *msg.Text == "hi there"
	})).Return(repository.OutcomeCreated, nil)

	result, err := service.Process(ctx, raw, sig)
	require.NoError(t, err)
	assert.Equal(t, "m5", result.MessageID)

	// a signature over the raw bytes must not verify
	rawSig := webhook.Sign(raw, testSecret)
	_, err = service.Process(ctx, raw, rawSig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	store.AssertExpectations(t)
}

func TestWebhookService_Process_ValidationFailure(t *testing.T) {
	store := new(MockMessageStore)
	ctx := context.Background()
	service := NewWebhookService(store, nil, testSecret)

	// valid signature, invalid payload
	body, sig := signedBody(`{"message_id":"m1","from":"not-a-number","to":"+1555000222","ts":"2025-01-15T10:00:00Z"}`)

	result, err := service.Process(ctx, body, sig)
	require.Error(t, err)
	assert.Nil(t, result)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "from", verr.Fields[0].Field)

	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestWebhookService_Process_StorageError(t *testing.T) {
	store := new(MockMessageStore)
	ctx := context.Background()
	service := NewWebhookService(store, nil, testSecret)

	body, sig := signedBody(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z"}`)

	dbErr := errors.New("connection refused")
	store.On("Insert", ctx, mock.Anything).Return(repository.OutcomeCreated, dbErr)

	result, err := service.Process(ctx, body, sig)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookService_Process_DedupeCache(t *testing.T) {
	t.Run("cache hit short circuits the store", func(t *testing.T) {
		store := new(MockMessageStore)
		cache := new(MockDedupeCache)
		ctx := context.Background()
		service := NewWebhookService(store, cache, testSecret)

		body, sig := signedBody(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z"}`)

		cache.On("Seen", ctx, "m1").Return(true)

		result, err := service.Process(ctx, body, sig)
		require.NoError(t, err)
		assert.Equal(t, repository.OutcomeDuplicate, result.Outcome)

		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		cache.AssertExpectations(t)
	})

	t.Run("cache miss inserts then marks", func(t *testing.T) {
		store := new(MockMessageStore)
		cache := new(MockDedupeCache)
		ctx := context.Background()
		service := NewWebhookService(store, cache, testSecret)

		body, sig := signedBody(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z"}`)

		cache.On("Seen", ctx, "m1").Return(false)
		store.On("Insert", ctx, mock.Anything).Return(repository.OutcomeCreated, nil)
		cache.On("MarkSeen", ctx, "m1").Return()

		result, err := service.Process(ctx, body, sig)
		require.NoError(t, err)
		assert.Equal(t, repository.OutcomeCreated, result.Outcome)

		store.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}
