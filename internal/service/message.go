package service

import (
	"context"
	"time"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
	"github.com/parley-labs/parley/internal/telemetry"
)

// DefaultTopMessages is how many recent messages FindTopForThread returns
// when the caller does not say.
const DefaultTopMessages = 30

// MessageService handles chat message persistence within a thread.
type MessageService struct {
	store   store.Store
	uuidGen UUIDGenerator
}

// NewMessageService creates a new MessageService instance
func NewMessageService(st store.Store) *MessageService {
	return &MessageService{store: st, uuidGen: &DefaultUUIDGenerator{}}
}

// NewMessageServiceWithUUIDGen creates a MessageService with a custom UUID
// generator (for testing).
func NewMessageServiceWithUUIDGen(st store.Store, uuidGen UUIDGenerator) *MessageService {
	return &MessageService{store: st, uuidGen: uuidGen}
}

// CreateMessageInput represents the input for appending a message
type CreateMessageInput struct {
	ThreadID        string
	Role            domain.ChatRole
	Name            string
	Content         string
	MultiModalImage string
}

// Create appends a message to a thread. The id and creation time are
// server-assigned; persistence is an idempotent upsert keyed by the new id.
func (s *MessageService) Create(ctx context.Context, ident domain.Identity, input CreateMessageInput) (*domain.ChatMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "MessageService.Create", telemetry.SpanAttributes{
		ThreadID:  input.ThreadID,
		UserID:    ident.UserID,
		Operation: "create",
	})
	defer span.End()

	message := &domain.ChatMessage{
		ID:              s.uuidGen.NewString(),
		Type:            domain.ChatMessageType,
		ThreadID:        input.ThreadID,
		OwnerUserID:     ident.UserID,
		Role:            input.Role,
		Name:            input.Name,
		Content:         input.Content,
		MultiModalImage: input.MultiModalImage,
		IsDeleted:       false,
		CreatedAt:       time.Now().UTC(),
	}

	return s.Upsert(ctx, message)
}

// Upsert writes the message keyed by id, creating it when absent.
func (s *MessageService) Upsert(ctx context.Context, message *domain.ChatMessage) (*domain.ChatMessage, error) {
	if err := domain.ValidateChatMessage(message); err != nil {
		return nil, err
	}

	rec, err := messageRecord(message)
	if err != nil {
		return nil, err
	}

	stored, err := store.UpsertReturning(ctx, s.store, store.Filter{ID: message.ID}, rec)
	if err != nil {
		return nil, err
	}

	return messageFromRecord(stored)
}

// FindAllForThread lists the caller's live messages on a thread in
// chronological order. Callers authorize the thread itself first; messages
// flipped mid-cascade simply drop out of this view.
func (s *MessageService) FindAllForThread(ctx context.Context, ident domain.Identity, threadID string) ([]*domain.ChatMessage, error) {
	return s.find(ctx, ident, threadID, store.FindOptions{Sort: store.SortCreatedAsc})
}

// FindTopForThread lists the caller's most recent messages, newest first.
func (s *MessageService) FindTopForThread(ctx context.Context, ident domain.Identity, threadID string, top int) ([]*domain.ChatMessage, error) {
	if top <= 0 {
		top = DefaultTopMessages
	}
	return s.find(ctx, ident, threadID, store.FindOptions{Sort: store.SortCreatedDesc, Limit: top})
}

func (s *MessageService) find(ctx context.Context, ident domain.Identity, threadID string, opts store.FindOptions) ([]*domain.ChatMessage, error) {
	records, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.ChatMessageType),
		ThreadID:  threadID,
		OwnerID:   ident.UserID,
		IsDeleted: falseValue(),
	}, opts)
	if err != nil {
		return nil, err
	}

	messages := make([]*domain.ChatMessage, 0, len(records))
	for i := range records {
		m, err := messageFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}
