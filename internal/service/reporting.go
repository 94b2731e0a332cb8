package service

import (
	"context"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
)

// ReportingService exposes admin-only views across every user's history.
// Deleted records are included: reporting reads the full audit trail, not the
// user-facing live view.
type ReportingService struct {
	store store.Store
}

// NewReportingService creates a new ReportingService instance
func NewReportingService(st store.Store) *ReportingService {
	return &ReportingService{store: st}
}

// FindAllThreads pages through every chat thread, newest first.
func (s *ReportingService) FindAllThreads(ctx context.Context, ident domain.Identity, limit, offset int) ([]*domain.ChatThread, error) {
	if !ident.IsAdmin {
		return nil, domain.ErrAdminOnly
	}

	records, err := s.store.Find(ctx, store.Filter{
		Type: string(domain.ChatThreadType),
	}, store.FindOptions{
		Sort:  store.SortCreatedDesc,
		Limit: limit,
		Skip:  offset,
	})
	if err != nil {
		return nil, err
	}

	threads := make([]*domain.ChatThread, 0, len(records))
	for i := range records {
		thread, err := threadFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

// FindAllMessages returns every message on a thread in conversation order,
// regardless of who owns the thread.
func (s *ReportingService) FindAllMessages(ctx context.Context, ident domain.Identity, threadID string) ([]*domain.ChatMessage, error) {
	if !ident.IsAdmin {
		return nil, domain.ErrAdminOnly
	}

	records, err := s.store.Find(ctx, store.Filter{
		Type:     string(domain.ChatMessageType),
		ThreadID: threadID,
	}, store.FindOptions{Sort: store.SortCreatedAsc})
	if err != nil {
		return nil, err
	}

	messages := make([]*domain.ChatMessage, 0, len(records))
	for i := range records {
		message, err := messageFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
