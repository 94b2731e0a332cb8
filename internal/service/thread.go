package service

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
	"github.com/parley-labs/parley/internal/telemetry"
)

// ThreadService handles chat thread lifecycle, including the cascading soft
// delete of a thread's ownership subtree.
type ThreadService struct {
	store   store.Store
	index   SearchIndex
	pool    *ants.Pool
	uuidGen UUIDGenerator
}

// NewThreadService creates a ThreadService. The ants pool bounds fan-out
// concurrency inside one cascade step; pass nil to flip records
// sequentially.
func NewThreadService(st store.Store, index SearchIndex, pool *ants.Pool) *ThreadService {
	return &ThreadService{
		store:   st,
		index:   index,
		pool:    pool,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// NewThreadServiceWithUUIDGen creates a ThreadService with a custom UUID
// generator (for testing).
func NewThreadServiceWithUUIDGen(st store.Store, index SearchIndex, pool *ants.Pool, uuidGen UUIDGenerator) *ThreadService {
	return &ThreadService{
		store:   st,
		index:   index,
		pool:    pool,
		uuidGen: uuidGen,
	}
}

// Create starts a new, empty thread for the caller.
func (s *ThreadService) Create(ctx context.Context, ident domain.Identity, useName string) (*domain.ChatThread, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.Create", telemetry.SpanAttributes{
		UserID:    ident.UserID,
		Operation: "create",
	})
	defer span.End()

	thread := domain.NewChatThread(s.uuidGen.NewString(), ident.UserID, useName, time.Now().UTC())
	if err := domain.ValidateChatThread(thread); err != nil {
		return nil, err
	}

	rec, err := threadRecord(thread)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertOne(ctx, rec); err != nil {
		return nil, err
	}

	return thread, nil
}

// FindAllForUser lists the caller's live threads, newest first.
func (s *ThreadService) FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.ChatThread, error) {
	records, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.ChatThreadType),
		OwnerID:   ident.UserID,
		IsDeleted: falseValue(),
	}, store.FindOptions{Sort: store.SortCreatedDesc})
	if err != nil {
		return nil, err
	}

	threads := make([]*domain.ChatThread, 0, len(records))
	for i := range records {
		t, err := threadFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}

// FindForUser fetches one live thread and authorizes the caller against its
// owner. Admins may operate on any thread.
func (s *ThreadService) FindForUser(ctx context.Context, ident domain.Identity, threadID string) (*domain.ChatThread, error) {
	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:        threadID,
		Type:      string(domain.ChatThreadType),
		IsDeleted: falseValue(),
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrThreadNotFound
	}

	thread, err := threadFromRecord(rec)
	if err != nil {
		return nil, err
	}

	if !ident.CanAccess(thread.OwnerUserID) {
		return nil, domain.ErrNotThreadOwner
	}

	return thread, nil
}

// Upsert replaces the thread record keyed by id, creating it when absent.
// This is a blind last-writer-wins write: concurrent writers to the same
// thread can lose updates, a documented limitation of the store contract.
func (s *ThreadService) Upsert(ctx context.Context, thread *domain.ChatThread) (*domain.ChatThread, error) {
	if err := domain.ValidateChatThread(thread); err != nil {
		return nil, err
	}

	rec, err := threadRecord(thread)
	if err != nil {
		return nil, err
	}

	stored, err := store.UpsertReturning(ctx, s.store, store.Filter{ID: thread.ID}, rec)
	if err != nil {
		return nil, err
	}

	return threadFromRecord(stored)
}

// Rename sets the thread title, truncated to the title cap.
func (s *ThreadService) Rename(ctx context.Context, ident domain.Identity, threadID, title string) (*domain.ChatThread, error) {
	thread, err := s.FindForUser(ctx, ident, threadID)
	if err != nil {
		return nil, err
	}

	thread.Name = domain.TruncateName(title)
	return s.Upsert(ctx, thread)
}

// SetBookmarked toggles the caller's bookmark on the thread.
func (s *ThreadService) SetBookmarked(ctx context.Context, ident domain.Identity, threadID string, bookmarked bool) (*domain.ChatThread, error) {
	thread, err := s.FindForUser(ctx, ident, threadID)
	if err != nil {
		return nil, err
	}

	thread.Bookmarked = bookmarked
	return s.Upsert(ctx, thread)
}

// AddExtension attaches an extension to the thread. Attaching an extension
// that is already present does not write.
func (s *ThreadService) AddExtension(ctx context.Context, ident domain.Identity, threadID, extensionID string) (*domain.ChatThread, error) {
	thread, err := s.FindForUser(ctx, ident, threadID)
	if err != nil {
		return nil, err
	}

	if thread.HasExtension(extensionID) {
		return thread, nil
	}

	thread.AddExtension(extensionID)
	return s.Upsert(ctx, thread)
}

// RemoveExtension detaches an extension from the thread.
func (s *ThreadService) RemoveExtension(ctx context.Context, ident domain.Identity, threadID, extensionID string) (*domain.ChatThread, error) {
	thread, err := s.FindForUser(ctx, ident, threadID)
	if err != nil {
		return nil, err
	}

	thread.RemoveExtension(extensionID)
	return s.Upsert(ctx, thread)
}

// SoftDelete drives the thread and everything it owns through the cascade:
//
//	messages -> index purge -> documents -> thread
//
// Every step is an idempotent, monotonic flag flip or an idempotent purge,
// so the whole call is safe to re-invoke after a partial failure. The store
// offers no multi-record transaction; the consistency window where some
// dependents are flipped and others are not is accepted and resolved by
// re-running.
func (s *ThreadService) SoftDelete(ctx context.Context, ident domain.Identity, threadID string) error {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.SoftDelete", telemetry.SpanAttributes{
		ThreadID:  threadID,
		UserID:    ident.UserID,
		Operation: "delete",
	})
	defer span.End()

	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:   threadID,
		Type: string(domain.ChatThreadType),
	})
	if err != nil {
		span.SetError(err)
		return err
	}
	if rec == nil {
		return domain.ErrThreadNotFound
	}

	thread, err := threadFromRecord(rec)
	if err != nil {
		return err
	}
	if !ident.CanAccess(thread.OwnerUserID) {
		return domain.ErrNotThreadOwner
	}

	if err := s.CompleteCascade(ctx, threadID); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// CompleteCascade runs the delete cascade for a thread without
// authorization. It is shared by SoftDelete and by the sweeper that resumes
// interrupted cascades.
func (s *ThreadService) CompleteCascade(ctx context.Context, threadID string) error {
	if err := s.deleteMessages(ctx, threadID); err != nil {
		return err
	}

	if err := s.deleteDocuments(ctx, threadID); err != nil {
		return err
	}

	// The thread record is the entry point for every read path, so it is
	// invalidated last: readers may see a live thread with some children
	// already flipped, never a deleted thread with live children surfacing
	// through it.
	if _, err := s.store.MarkDeleted(ctx, threadID); err != nil {
		return err
	}

	return nil
}

func (s *ThreadService) deleteMessages(ctx context.Context, threadID string) error {
	records, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.ChatMessageType),
		ThreadID:  threadID,
		IsDeleted: falseValue(),
	}, store.FindOptions{})
	if err != nil {
		return err
	}

	return s.flipAll(ctx, recordIDs(records))
}

func (s *ThreadService) deleteDocuments(ctx context.Context, threadID string) error {
	docs, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.ChatDocumentType),
		ThreadID:  threadID,
		IsDeleted: falseValue(),
	}, store.FindOptions{})
	if err != nil {
		return err
	}

	chunks, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.DocumentChunkType),
		ThreadID:  threadID,
		IsDeleted: falseValue(),
	}, store.FindOptions{})
	if err != nil {
		return err
	}

	// Purge the index before flipping records: a crash in between leaves
	// documents still live in the store and re-deletable, never purged
	// locally but live in the index.
	if len(docs) > 0 || len(chunks) > 0 {
		if err := s.index.DeleteByThread(ctx, threadID); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeExternalService, "search index purge failed", err)
		}
	}

	if err := s.flipAll(ctx, recordIDs(docs)); err != nil {
		return err
	}
	return s.flipAll(ctx, recordIDs(chunks))
}

// flipAll marks every id deleted, fanning out over the worker pool when one
// is configured. The first error wins; all flips are attempted regardless
// because each is independently idempotent.
func (s *ThreadService) flipAll(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, id := range ids {
		id := id
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if _, err := s.store.MarkDeleted(ctx, id); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}

		if s.pool != nil {
			if err := s.pool.Submit(task); err == nil {
				continue
			}
		}
		task()
	}

	wg.Wait()
	return firstErr
}

func recordIDs(records []store.Record) []string {
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, records[i].ID)
	}
	return ids
}
