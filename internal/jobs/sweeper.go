package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
)

// Cascader re-runs the delete cascade for one thread.
type Cascader interface {
	CompleteCascade(ctx context.Context, threadID string) error
}

// CascadeSweeper finds deleted threads that still own live records and
// re-runs their cascade. The cascade flips the thread record last, so a
// deleted thread with live children can only come from a write that raced the
// cascade (for example a message appended mid-delete); each step is
// idempotent, so re-running converges.
type CascadeSweeper struct {
	store    store.Store
	cascader Cascader
}

// NewCascadeSweeper creates a new CascadeSweeper instance
func NewCascadeSweeper(st store.Store, cascader Cascader) *CascadeSweeper {
	return &CascadeSweeper{store: st, cascader: cascader}
}

// ProcessJobs implements the JobProcessor interface
func (s *CascadeSweeper) ProcessJobs(ctx context.Context) error {
	deleted, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.ChatThreadType),
		IsDeleted: trueValue(),
	}, store.FindOptions{})
	if err != nil {
		return fmt.Errorf("failed to list deleted threads: %w", err)
	}

	for i := range deleted {
		threadID := deleted[i].ID

		live, err := s.hasLiveChildren(ctx, threadID)
		if err != nil {
			log.Printf("Error checking thread %s for live records: %v", threadID, err)
			continue
		}
		if !live {
			continue
		}

		log.Printf("Resuming delete cascade for thread %s", threadID)
		if err := s.cascader.CompleteCascade(ctx, threadID); err != nil {
			log.Printf("Error resuming cascade for thread %s: %v", threadID, err)
		}
	}

	return nil
}

func (s *CascadeSweeper) hasLiveChildren(ctx context.Context, threadID string) (bool, error) {
	for _, t := range []domain.RecordType{
		domain.ChatMessageType,
		domain.ChatDocumentType,
		domain.DocumentChunkType,
	} {
		records, err := s.store.Find(ctx, store.Filter{
			Type:      string(t),
			ThreadID:  threadID,
			IsDeleted: falseValue(),
		}, store.FindOptions{Limit: 1})
		if err != nil {
			return false, err
		}
		if len(records) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func falseValue() *bool {
	v := false
	return &v
}

func trueValue() *bool {
	v := true
	return &v
}
