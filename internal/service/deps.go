package service

import (
	"context"

	"github.com/google/uuid"
)

// SearchIndex is the external retrieval index consumed by the thread and
// document services. Both purge and index creation must be idempotent:
// purging a thread with no indexed documents is a no-op, and EnsureIndex may
// be called on every upload.
type SearchIndex interface {
	EnsureIndex(ctx context.Context) error
	IndexChunks(ctx context.Context, threadID, fileName string, chunks []string) error
	DeleteByThread(ctx context.Context, threadID string) error
}

// TextExtractor turns raw uploaded bytes into an ordered sequence of
// paragraph strings. Implementations may call slow remote services.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) ([]string, error)
}

// SecretStore keeps extension header values out of the history store.
type SecretStore interface {
	SetSecret(ctx context.Context, id, value string) error
	GetSecret(ctx context.Context, id string) (string, error)
	DeleteSecret(ctx context.Context, id string) error
}

// BlobArchive persists raw upload bytes before extraction, for audit and
// re-processing. Optional; ingestion proceeds without it.
type BlobArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
