// Package store implements the history document store: one collection of
// heterogeneous records discriminated by a type tag, with per-record atomic
// operations only. No multi-record transactions are offered or used.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Record is the persistence envelope shared by every entity. Doc carries the
// full entity JSON; the remaining fields are the filterable columns lifted
// out of it.
type Record struct {
	ID         string
	Type       string
	ThreadID   string
	OwnerID    string
	FileName   string
	ChunkIndex int
	Published  bool
	IsDeleted  bool
	CreatedAt  time.Time
	Doc        json.RawMessage
}

// Filter selects records. Zero-valued fields are ignored. VisibleToUser
// matches records owned by that user or published, mirroring the
// published-or-owned listing query.
type Filter struct {
	ID            string
	Type          string
	ThreadID      string
	OwnerID       string
	FileName      string
	ChunkIndex    *int
	IsDeleted     *bool
	VisibleToUser string
}

// Sort orders Find results by creation time.
type Sort int

const (
	SortNone Sort = iota
	SortCreatedAsc
	SortCreatedDesc
)

// FindOptions bounds and orders a Find.
type FindOptions struct {
	Sort  Sort
	Limit int
	Skip  int
}

// UpdateResult reports what a (possibly upserting) update did. Exactly one
// of ModifiedCount/UpsertedID is set on success.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedID    string
}

// Store is the per-record-atomic persistence contract consumed by the
// services. The production implementation is Postgres-backed; tests use
// in-memory fakes.
type Store interface {
	Find(ctx context.Context, f Filter, opts FindOptions) ([]Record, error)
	FindOne(ctx context.Context, f Filter) (*Record, error)
	InsertOne(ctx context.Context, rec Record) error
	// UpdateOne replaces the record selected by f with rec. With upsert set
	// it inserts when no record matches; the natural key is taken from the
	// filter (id, or (threadId, fileName[, chunkIndex]) for document
	// records).
	UpdateOne(ctx context.Context, f Filter, rec Record, upsert bool) (UpdateResult, error)
	// FindOneAndUpdate is UpdateOne returning the record as persisted.
	FindOneAndUpdate(ctx context.Context, f Filter, rec Record, upsert bool) (*Record, error)
	// MarkDeleted flips the record's isDeleted flag to true. The flip is
	// monotonic and idempotent; a missing record reports zero rows, which
	// callers treat as already satisfied.
	MarkDeleted(ctx context.Context, id string) (int64, error)
	DeleteOne(ctx context.Context, f Filter) (int64, error)
}
