package store

import (
	"context"

	"github.com/parley-labs/parley/internal/domain"
)

// Upsert performs the insert-or-replace pattern used throughout the
// services: after a successful call exactly one record exists for the
// filter's natural key. Concurrent callers racing on the same key converge
// to a single last-writer-wins winner; there is no application-level merge.
//
// If the store acknowledges neither a modification nor a fresh insert the
// call fails with a PERSISTENCE_INCONSISTENCY error rather than retrying.
func Upsert(ctx context.Context, s Store, f Filter, rec Record) (UpdateResult, error) {
	res, err := s.UpdateOne(ctx, f, rec, true)
	if err != nil {
		return UpdateResult{}, err
	}

	if res.ModifiedCount == 0 && res.UpsertedID == "" {
		return UpdateResult{}, domain.ErrUpsertNotApplied
	}

	return res, nil
}

// UpsertReturning is Upsert with the persisted record handed back, for
// callers that need the stored shape.
func UpsertReturning(ctx context.Context, s Store, f Filter, rec Record) (*Record, error) {
	stored, err := s.FindOneAndUpdate(ctx, f, rec, true)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		return nil, domain.ErrUpsertNotApplied
	}

	return stored, nil
}
