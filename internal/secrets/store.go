// Package secrets keeps extension header values as dedicated SECRET records,
// separate from the entities that reference them by id.
package secrets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
)

type secretDoc struct {
	ID        string            `json:"id"`
	Type      domain.RecordType `json:"type"`
	Value     string            `json:"value"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Store persists secrets in the history store under the SECRET record type.
// Deletion is hard: a removed secret leaves no tombstone.
type Store struct {
	store store.Store
}

// NewStore creates a new secret Store.
func NewStore(st store.Store) *Store {
	return &Store{store: st}
}

// SetSecret writes the value keyed by id, replacing any previous value.
func (s *Store) SetSecret(ctx context.Context, id, value string) error {
	doc, err := json.Marshal(secretDoc{
		ID:        id,
		Type:      domain.SecretType,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode secret", err)
	}

	_, err = store.Upsert(ctx, s.store, store.Filter{ID: id}, store.Record{
		ID:        id,
		Type:      string(domain.SecretType),
		CreatedAt: time.Now().UTC(),
		Doc:       doc,
	})
	return err
}

// GetSecret resolves the value behind an id.
func (s *Store) GetSecret(ctx context.Context, id string) (string, error) {
	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:   id,
		Type: string(domain.SecretType),
	})
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", domain.ErrSecretNotFound
	}

	var doc secretDoc
	if err := json.Unmarshal(rec.Doc, &doc); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode secret", err)
	}
	return doc.Value, nil
}

// DeleteSecret removes the secret. Deleting an absent secret succeeds.
func (s *Store) DeleteSecret(ctx context.Context, id string) error {
	_, err := s.store.DeleteOne(ctx, store.Filter{
		ID:   id,
		Type: string(domain.SecretType),
	})
	return err
}
