package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
)

// CitationService persists retrieval hits so assistant messages can reference
// them by id instead of inlining source content.
type CitationService struct {
	store   store.Store
	uuidGen UUIDGenerator
}

// NewCitationService creates a new CitationService instance
func NewCitationService(st store.Store) *CitationService {
	return &CitationService{store: st, uuidGen: &DefaultUUIDGenerator{}}
}

// NewCitationServiceWithUUIDGen creates a CitationService with a custom UUID
// generator (for testing).
func NewCitationServiceWithUUIDGen(st store.Store, uuidGen UUIDGenerator) *CitationService {
	return &CitationService{store: st, uuidGen: uuidGen}
}

// CreateMany stores one citation per source payload and returns them in input
// order. Each insert is independent; a failure partway leaves the earlier
// citations in place, which is harmless because nothing references them yet.
func (s *CitationService) CreateMany(ctx context.Context, ident domain.Identity, sources []json.RawMessage) ([]*domain.ChatCitation, error) {
	now := time.Now().UTC()

	citations := make([]*domain.ChatCitation, 0, len(sources))
	for _, src := range sources {
		citation := &domain.ChatCitation{
			ID:            s.uuidGen.NewString(),
			Type:          domain.ChatCitationType,
			OwnerUserID:   ident.UserID,
			SourceContent: src,
			IsDeleted:     false,
			CreatedAt:     now,
		}
		if err := domain.ValidateChatCitation(citation); err != nil {
			return nil, err
		}

		rec, err := citationRecord(citation)
		if err != nil {
			return nil, err
		}
		if err := s.store.InsertOne(ctx, rec); err != nil {
			return nil, err
		}
		citations = append(citations, citation)
	}

	return citations, nil
}

// FindForUser fetches one live citation and authorizes the caller against its
// owner.
func (s *CitationService) FindForUser(ctx context.Context, ident domain.Identity, citationID string) (*domain.ChatCitation, error) {
	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:        citationID,
		Type:      string(domain.ChatCitationType),
		IsDeleted: falseValue(),
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrCitationNotFound
	}

	citation, err := citationFromRecord(rec)
	if err != nil {
		return nil, err
	}

	if !ident.CanAccess(citation.OwnerUserID) {
		return nil, domain.NewDomainError(domain.ErrCodeUnauthorized, "citation is owned by another user")
	}

	return citation, nil
}
