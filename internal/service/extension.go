package service

import (
	"context"
	"time"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
	"github.com/parley-labs/parley/internal/telemetry"
)

// ExtensionService manages user-defined tool definitions. Header values never
// reach the history store: on save they are moved into the secret store and
// replaced by the mask.
type ExtensionService struct {
	store   store.Store
	secrets SecretStore
	uuidGen UUIDGenerator
}

// NewExtensionService creates a new ExtensionService instance
func NewExtensionService(st store.Store, secrets SecretStore) *ExtensionService {
	return &ExtensionService{store: st, secrets: secrets, uuidGen: &DefaultUUIDGenerator{}}
}

// NewExtensionServiceWithUUIDGen creates an ExtensionService with a custom
// UUID generator (for testing).
func NewExtensionServiceWithUUIDGen(st store.Store, secrets SecretStore, uuidGen UUIDGenerator) *ExtensionService {
	return &ExtensionService{store: st, secrets: secrets, uuidGen: uuidGen}
}

// ExtensionInput carries the caller-editable extension fields.
type ExtensionInput struct {
	Name           string
	Description    string
	ExecutionSteps string
	Headers        []domain.ExtensionHeader
	Functions      []domain.ExtensionFunction
	IsPublished    bool
}

// Create validates and stores a new extension. Validation runs before any
// write, so a rejected extension leaves no record and no secrets behind.
func (s *ExtensionService) Create(ctx context.Context, ident domain.Identity, input ExtensionInput) (*domain.Extension, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExtensionService.Create", telemetry.SpanAttributes{
		UserID:    ident.UserID,
		Operation: "create",
	})
	defer span.End()

	extension := &domain.Extension{
		ID:             s.uuidGen.NewString(),
		Type:           domain.ExtensionType,
		Name:           input.Name,
		Description:    input.Description,
		ExecutionSteps: input.ExecutionSteps,
		OwnerUserID:    ident.UserID,
		Headers:        input.Headers,
		Functions:      input.Functions,
		IsPublished:    ident.IsAdmin && input.IsPublished,
		IsDeleted:      false,
		CreatedAt:      time.Now().UTC(),
	}
	s.assignIDs(extension)

	if err := domain.ValidateExtension(extension); err != nil {
		return nil, err
	}

	if err := s.secureHeaders(ctx, extension); err != nil {
		return nil, err
	}

	rec, err := extensionRecord(extension)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertOne(ctx, rec); err != nil {
		return nil, err
	}

	return extension, nil
}

// Update replaces an existing extension. Only the owner or an admin may
// write; only an admin may change the published flag. Validation runs against
// the fully merged entity before anything is persisted, so a rejected update
// leaves the stored record untouched.
func (s *ExtensionService) Update(ctx context.Context, ident domain.Identity, extensionID string, input ExtensionInput) (*domain.Extension, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExtensionService.Update", telemetry.SpanAttributes{
		UserID:    ident.UserID,
		Operation: "update",
	})
	defer span.End()

	current, err := s.findOwned(ctx, ident, extensionID)
	if err != nil {
		return nil, err
	}

	published := current.IsPublished
	if ident.IsAdmin {
		published = input.IsPublished
	}

	extension := &domain.Extension{
		ID:             current.ID,
		Type:           domain.ExtensionType,
		Name:           input.Name,
		Description:    input.Description,
		ExecutionSteps: input.ExecutionSteps,
		OwnerUserID:    current.OwnerUserID,
		Headers:        input.Headers,
		Functions:      input.Functions,
		IsPublished:    published,
		IsDeleted:      false,
		CreatedAt:      current.CreatedAt,
	}
	s.assignIDs(extension)

	if err := domain.ValidateExtension(extension); err != nil {
		return nil, err
	}

	if err := s.secureHeaders(ctx, extension); err != nil {
		return nil, err
	}

	rec, err := extensionRecord(extension)
	if err != nil {
		return nil, err
	}

	res, err := s.store.UpdateOne(ctx, store.Filter{
		ID:   extension.ID,
		Type: string(domain.ExtensionType),
	}, rec, false)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrExtensionNotFound
	}

	return extension, nil
}

// FindForUser fetches one live extension. Published extensions are readable
// by anyone; unpublished ones only by their owner or an admin.
func (s *ExtensionService) FindForUser(ctx context.Context, ident domain.Identity, extensionID string) (*domain.Extension, error) {
	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:        extensionID,
		Type:      string(domain.ExtensionType),
		IsDeleted: falseValue(),
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrExtensionNotFound
	}

	extension, err := extensionFromRecord(rec)
	if err != nil {
		return nil, err
	}

	if !extension.IsPublished && !ident.CanAccess(extension.OwnerUserID) {
		return nil, domain.ErrNotExtensionOwner
	}

	return extension, nil
}

// FindAllForUser lists the extensions the caller can attach to a thread:
// their own plus every published one.
func (s *ExtensionService) FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.Extension, error) {
	records, err := s.store.Find(ctx, store.Filter{
		Type:          string(domain.ExtensionType),
		VisibleToUser: ident.UserID,
		IsDeleted:     falseValue(),
	}, store.FindOptions{Sort: store.SortCreatedDesc})
	if err != nil {
		return nil, err
	}

	extensions := make([]*domain.Extension, 0, len(records))
	for i := range records {
		e, err := extensionFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		extensions = append(extensions, e)
	}
	return extensions, nil
}

// SoftDelete retires an extension after removing its header secrets. Secrets
// go first so a partial failure can only leave an extension whose secrets are
// gone, never orphaned secrets with no extension pointing at them.
func (s *ExtensionService) SoftDelete(ctx context.Context, ident domain.Identity, extensionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "ExtensionService.SoftDelete", telemetry.SpanAttributes{
		UserID:    ident.UserID,
		Operation: "delete",
	})
	defer span.End()

	extension, err := s.findOwned(ctx, ident, extensionID)
	if err != nil {
		return err
	}

	for _, h := range extension.Headers {
		if err := s.secrets.DeleteSecret(ctx, h.ID); err != nil {
			span.SetError(err)
			return err
		}
	}

	if _, err := s.store.MarkDeleted(ctx, extension.ID); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// HeaderValue resolves the real value behind a masked header for invocation.
func (s *ExtensionService) HeaderValue(ctx context.Context, ident domain.Identity, extensionID, headerID string) (string, error) {
	extension, err := s.FindForUser(ctx, ident, extensionID)
	if err != nil {
		return "", err
	}

	for _, h := range extension.Headers {
		if h.ID == headerID {
			return s.secrets.GetSecret(ctx, h.ID)
		}
	}
	return "", domain.ErrSecretNotFound
}

// findOwned fetches an extension for a write operation: owner or admin only,
// regardless of the published flag.
func (s *ExtensionService) findOwned(ctx context.Context, ident domain.Identity, extensionID string) (*domain.Extension, error) {
	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:        extensionID,
		Type:      string(domain.ExtensionType),
		IsDeleted: falseValue(),
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrExtensionNotFound
	}

	extension, err := extensionFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if !ident.CanAccess(extension.OwnerUserID) {
		return nil, domain.ErrNotExtensionOwner
	}

	return extension, nil
}

// assignIDs gives the extension and its nested parts ids exactly once.
// Incoming headers and functions that already carry an id keep it, so header
// secrets stay addressable across updates.
func (s *ExtensionService) assignIDs(e *domain.Extension) {
	for i := range e.Headers {
		if e.Headers[i].ID == "" {
			e.Headers[i].ID = s.uuidGen.NewString()
		}
	}
	for i := range e.Functions {
		if e.Functions[i].ID == "" {
			e.Functions[i].ID = s.uuidGen.NewString()
		}
	}
}

// secureHeaders moves plaintext header values into the secret store and masks
// them in the entity. A value that is already the mask is left alone so
// updates do not overwrite the stored secret with the mask itself.
func (s *ExtensionService) secureHeaders(ctx context.Context, e *domain.Extension) error {
	for i := range e.Headers {
		h := &e.Headers[i]
		if h.Value == "" || h.Value == domain.SecretMask {
			continue
		}
		if err := s.secrets.SetSecret(ctx, h.ID, h.Value); err != nil {
			return err
		}
		h.Value = domain.SecretMask
	}
	return nil
}
