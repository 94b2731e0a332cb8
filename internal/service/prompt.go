package service

import (
	"context"
	"time"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
)

// PromptService manages reusable prompt templates. Every write is admin-only;
// published prompts are readable by everyone.
type PromptService struct {
	store   store.Store
	uuidGen UUIDGenerator
}

// NewPromptService creates a new PromptService instance
func NewPromptService(st store.Store) *PromptService {
	return &PromptService{store: st, uuidGen: &DefaultUUIDGenerator{}}
}

// NewPromptServiceWithUUIDGen creates a PromptService with a custom UUID
// generator (for testing).
func NewPromptServiceWithUUIDGen(st store.Store, uuidGen UUIDGenerator) *PromptService {
	return &PromptService{store: st, uuidGen: uuidGen}
}

// PromptInput carries the caller-editable prompt fields.
type PromptInput struct {
	Name        string
	Description string
	IsPublished bool
}

// Create stores a new prompt template.
func (s *PromptService) Create(ctx context.Context, ident domain.Identity, input PromptInput) (*domain.Prompt, error) {
	if !ident.IsAdmin {
		return nil, domain.ErrAdminOnly
	}

	prompt := &domain.Prompt{
		ID:          s.uuidGen.NewString(),
		Type:        domain.PromptType,
		Name:        input.Name,
		Description: input.Description,
		OwnerUserID: ident.UserID,
		IsPublished: input.IsPublished,
		IsDeleted:   false,
		CreatedAt:   time.Now().UTC(),
	}
	if err := domain.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	rec, err := promptRecord(prompt)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertOne(ctx, rec); err != nil {
		return nil, err
	}

	return prompt, nil
}

// Update replaces an existing prompt, keeping its owner and creation time.
func (s *PromptService) Update(ctx context.Context, ident domain.Identity, promptID string, input PromptInput) (*domain.Prompt, error) {
	if !ident.IsAdmin {
		return nil, domain.ErrAdminOnly
	}

	current, err := s.find(ctx, promptID)
	if err != nil {
		return nil, err
	}

	prompt := &domain.Prompt{
		ID:          current.ID,
		Type:        domain.PromptType,
		Name:        input.Name,
		Description: input.Description,
		OwnerUserID: current.OwnerUserID,
		IsPublished: input.IsPublished,
		IsDeleted:   false,
		CreatedAt:   current.CreatedAt,
	}
	if err := domain.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	rec, err := promptRecord(prompt)
	if err != nil {
		return nil, err
	}

	res, err := s.store.UpdateOne(ctx, store.Filter{
		ID:   prompt.ID,
		Type: string(domain.PromptType),
	}, rec, false)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrPromptNotFound
	}

	return prompt, nil
}

// FindForUser fetches one live prompt. Unpublished prompts are visible to
// admins only.
func (s *PromptService) FindForUser(ctx context.Context, ident domain.Identity, promptID string) (*domain.Prompt, error) {
	prompt, err := s.find(ctx, promptID)
	if err != nil {
		return nil, err
	}

	if !prompt.IsPublished && !ident.IsAdmin {
		return nil, domain.ErrPromptNotFound
	}

	return prompt, nil
}

// FindAllForUser lists prompts: every prompt for admins, published ones for
// everyone else.
func (s *PromptService) FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.Prompt, error) {
	f := store.Filter{
		Type:      string(domain.PromptType),
		IsDeleted: falseValue(),
	}
	if !ident.IsAdmin {
		f.VisibleToUser = ident.UserID
	}

	records, err := s.store.Find(ctx, f, store.FindOptions{Sort: store.SortCreatedDesc})
	if err != nil {
		return nil, err
	}

	prompts := make([]*domain.Prompt, 0, len(records))
	for i := range records {
		p, err := promptFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// SoftDelete retires a prompt.
func (s *PromptService) SoftDelete(ctx context.Context, ident domain.Identity, promptID string) error {
	if !ident.IsAdmin {
		return domain.ErrAdminOnly
	}

	prompt, err := s.find(ctx, promptID)
	if err != nil {
		return err
	}

	_, err = s.store.MarkDeleted(ctx, prompt.ID)
	return err
}

func (s *PromptService) find(ctx context.Context, promptID string) (*domain.Prompt, error) {
	rec, err := s.store.FindOne(ctx, store.Filter{
		ID:        promptID,
		Type:      string(domain.PromptType),
		IsDeleted: falseValue(),
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrPromptNotFound
	}
	return promptFromRecord(rec)
}
