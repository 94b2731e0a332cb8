package domain

import (
	"fmt"
	"time"
)

// Prompt is a reusable prompt template. Writes are admin-only; published
// prompts are readable by everyone.
type Prompt struct {
	ID          string     `json:"id"`
	Type        RecordType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerUserID string     `json:"userId"`
	IsPublished bool       `json:"isPublished"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ValidatePrompt validates a Prompt instance
func ValidatePrompt(p *Prompt) error {
	if p == nil {
		return fmt.Errorf("prompt cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("prompt ID is required")
	}

	if p.Name == "" {
		return fmt.Errorf("prompt Name is required")
	}

	if p.Description == "" {
		return fmt.Errorf("prompt Description is required")
	}

	return nil
}
