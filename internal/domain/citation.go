package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChatCitation stores the retrieval hit a message refers to. Message content
// links citations by id only; the reference is not enforced by the store.
type ChatCitation struct {
	ID            string          `json:"id"`
	Type          RecordType      `json:"type"`
	OwnerUserID   string          `json:"userId"`
	SourceContent json.RawMessage `json:"content"`
	IsDeleted     bool            `json:"isDeleted"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ValidateChatCitation validates a ChatCitation instance
func ValidateChatCitation(c *ChatCitation) error {
	if c == nil {
		return fmt.Errorf("citation cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("citation ID is required")
	}

	if c.OwnerUserID == "" {
		return fmt.Errorf("citation OwnerUserID is required")
	}

	if len(c.SourceContent) == 0 {
		return fmt.Errorf("citation SourceContent is required")
	}

	return nil
}
