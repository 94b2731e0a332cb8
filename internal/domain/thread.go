package domain

import (
	"fmt"
	"time"
)

// MaxThreadNameLength caps thread titles; longer titles are truncated, not
// rejected.
const MaxThreadNameLength = 30

// DefaultThreadName is the title given to a freshly created thread before the
// first message names it.
const DefaultThreadName = "New Chat"

// ChatThread is the root of an ownership subtree: its messages and documents
// are soft-deleted whenever the thread is.
type ChatThread struct {
	ID                  string     `json:"id"`
	Type                RecordType `json:"type"`
	Name                string     `json:"name"`
	UseName             string     `json:"useName"`
	OwnerUserID         string     `json:"userId"`
	Bookmarked          bool       `json:"bookmarked"`
	IsDeleted           bool       `json:"isDeleted"`
	PersonaMessage      string     `json:"personaMessage"`
	PersonaMessageTitle string     `json:"personaMessageTitle"`
	ExtensionIDs        []string   `json:"extension"`
	CreatedAt           time.Time  `json:"createdAt"`
	LastMessageAt       time.Time  `json:"lastMessageAt"`
}

// NewChatThread creates a thread with default persona and an empty extension
// list.
func NewChatThread(id, ownerUserID, useName string, createdAt time.Time) *ChatThread {
	return &ChatThread{
		ID:                  id,
		Type:                ChatThreadType,
		Name:                DefaultThreadName,
		UseName:             useName,
		OwnerUserID:         ownerUserID,
		Bookmarked:          false,
		IsDeleted:           false,
		PersonaMessage:      "",
		PersonaMessageTitle: "Default",
		ExtensionIDs:        []string{},
		CreatedAt:           createdAt,
		LastMessageAt:       createdAt,
	}
}

// HasExtension reports whether the extension id is already attached.
func (t *ChatThread) HasExtension(extensionID string) bool {
	for _, id := range t.ExtensionIDs {
		if id == extensionID {
			return true
		}
	}
	return false
}

// AddExtension appends an extension id, keeping the list duplicate-free.
func (t *ChatThread) AddExtension(extensionID string) {
	if t.HasExtension(extensionID) {
		return
	}
	t.ExtensionIDs = append(t.ExtensionIDs, extensionID)
}

// RemoveExtension drops an extension id from the thread if present.
func (t *ChatThread) RemoveExtension(extensionID string) {
	kept := t.ExtensionIDs[:0]
	for _, id := range t.ExtensionIDs {
		if id != extensionID {
			kept = append(kept, id)
		}
	}
	t.ExtensionIDs = kept
}

// TruncateName applies the title length cap.
func TruncateName(title string) string {
	runes := []rune(title)
	if len(runes) <= MaxThreadNameLength {
		return title
	}
	return string(runes[:MaxThreadNameLength])
}

// ValidateChatThread validates a ChatThread instance
func ValidateChatThread(t *ChatThread) error {
	if t == nil {
		return fmt.Errorf("chat thread cannot be nil")
	}

	if t.ID == "" {
		return fmt.Errorf("chat thread ID is required")
	}

	if t.OwnerUserID == "" {
		return fmt.Errorf("chat thread OwnerUserID is required")
	}

	if t.Type != ChatThreadType {
		return fmt.Errorf("chat thread Type is invalid: %s", t.Type)
	}

	seen := make(map[string]struct{}, len(t.ExtensionIDs))
	for _, id := range t.ExtensionIDs {
		if _, ok := seen[id]; ok {
			return ErrDuplicateExtensionIDs
		}
		seen[id] = struct{}{}
	}

	return nil
}
