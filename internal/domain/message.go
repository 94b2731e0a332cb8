package domain

import (
	"fmt"
	"time"
)

// ChatRole identifies who produced a message.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleFunction  ChatRole = "function"
	ChatRoleTool      ChatRole = "tool"
)

// ChatMessage belongs to exactly one ChatThread. It is visible only while
// both its own flag and the owning thread's flag are false.
type ChatMessage struct {
	ID              string     `json:"id"`
	Type            RecordType `json:"type"`
	ThreadID        string     `json:"threadId"`
	OwnerUserID     string     `json:"userId"`
	Role            ChatRole   `json:"role"`
	Name            string     `json:"name"`
	Content         string     `json:"content"`
	MultiModalImage string     `json:"multiModalImage,omitempty"`
	IsDeleted       bool       `json:"isDeleted"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ValidateChatMessage validates a ChatMessage instance
func ValidateChatMessage(m *ChatMessage) error {
	if m == nil {
		return fmt.Errorf("chat message cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("chat message ID is required")
	}

	if m.ThreadID == "" {
		return fmt.Errorf("chat message ThreadID is required")
	}

	if m.OwnerUserID == "" {
		return fmt.Errorf("chat message OwnerUserID is required")
	}

	if !isValidChatRole(m.Role) {
		return ErrInvalidMessageRole
	}

	return nil
}

func isValidChatRole(r ChatRole) bool {
	switch r {
	case ChatRoleSystem, ChatRoleUser, ChatRoleAssistant, ChatRoleFunction, ChatRoleTool:
		return true
	}
	return false
}
