package domain

import (
	"fmt"
	"time"
)

// ChatDocument is the metadata record for one uploaded file on a thread.
// The file's text lives in DocumentChunk records sharing the same
// (ThreadID, FileName) natural key.
type ChatDocument struct {
	ID          string     `json:"id"`
	Type        RecordType `json:"type"`
	ThreadID    string     `json:"chatThreadId"`
	OwnerUserID string     `json:"userId"`
	FileName    string     `json:"name"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DocumentChunk is one bounded, overlapping window of an uploaded file's
// extracted text. Re-uploading the same file name replaces the whole chunk
// set for that (ThreadID, FileName).
type DocumentChunk struct {
	ID          string     `json:"id"`
	Type        RecordType `json:"type"`
	ThreadID    string     `json:"chatThreadId"`
	OwnerUserID string     `json:"userId"`
	FileName    string     `json:"name"`
	ChunkIndex  int        `json:"chunkIndex"`
	Content     string     `json:"content"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ValidateChatDocument validates a ChatDocument instance
func ValidateChatDocument(d *ChatDocument) error {
	if d == nil {
		return fmt.Errorf("chat document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("chat document ID is required")
	}

	if d.ThreadID == "" {
		return fmt.Errorf("chat document ThreadID is required")
	}

	if d.FileName == "" {
		return fmt.Errorf("chat document FileName is required")
	}

	return nil
}

// ValidateDocumentChunk validates a DocumentChunk instance
func ValidateDocumentChunk(c *DocumentChunk) error {
	if c == nil {
		return fmt.Errorf("document chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("document chunk ID is required")
	}

	if c.ThreadID == "" {
		return fmt.Errorf("document chunk ThreadID is required")
	}

	if c.FileName == "" {
		return fmt.Errorf("document chunk FileName is required")
	}

	if c.ChunkIndex < 0 {
		return fmt.Errorf("document chunk ChunkIndex cannot be negative")
	}

	return nil
}

// NewChatDocument creates a document metadata record.
func NewChatDocument(id, threadID, ownerUserID, fileName string, createdAt time.Time) *ChatDocument {
	return &ChatDocument{
		ID:          id,
		Type:        ChatDocumentType,
		ThreadID:    threadID,
		OwnerUserID: ownerUserID,
		FileName:    fileName,
		IsDeleted:   false,
		CreatedAt:   createdAt,
	}
}
