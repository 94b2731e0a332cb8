package service

import (
	"encoding/json"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
)

// Codecs between domain entities and the store envelope. The envelope's
// plain columns mirror the natural-key attributes inside the JSON doc; both
// must be written together.

func threadRecord(t *domain.ChatThread) (store.Record, error) {
	doc, err := json.Marshal(t)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode chat thread", err)
	}
	return store.Record{
		ID:        t.ID,
		Type:      string(domain.ChatThreadType),
		OwnerID:   t.OwnerUserID,
		IsDeleted: t.IsDeleted,
		CreatedAt: t.CreatedAt,
		Doc:       doc,
	}, nil
}

func threadFromRecord(rec *store.Record) (*domain.ChatThread, error) {
	var t domain.ChatThread
	if err := json.Unmarshal(rec.Doc, &t); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode chat thread", err)
	}
	return &t, nil
}

func messageRecord(m *domain.ChatMessage) (store.Record, error) {
	doc, err := json.Marshal(m)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode chat message", err)
	}
	return store.Record{
		ID:        m.ID,
		Type:      string(domain.ChatMessageType),
		ThreadID:  m.ThreadID,
		OwnerID:   m.OwnerUserID,
		IsDeleted: m.IsDeleted,
		CreatedAt: m.CreatedAt,
		Doc:       doc,
	}, nil
}

func messageFromRecord(rec *store.Record) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := json.Unmarshal(rec.Doc, &m); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode chat message", err)
	}
	return &m, nil
}

func documentRecord(d *domain.ChatDocument) (store.Record, error) {
	doc, err := json.Marshal(d)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode chat document", err)
	}
	return store.Record{
		ID:        d.ID,
		Type:      string(domain.ChatDocumentType),
		ThreadID:  d.ThreadID,
		OwnerID:   d.OwnerUserID,
		FileName:  d.FileName,
		IsDeleted: d.IsDeleted,
		CreatedAt: d.CreatedAt,
		Doc:       doc,
	}, nil
}

func documentFromRecord(rec *store.Record) (*domain.ChatDocument, error) {
	var d domain.ChatDocument
	if err := json.Unmarshal(rec.Doc, &d); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode chat document", err)
	}
	return &d, nil
}

func chunkRecord(c *domain.DocumentChunk) (store.Record, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode document chunk", err)
	}
	return store.Record{
		ID:         c.ID,
		Type:       string(domain.DocumentChunkType),
		ThreadID:   c.ThreadID,
		OwnerID:    c.OwnerUserID,
		FileName:   c.FileName,
		ChunkIndex: c.ChunkIndex,
		IsDeleted:  c.IsDeleted,
		CreatedAt:  c.CreatedAt,
		Doc:        doc,
	}, nil
}

func chunkFromRecord(rec *store.Record) (*domain.DocumentChunk, error) {
	var c domain.DocumentChunk
	if err := json.Unmarshal(rec.Doc, &c); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode document chunk", err)
	}
	return &c, nil
}

func citationRecord(c *domain.ChatCitation) (store.Record, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode citation", err)
	}
	return store.Record{
		ID:        c.ID,
		Type:      string(domain.ChatCitationType),
		OwnerID:   c.OwnerUserID,
		IsDeleted: c.IsDeleted,
		CreatedAt: c.CreatedAt,
		Doc:       doc,
	}, nil
}

func citationFromRecord(rec *store.Record) (*domain.ChatCitation, error) {
	var c domain.ChatCitation
	if err := json.Unmarshal(rec.Doc, &c); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode citation", err)
	}
	return &c, nil
}

func extensionRecord(e *domain.Extension) (store.Record, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode extension", err)
	}
	return store.Record{
		ID:        e.ID,
		Type:      string(domain.ExtensionType),
		OwnerID:   e.OwnerUserID,
		Published: e.IsPublished,
		IsDeleted: e.IsDeleted,
		CreatedAt: e.CreatedAt,
		Doc:       doc,
	}, nil
}

func extensionFromRecord(rec *store.Record) (*domain.Extension, error) {
	var e domain.Extension
	if err := json.Unmarshal(rec.Doc, &e); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode extension", err)
	}
	return &e, nil
}

func promptRecord(p *domain.Prompt) (store.Record, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return store.Record{}, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to encode prompt", err)
	}
	return store.Record{
		ID:        p.ID,
		Type:      string(domain.PromptType),
		OwnerID:   p.OwnerUserID,
		Published: p.IsPublished,
		IsDeleted: p.IsDeleted,
		CreatedAt: p.CreatedAt,
		Doc:       doc,
	}, nil
}

func promptFromRecord(rec *store.Record) (*domain.Prompt, error) {
	var p domain.Prompt
	if err := json.Unmarshal(rec.Doc, &p); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to decode prompt", err)
	}
	return &p, nil
}

func falseValue() *bool {
	v := false
	return &v
}

func trueValue() *bool {
	v := true
	return &v
}
