package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
	"github.com/parley-labs/parley/internal/telemetry"
)

// DocumentService is the ingestion pipeline: raw upload bytes are size
// checked, extracted into paragraphs, chunked with overlap, and persisted as
// chunk records plus one metadata record per (threadId, fileName).
type DocumentService struct {
	store     store.Store
	index     SearchIndex
	extractor TextExtractor
	archive   BlobArchive
	maxBytes  int64
	chunkCfg  ChunkConfig
	uuidGen   UUIDGenerator
}

// DocumentServiceConfig wires the ingestion collaborators. Archive may be
// nil; everything else is required.
type DocumentServiceConfig struct {
	Store     store.Store
	Index     SearchIndex
	Extractor TextExtractor
	Archive   BlobArchive
	MaxBytes  int64
	ChunkCfg  ChunkConfig
	UUIDGen   UUIDGenerator
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 20_000_000
	}
	if cfg.ChunkCfg.Size <= 0 {
		cfg.ChunkCfg = DefaultChunkConfig()
	}
	if cfg.UUIDGen == nil {
		cfg.UUIDGen = &DefaultUUIDGenerator{}
	}
	return &DocumentService{
		store:     cfg.Store,
		index:     cfg.Index,
		extractor: cfg.Extractor,
		archive:   cfg.Archive,
		maxBytes:  cfg.MaxBytes,
		chunkCfg:  cfg.ChunkCfg,
		uuidGen:   cfg.UUIDGen,
	}
}

// IngestInput is one uploaded file bound to a thread.
type IngestInput struct {
	ThreadID    string
	FileName    string
	ContentType string
	Data        []byte
}

// IngestResult reports what ingestion persisted.
type IngestResult struct {
	Document *domain.ChatDocument
	Chunks   []*domain.DocumentChunk
}

// Ingest runs the upload flow. Nothing is persisted until the index exists
// and extraction has succeeded; once chunk writes begin, each write is
// independent, so a mid-flight failure leaves a partial chunk set that the
// caller repairs by re-uploading the same file name (replace, not append).
func (s *DocumentService) Ingest(ctx context.Context, ident domain.Identity, input IngestInput) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Ingest", telemetry.SpanAttributes{
		ThreadID:  input.ThreadID,
		UserID:    ident.UserID,
		FileName:  input.FileName,
		Operation: "ingest",
	})
	defer span.End()

	if input.FileName == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "file name is required")
	}
	if int64(len(input.Data)) >= s.maxBytes {
		return nil, domain.ErrUploadTooLarge(s.maxBytes)
	}

	if err := s.index.EnsureIndex(ctx); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExternalService, "search index is unavailable", err)
	}

	if s.archive != nil {
		key := fmt.Sprintf("threads/%s/%s", input.ThreadID, input.FileName)
		if err := s.archive.Put(ctx, key, input.Data, input.ContentType); err != nil {
			// Archival is best effort; ingestion proceeds on the extracted text.
			log.Printf("upload archive failed for %s: %v", key, err)
		}
	}

	paragraphs, err := s.extractor.Extract(ctx, input.Data, input.ContentType)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExternalService, "text extraction failed", err)
	}

	text := strings.Join(paragraphs, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document contains no extractable text")
	}
	chunks := ChunkWithOverlap(text, s.chunkCfg)
	now := time.Now().UTC()

	document := domain.NewChatDocument(s.uuidGen.NewString(), input.ThreadID, ident.UserID, input.FileName, now)
	docRec, err := documentRecord(document)
	if err != nil {
		return nil, err
	}

	storedDoc, err := store.UpsertReturning(ctx, s.store, store.Filter{
		ThreadID: input.ThreadID,
		FileName: input.FileName,
	}, docRec)
	if err != nil {
		return nil, err
	}
	document, err = documentFromRecord(storedDoc)
	if err != nil {
		return nil, err
	}

	persisted := make([]*domain.DocumentChunk, 0, len(chunks))
	for i, content := range chunks {
		chunk := &domain.DocumentChunk{
			ID:          s.uuidGen.NewString(),
			Type:        domain.DocumentChunkType,
			ThreadID:    input.ThreadID,
			OwnerUserID: ident.UserID,
			FileName:    input.FileName,
			ChunkIndex:  i,
			Content:     content,
			IsDeleted:   false,
			CreatedAt:   now,
		}

		rec, err := chunkRecord(chunk)
		if err != nil {
			return nil, err
		}

		ordinal := i
		if _, err := store.Upsert(ctx, s.store, store.Filter{
			ThreadID:   input.ThreadID,
			FileName:   input.FileName,
			ChunkIndex: &ordinal,
		}, rec); err != nil {
			return nil, err
		}
		persisted = append(persisted, chunk)
	}

	if err := s.trimStaleChunks(ctx, input.ThreadID, input.FileName, len(chunks)); err != nil {
		return nil, err
	}

	if err := s.index.IndexChunks(ctx, input.ThreadID, input.FileName, chunks); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExternalService, "search indexing failed", err)
	}

	return &IngestResult{Document: document, Chunks: persisted}, nil
}

// trimStaleChunks removes chunk records left over from a longer previous
// upload of the same file. Ordinals are dense, so deletion walks forward
// from the new count until nothing matches.
func (s *DocumentService) trimStaleChunks(ctx context.Context, threadID, fileName string, from int) error {
	for ordinal := from; ; ordinal++ {
		o := ordinal
		n, err := s.store.DeleteOne(ctx, store.Filter{
			Type:       string(domain.DocumentChunkType),
			ThreadID:   threadID,
			FileName:   fileName,
			ChunkIndex: &o,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// FindAllForThread lists live document metadata records on a thread.
func (s *DocumentService) FindAllForThread(ctx context.Context, threadID string) ([]*domain.ChatDocument, error) {
	records, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.ChatDocumentType),
		ThreadID:  threadID,
		IsDeleted: falseValue(),
	}, store.FindOptions{Sort: store.SortCreatedAsc})
	if err != nil {
		return nil, err
	}

	documents := make([]*domain.ChatDocument, 0, len(records))
	for i := range records {
		d, err := documentFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		documents = append(documents, d)
	}
	return documents, nil
}

// FindChunks returns the live chunk records for one file on a thread in
// ordinal order.
func (s *DocumentService) FindChunks(ctx context.Context, threadID, fileName string) ([]*domain.DocumentChunk, error) {
	records, err := s.store.Find(ctx, store.Filter{
		Type:      string(domain.DocumentChunkType),
		ThreadID:  threadID,
		FileName:  fileName,
		IsDeleted: falseValue(),
	}, store.FindOptions{Sort: store.SortCreatedAsc})
	if err != nil {
		return nil, err
	}

	chunks := make([]*domain.DocumentChunk, 0, len(records))
	for i := range records {
		c, err := chunkFromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	sortChunksByOrdinal(chunks)
	return chunks, nil
}

// DownloadURL returns a short-lived link to the archived original upload.
func (s *DocumentService) DownloadURL(ctx context.Context, threadID, fileName string) (string, error) {
	if s.archive == nil {
		return "", domain.NewDomainError(domain.ErrCodeNotFound, "document archive is not configured")
	}

	rec, err := s.store.FindOne(ctx, store.Filter{
		Type:      string(domain.ChatDocumentType),
		ThreadID:  threadID,
		FileName:  fileName,
		IsDeleted: falseValue(),
	})
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", domain.ErrDocumentNotFound
	}

	key := fmt.Sprintf("threads/%s/%s", threadID, fileName)
	url, err := s.archive.GenerateDownloadURL(ctx, key)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExternalService, "failed to generate download link", err)
	}
	return url, nil
}

func sortChunksByOrdinal(chunks []*domain.DocumentChunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j-1].ChunkIndex > chunks[j].ChunkIndex; j-- {
			chunks[j-1], chunks[j] = chunks[j], chunks[j-1]
		}
	}
}
