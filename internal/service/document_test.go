package service

import (
	"context"
	"strings"
	"testing"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDocumentService(st *memStore, index *MockSearchIndex, extractor *MockTextExtractor, archive *MockBlobArchive) *DocumentService {
	cfg := DocumentServiceConfig{
		Store:     st,
		Index:     index,
		Extractor: extractor,
		MaxBytes:  1000,
		ChunkCfg:  ChunkConfig{Size: 100, Overlap: 25},
		UUIDGen:   NewMockUUIDGenerator(),
	}
	if archive != nil {
		cfg.Archive = archive
	}
	return NewDocumentService(cfg)
}

func TestIngestRejectsOversizedUpload(t *testing.T) {
	st := newMemStore()
	index := &MockSearchIndex{}
	extractor := &MockTextExtractor{}
	svc := newTestDocumentService(st, index, extractor, nil)

	_, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1",
		FileName: "big.txt",
		Data:     make([]byte, 1000),
	})
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodePayloadTooLarge, derr.Code)

	// Nothing persisted, nothing called.
	assert.Equal(t, 0, st.count(store.Filter{}))
	index.AssertNotCalled(t, "EnsureIndex", mock.Anything)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestAbortsWhenIndexUnavailable(t *testing.T) {
	st := newMemStore()
	index := &MockSearchIndex{}
	index.On("EnsureIndex", mock.Anything).Return(assert.AnError)
	extractor := &MockTextExtractor{}
	svc := newTestDocumentService(st, index, extractor, nil)

	_, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1",
		FileName: "notes.txt",
		Data:     []byte("hello"),
	})
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeExternalService, derr.Code)
	assert.Equal(t, 0, st.count(store.Filter{}))
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestRejectsEmptyExtraction(t *testing.T) {
	st := newMemStore()
	index := &MockSearchIndex{}
	index.On("EnsureIndex", mock.Anything).Return(nil)

	extractor := &MockTextExtractor{}
	extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)

	svc := newTestDocumentService(st, index, extractor, nil)

	_, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1",
		FileName: "blank.pdf",
		Data:     []byte("scanned image, no text layer"),
	})
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeValidation, derr.Code)

	// Nothing was written and nothing was sent to the index.
	assert.Equal(t, 0, st.count(store.Filter{}))
	index.AssertNotCalled(t, "IndexChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Whitespace-only extraction is just as empty.
	extractor2 := &MockTextExtractor{}
	extractor2.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return([]string{" ", "\n"}, nil)
	svc = newTestDocumentService(st, index, extractor2, nil)

	_, err = svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1",
		FileName: "blank.pdf",
		Data:     []byte("whitespace"),
	})
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeValidation, derr.Code)
	assert.Equal(t, 0, st.count(store.Filter{}))
}

func TestIngestPersistsDocumentAndChunks(t *testing.T) {
	st := newMemStore()
	text := strings.Repeat("a", 250)

	index := &MockSearchIndex{}
	index.On("EnsureIndex", mock.Anything).Return(nil)
	index.On("IndexChunks", mock.Anything, "thread-1", "notes.txt", mock.Anything).Return(nil)

	extractor := &MockTextExtractor{}
	extractor.On("Extract", mock.Anything, mock.Anything, "text/plain").Return([]string{text}, nil)

	svc := newTestDocumentService(st, index, extractor, nil)

	result, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID:    "thread-1",
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Data:        []byte(text),
	})
	require.NoError(t, err)

	// 250 chars at size 100 / step 75: [0,100) [75,175) [150,250).
	require.Len(t, result.Chunks, 3)
	for i, c := range result.Chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}

	assert.Equal(t, 1, st.count(store.Filter{Type: string(domain.ChatDocumentType)}))
	assert.Equal(t, 3, st.count(store.Filter{Type: string(domain.DocumentChunkType)}))
	index.AssertExpectations(t)
}

func TestIngestReuploadReplacesChunkSet(t *testing.T) {
	st := newMemStore()
	index := &MockSearchIndex{}
	index.On("EnsureIndex", mock.Anything).Return(nil)
	index.On("IndexChunks", mock.Anything, "thread-1", "notes.txt", mock.Anything).Return(nil)

	extractor := &MockTextExtractor{}
	long := strings.Repeat("a", 250)
	short := strings.Repeat("b", 50)
	extractor.On("Extract", mock.Anything, []byte("v1"), "").Return([]string{long}, nil)
	extractor.On("Extract", mock.Anything, []byte("v2"), "").Return([]string{short}, nil)

	svc := newTestDocumentService(st, index, extractor, nil)

	_, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1", FileName: "notes.txt", Data: []byte("v1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, st.count(store.Filter{Type: string(domain.DocumentChunkType)}))

	result, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1", FileName: "notes.txt", Data: []byte("v2"),
	})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	// Stale ordinals from the longer upload are gone, and the document
	// metadata record was not duplicated.
	assert.Equal(t, 1, st.count(store.Filter{Type: string(domain.DocumentChunkType)}))
	assert.Equal(t, 1, st.count(store.Filter{Type: string(domain.ChatDocumentType)}))
	assert.Equal(t, short, result.Chunks[0].Content)
}

func TestIngestArchiveFailureIsNotFatal(t *testing.T) {
	st := newMemStore()
	index := &MockSearchIndex{}
	index.On("EnsureIndex", mock.Anything).Return(nil)
	index.On("IndexChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	extractor := &MockTextExtractor{}
	extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return([]string{"short text"}, nil)

	archive := &MockBlobArchive{}
	archive.On("Put", mock.Anything, "threads/thread-1/notes.txt", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestDocumentService(st, index, extractor, archive)

	result, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1", FileName: "notes.txt", Data: []byte("data"),
	})
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 1)
	archive.AssertExpectations(t)
}

func TestIngestIndexingFailureSurfaces(t *testing.T) {
	st := newMemStore()
	index := &MockSearchIndex{}
	index.On("EnsureIndex", mock.Anything).Return(nil)
	index.On("IndexChunks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	extractor := &MockTextExtractor{}
	extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return([]string{"short text"}, nil)

	svc := newTestDocumentService(st, index, extractor, nil)

	_, err := svc.Ingest(context.Background(), owner, IngestInput{
		ThreadID: "thread-1", FileName: "notes.txt", Data: []byte("data"),
	})
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeExternalService, derr.Code)

	// Chunks persisted before the index write; re-uploading repairs.
	assert.Equal(t, 1, st.count(store.Filter{Type: string(domain.DocumentChunkType)}))
}

func TestDownloadURLForArchivedUpload(t *testing.T) {
	st := newMemStore()
	seedDocument(t, st, "doc-1", "thread-1", owner.UserID, "notes.txt")

	archive := &MockBlobArchive{}
	archive.On("GenerateDownloadURL", mock.Anything, "threads/thread-1/notes.txt").
		Return("https://archive.example/notes.txt?sig=abc", nil)

	svc := newTestDocumentService(st, &MockSearchIndex{}, &MockTextExtractor{}, archive)

	url, err := svc.DownloadURL(context.Background(), "thread-1", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "https://archive.example/notes.txt?sig=abc", url)
	archive.AssertExpectations(t)
}

func TestDownloadURLMissingDocument(t *testing.T) {
	st := newMemStore()
	archive := &MockBlobArchive{}
	svc := newTestDocumentService(st, &MockSearchIndex{}, &MockTextExtractor{}, archive)

	_, err := svc.DownloadURL(context.Background(), "thread-1", "absent.txt")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	archive.AssertNotCalled(t, "GenerateDownloadURL", mock.Anything, mock.Anything)
}

func TestDownloadURLWithoutArchive(t *testing.T) {
	st := newMemStore()
	seedDocument(t, st, "doc-1", "thread-1", owner.UserID, "notes.txt")
	svc := newTestDocumentService(st, &MockSearchIndex{}, &MockTextExtractor{}, nil)

	_, err := svc.DownloadURL(context.Background(), "thread-1", "notes.txt")
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeNotFound, derr.Code)
}

func TestFindChunksOrdered(t *testing.T) {
	st := newMemStore()
	seedChunk(t, st, "chunk-2", "thread-1", owner.UserID, "notes.txt", 2)
	seedChunk(t, st, "chunk-0", "thread-1", owner.UserID, "notes.txt", 0)
	seedChunk(t, st, "chunk-1", "thread-1", owner.UserID, "notes.txt", 1)

	svc := newTestDocumentService(st, &MockSearchIndex{}, &MockTextExtractor{}, nil)

	chunks, err := svc.FindChunks(context.Background(), "thread-1", "notes.txt")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
}
