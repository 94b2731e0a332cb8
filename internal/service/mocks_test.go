package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/parley-labs/parley/internal/store"
	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory store.Store with the same filter and upsert
// semantics as the Postgres implementation.
type memStore struct {
	mu      sync.Mutex
	records []store.Record

	failMarkDeleted map[string]error
}

func newMemStore() *memStore {
	return &memStore{failMarkDeleted: map[string]error{}}
}

func matches(f store.Filter, r *store.Record) bool {
	if f.ID != "" && r.ID != f.ID {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.ThreadID != "" && r.ThreadID != f.ThreadID {
		return false
	}
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	if f.FileName != "" && r.FileName != f.FileName {
		return false
	}
	if f.ChunkIndex != nil && r.ChunkIndex != *f.ChunkIndex {
		return false
	}
	if f.IsDeleted != nil && r.IsDeleted != *f.IsDeleted {
		return false
	}
	if f.VisibleToUser != "" && !r.Published && r.OwnerID != f.VisibleToUser {
		return false
	}
	return true
}

func (m *memStore) Find(_ context.Context, f store.Filter, opts store.FindOptions) ([]store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.Record
	for i := range m.records {
		if matches(f, &m.records[i]) {
			out = append(out, m.records[i])
		}
	}

	switch opts.Sort {
	case store.SortCreatedAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	case store.SortCreatedDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			return nil, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memStore) FindOne(_ context.Context, f store.Filter) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if matches(f, &m.records[i]) {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertOne(_ context.Context, rec store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) UpdateOne(_ context.Context, f store.Filter, rec store.Record, upsert bool) (store.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Natural-key upserts resolve within one record type, mirroring the
	// partial unique indexes of the Postgres store.
	for i := range m.records {
		if matches(f, &m.records[i]) && m.records[i].Type == rec.Type {
			m.records[i] = rec
			return store.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	if upsert {
		m.records = append(m.records, rec)
		return store.UpdateResult{UpsertedID: rec.ID}, nil
	}
	return store.UpdateResult{}, nil
}

func (m *memStore) FindOneAndUpdate(ctx context.Context, f store.Filter, rec store.Record, upsert bool) (*store.Record, error) {
	res, err := m.UpdateOne(ctx, f, rec, upsert)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 && res.UpsertedID == "" {
		return nil, nil
	}
	stored := rec
	return &stored, nil
}

func (m *memStore) MarkDeleted(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failMarkDeleted[id]; ok {
		return 0, err
	}

	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].IsDeleted = true
			m.records[i].Doc = patchDeleted(m.records[i].Doc)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) DeleteOne(_ context.Context, f store.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if matches(f, &m.records[i]) {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func patchDeleted(doc json.RawMessage) json.RawMessage {
	var body map[string]any
	if err := json.Unmarshal(doc, &body); err != nil {
		return doc
	}
	body["isDeleted"] = true
	patched, err := json.Marshal(body)
	if err != nil {
		return doc
	}
	return patched
}

// get returns a copy of the record with the given id, or nil.
func (m *memStore) get(id string) *store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			rec := m.records[i]
			return &rec
		}
	}
	return nil
}

func (m *memStore) count(f store.Filter) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.records {
		if matches(f, &m.records[i]) {
			n++
		}
	}
	return n
}

// MockSearchIndex is a mock implementation of SearchIndex
type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) EnsureIndex(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSearchIndex) IndexChunks(ctx context.Context, threadID, fileName string, chunks []string) error {
	args := m.Called(ctx, threadID, fileName, chunks)
	return args.Error(0)
}

func (m *MockSearchIndex) DeleteByThread(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

// MockTextExtractor is a mock implementation of TextExtractor
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	args := m.Called(ctx, data, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSecretStore is a mock implementation of SecretStore
type MockSecretStore struct {
	mock.Mock
}

func (m *MockSecretStore) SetSecret(ctx context.Context, id, value string) error {
	args := m.Called(ctx, id, value)
	return args.Error(0)
}

func (m *MockSecretStore) GetSecret(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockSecretStore) DeleteSecret(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBlobArchive is a mock implementation of BlobArchive
type MockBlobArchive struct {
	mock.Mock
}

func (m *MockBlobArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockBlobArchive) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockUUIDGenerator yields a fixed sequence of ids
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		uuid := m.uuids[m.callCount]
		m.callCount++
		return uuid
	}
	return "default-uuid"
}
