package store

import (
	"context"
	"testing"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Find(ctx context.Context, f Filter, opts FindOptions) ([]Record, error) {
	args := m.Called(ctx, f, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *mockStore) FindOne(ctx context.Context, f Filter) (*Record, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockStore) InsertOne(ctx context.Context, rec Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) UpdateOne(ctx context.Context, f Filter, rec Record, upsert bool) (UpdateResult, error) {
	args := m.Called(ctx, f, rec, upsert)
	return args.Get(0).(UpdateResult), args.Error(1)
}

func (m *mockStore) FindOneAndUpdate(ctx context.Context, f Filter, rec Record, upsert bool) (*Record, error) {
	args := m.Called(ctx, f, rec, upsert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *mockStore) MarkDeleted(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func TestUpsertReportsInsert(t *testing.T) {
	st := &mockStore{}
	f := Filter{ID: "rec-1"}
	rec := Record{ID: "rec-1", Type: "CHAT_THREAD"}

	st.On("UpdateOne", mock.Anything, f, rec, true).
		Return(UpdateResult{UpsertedID: "rec-1"}, nil)

	res, err := Upsert(context.Background(), st, f, rec)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", res.UpsertedID)
	assert.Zero(t, res.ModifiedCount)
}

func TestUpsertReportsReplacement(t *testing.T) {
	st := &mockStore{}
	f := Filter{ThreadID: "thread-1", FileName: "notes.txt"}
	rec := Record{ID: "doc-2", Type: "CHAT_DOCUMENT", ThreadID: "thread-1", FileName: "notes.txt"}

	st.On("UpdateOne", mock.Anything, f, rec, true).
		Return(UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	res, err := Upsert(context.Background(), st, f, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ModifiedCount)
}

func TestUpsertFailsWhenNothingApplied(t *testing.T) {
	st := &mockStore{}

	st.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, true).
		Return(UpdateResult{}, nil)

	_, err := Upsert(context.Background(), st, Filter{ID: "rec-1"}, Record{ID: "rec-1"})
	require.Error(t, err)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodePersistenceInconsistency, derr.Code)
}

func TestUpsertPropagatesStoreError(t *testing.T) {
	st := &mockStore{}

	st.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, true).
		Return(UpdateResult{}, assert.AnError)

	_, err := Upsert(context.Background(), st, Filter{ID: "rec-1"}, Record{ID: "rec-1"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestUpsertReturningHandsBackStoredRecord(t *testing.T) {
	st := &mockStore{}
	f := Filter{ID: "rec-1"}
	rec := Record{ID: "rec-1", Type: "CHAT_THREAD"}

	st.On("FindOneAndUpdate", mock.Anything, f, rec, true).Return(&rec, nil)

	stored, err := UpsertReturning(context.Background(), st, f, rec)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.ID)
}

func TestUpsertReturningFailsOnNil(t *testing.T) {
	st := &mockStore{}

	st.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything, true).
		Return(nil, nil)

	_, err := UpsertReturning(context.Background(), st, Filter{ID: "rec-1"}, Record{ID: "rec-1"})
	assert.ErrorIs(t, err, domain.ErrUpsertNotApplied)
}
