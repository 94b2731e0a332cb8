package service

import (
	"context"
	"testing"

	"github.com/parley-labs/parley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportingRequiresAdmin(t *testing.T) {
	st := newMemStore()
	seedThread(t, st, "thread-1", owner.UserID)
	svc := NewReportingService(st)

	_, err := svc.FindAllThreads(context.Background(), owner, 10, 0)
	assert.ErrorIs(t, err, domain.ErrAdminOnly)

	_, err = svc.FindAllMessages(context.Background(), owner, "thread-1")
	assert.ErrorIs(t, err, domain.ErrAdminOnly)
}

func TestReportingThreadsPagedNewestFirst(t *testing.T) {
	st := newMemStore()
	seedThread(t, st, "thread-1", owner.UserID)
	seedThread(t, st, "thread-2", stranger.UserID)
	seedThread(t, st, "thread-3", owner.UserID)
	seedThread(t, st, "thread-4", stranger.UserID)
	seedThread(t, st, "thread-5", owner.UserID)

	svc := NewReportingService(st)

	page, err := svc.FindAllThreads(context.Background(), admin, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "thread-4", page[0].ID)
	assert.Equal(t, "thread-3", page[1].ID)

	rest, err := svc.FindAllThreads(context.Background(), admin, 10, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "thread-2", rest[0].ID)
	assert.Equal(t, "thread-1", rest[1].ID)
}

func TestReportingIncludesDeletedThreads(t *testing.T) {
	st := newMemStore()
	seedThread(t, st, "thread-1", owner.UserID)
	seedThread(t, st, "thread-2", owner.UserID)
	_, err := st.MarkDeleted(context.Background(), "thread-1")
	require.NoError(t, err)

	svc := NewReportingService(st)

	threads, err := svc.FindAllThreads(context.Background(), admin, 10, 0)
	require.NoError(t, err)
	require.Len(t, threads, 2)
}

func TestReportingMessagesCrossOwner(t *testing.T) {
	st := newMemStore()
	seedThread(t, st, "thread-1", stranger.UserID)
	seedMessage(t, st, "msg-1", "thread-1", stranger.UserID)
	seedMessage(t, st, "msg-2", "thread-1", stranger.UserID)
	seedMessage(t, st, "other", "thread-2", stranger.UserID)

	svc := NewReportingService(st)

	messages, err := svc.FindAllMessages(context.Background(), admin, "thread-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "msg-1", messages[0].ID)
	assert.Equal(t, "msg-2", messages[1].ID)
}
