package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parley-labs/parley/internal/api/handlers"
	"github.com/parley-labs/parley/internal/domain"
	"github.com/parley-labs/parley/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockThreadService struct {
	mock.Mock
}

func (m *MockThreadService) Create(ctx context.Context, ident domain.Identity, useName string) (*domain.ChatThread, error) {
	args := m.Called(ctx, ident, useName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.ChatThread, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) FindForUser(ctx context.Context, ident domain.Identity, threadID string) (*domain.ChatThread, error) {
	args := m.Called(ctx, ident, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) Rename(ctx context.Context, ident domain.Identity, threadID, title string) (*domain.ChatThread, error) {
	args := m.Called(ctx, ident, threadID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) SetBookmarked(ctx context.Context, ident domain.Identity, threadID string, bookmarked bool) (*domain.ChatThread, error) {
	args := m.Called(ctx, ident, threadID, bookmarked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) AddExtension(ctx context.Context, ident domain.Identity, threadID, extensionID string) (*domain.ChatThread, error) {
	args := m.Called(ctx, ident, threadID, extensionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) RemoveExtension(ctx context.Context, ident domain.Identity, threadID, extensionID string) (*domain.ChatThread, error) {
	args := m.Called(ctx, ident, threadID, extensionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockThreadService) SoftDelete(ctx context.Context, ident domain.Identity, threadID string) error {
	args := m.Called(ctx, ident, threadID)
	return args.Error(0)
}

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Create(ctx context.Context, ident domain.Identity, input service.CreateMessageInput) (*domain.ChatMessage, error) {
	args := m.Called(ctx, ident, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *MockMessageService) FindAllForThread(ctx context.Context, ident domain.Identity, threadID string) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, ident, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

func (m *MockMessageService) FindTopForThread(ctx context.Context, ident domain.Identity, threadID string, top int) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, ident, threadID, top)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Ingest(ctx context.Context, ident domain.Identity, input service.IngestInput) (*service.IngestResult, error) {
	args := m.Called(ctx, ident, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockDocumentService) FindAllForThread(ctx context.Context, threadID string) ([]*domain.ChatDocument, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatDocument), args.Error(1)
}

func (m *MockDocumentService) FindChunks(ctx context.Context, threadID, fileName string) ([]*domain.DocumentChunk, error) {
	args := m.Called(ctx, threadID, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentChunk), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, threadID, fileName string) (string, error) {
	args := m.Called(ctx, threadID, fileName)
	return args.String(0), args.Error(1)
}

type MockCitationService struct {
	mock.Mock
}

func (m *MockCitationService) CreateMany(ctx context.Context, ident domain.Identity, sources []json.RawMessage) ([]*domain.ChatCitation, error) {
	args := m.Called(ctx, ident, sources)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatCitation), args.Error(1)
}

func (m *MockCitationService) FindForUser(ctx context.Context, ident domain.Identity, citationID string) (*domain.ChatCitation, error) {
	args := m.Called(ctx, ident, citationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatCitation), args.Error(1)
}

type MockExtensionService struct {
	mock.Mock
}

func (m *MockExtensionService) Create(ctx context.Context, ident domain.Identity, input service.ExtensionInput) (*domain.Extension, error) {
	args := m.Called(ctx, ident, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extension), args.Error(1)
}

func (m *MockExtensionService) Update(ctx context.Context, ident domain.Identity, extensionID string, input service.ExtensionInput) (*domain.Extension, error) {
	args := m.Called(ctx, ident, extensionID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extension), args.Error(1)
}

func (m *MockExtensionService) FindForUser(ctx context.Context, ident domain.Identity, extensionID string) (*domain.Extension, error) {
	args := m.Called(ctx, ident, extensionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extension), args.Error(1)
}

func (m *MockExtensionService) FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.Extension, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Extension), args.Error(1)
}

func (m *MockExtensionService) SoftDelete(ctx context.Context, ident domain.Identity, extensionID string) error {
	args := m.Called(ctx, ident, extensionID)
	return args.Error(0)
}

type MockPromptService struct {
	mock.Mock
}

func (m *MockPromptService) Create(ctx context.Context, ident domain.Identity, input service.PromptInput) (*domain.Prompt, error) {
	args := m.Called(ctx, ident, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

func (m *MockPromptService) Update(ctx context.Context, ident domain.Identity, promptID string, input service.PromptInput) (*domain.Prompt, error) {
	args := m.Called(ctx, ident, promptID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

func (m *MockPromptService) FindForUser(ctx context.Context, ident domain.Identity, promptID string) (*domain.Prompt, error) {
	args := m.Called(ctx, ident, promptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prompt), args.Error(1)
}

func (m *MockPromptService) FindAllForUser(ctx context.Context, ident domain.Identity) ([]*domain.Prompt, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Prompt), args.Error(1)
}

func (m *MockPromptService) SoftDelete(ctx context.Context, ident domain.Identity, promptID string) error {
	args := m.Called(ctx, ident, promptID)
	return args.Error(0)
}

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) FindAllThreads(ctx context.Context, ident domain.Identity, limit, offset int) ([]*domain.ChatThread, error) {
	args := m.Called(ctx, ident, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatThread), args.Error(1)
}

func (m *MockReportingService) FindAllMessages(ctx context.Context, ident domain.Identity, threadID string) ([]*domain.ChatMessage, error) {
	args := m.Called(ctx, ident, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ChatMessage), args.Error(1)
}

func setupRouter() (http.Handler, *MockThreadService, *MockMessageService) {
	threadSvc := new(MockThreadService)
	messageSvc := new(MockMessageService)
	documentSvc := new(MockDocumentService)
	citationSvc := new(MockCitationService)
	extensionSvc := new(MockExtensionService)
	promptSvc := new(MockPromptService)
	reportingSvc := new(MockReportingService)

	cfg := RouterConfig{
		ThreadHandler:    handlers.NewThreadHandler(threadSvc),
		MessageHandler:   handlers.NewMessageHandler(messageSvc, threadSvc),
		DocumentHandler:  handlers.NewDocumentHandler(documentSvc, threadSvc),
		CitationHandler:  handlers.NewCitationHandler(citationSvc),
		ExtensionHandler: handlers.NewExtensionHandler(extensionSvc),
		PromptHandler:    handlers.NewPromptHandler(promptSvc),
		ReportingHandler: handlers.NewReportingHandler(reportingSvc),
	}

	return NewRouter(cfg), threadSvc, messageSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_AuthenticatedRoutes_RequireIdentity(t *testing.T) {
	router, _, _ := setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/threads"},
		{http.MethodPost, "/threads"},
		{http.MethodGet, "/threads/123"},
		{http.MethodDelete, "/threads/123"},
		{http.MethodGet, "/threads/123/messages"},
		{http.MethodPost, "/threads/123/documents"},
		{http.MethodPost, "/citations"},
		{http.MethodGet, "/extensions"},
		{http.MethodGet, "/prompts"},
		{http.MethodGet, "/reporting/threads"},
		{http.MethodGet, "/reporting/threads/123/messages"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_AuthenticatedRoutes_WithIdentity(t *testing.T) {
	router, threadSvc, _ := setupRouter()

	expected := &domain.ChatThread{
		ID:            "thread-123",
		Type:          domain.ChatThreadType,
		Name:          "New Conversation",
		OwnerUserID:   "user-456",
		CreatedAt:     time.Now().UTC(),
		LastMessageAt: time.Now().UTC(),
	}
	threadSvc.On("FindForUser", mock.Anything, domain.Identity{UserID: "user-456"}, "thread-123").Return(expected, nil)

	req := httptest.NewRequest(http.MethodGet, "/threads/thread-123", nil)
	req.Header.Set("X-User-ID", "user-456")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	threadSvc.AssertExpectations(t)
}

func TestRouter_MessageListPassesTopQuery(t *testing.T) {
	router, threadSvc, messageSvc := setupRouter()

	thread := &domain.ChatThread{ID: "thread-123", OwnerUserID: "user-456"}
	threadSvc.On("FindForUser", mock.Anything, mock.Anything, "thread-123").Return(thread, nil)
	messageSvc.On("FindTopForThread", mock.Anything, mock.Anything, "thread-123", 5).Return([]*domain.ChatMessage{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/threads/thread-123/messages?top=5", nil)
	req.Header.Set("X-User-ID", "user-456")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	messageSvc.AssertExpectations(t)
}

func TestRouter_ReportingThreadsPassesPagination(t *testing.T) {
	threadSvc := new(MockThreadService)
	reportingSvc := new(MockReportingService)
	cfg := RouterConfig{
		ThreadHandler:    handlers.NewThreadHandler(threadSvc),
		MessageHandler:   handlers.NewMessageHandler(new(MockMessageService), threadSvc),
		DocumentHandler:  handlers.NewDocumentHandler(new(MockDocumentService), threadSvc),
		CitationHandler:  handlers.NewCitationHandler(new(MockCitationService)),
		ExtensionHandler: handlers.NewExtensionHandler(new(MockExtensionService)),
		PromptHandler:    handlers.NewPromptHandler(new(MockPromptService)),
		ReportingHandler: handlers.NewReportingHandler(reportingSvc),
	}
	router := NewRouter(cfg)

	adminIdent := domain.Identity{UserID: "admin-1", IsAdmin: true}
	reportingSvc.On("FindAllThreads", mock.Anything, adminIdent, 5, 10).Return([]*domain.ChatThread{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/reporting/threads?limit=5&offset=10", nil)
	req.Header.Set("X-User-ID", "admin-1")
	req.Header.Set("X-User-Admin", "true")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	reportingSvc.AssertExpectations(t)
}

func TestRouter_BodyLimitRejectsOversizedRequests(t *testing.T) {
	threadSvc := new(MockThreadService)
	cfg := RouterConfig{
		ThreadHandler:    handlers.NewThreadHandler(threadSvc),
		MessageHandler:   handlers.NewMessageHandler(new(MockMessageService), threadSvc),
		DocumentHandler:  handlers.NewDocumentHandler(new(MockDocumentService), threadSvc),
		CitationHandler:  handlers.NewCitationHandler(new(MockCitationService)),
		ExtensionHandler: handlers.NewExtensionHandler(new(MockExtensionService)),
		PromptHandler:    handlers.NewPromptHandler(new(MockPromptService)),
		ReportingHandler: handlers.NewReportingHandler(new(MockReportingService)),
		MaxBodyBytes:     64,
	}
	router := NewRouter(cfg)

	body := `{"useName":"` + strings.Repeat("x", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/threads", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-456")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	threadSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
