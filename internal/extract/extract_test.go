package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainTextExtractorSplitsParagraphs(t *testing.T) {
	paragraphs, err := PlainTextExtractor{}.Extract(context.Background(),
		[]byte("first paragraph\r\n\r\nsecond paragraph\n\n\n\nthird"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"first paragraph", "second paragraph", "third"}, paragraphs)
}

func TestPlainTextExtractorEmptyInput(t *testing.T) {
	paragraphs, err := PlainTextExtractor{}.Extract(context.Background(), []byte("  \n\n  "), "")
	require.NoError(t, err)
	assert.Empty(t, paragraphs)
}

func TestHTTPExtractorPostsDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-raw-bytes"), body)

		json.NewEncoder(w).Encode(map[string]any{
			"paragraphs": []string{"first", "second"},
		})
	}))
	defer srv.Close()

	extractor := NewHTTPExtractor(srv.URL, "test-key")

	paragraphs, err := extractor.Extract(context.Background(), []byte("%PDF-raw-bytes"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, paragraphs)
}

func TestHTTPExtractorSurfacesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported format", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	extractor := NewHTTPExtractor(srv.URL, "")

	_, err := extractor.Extract(context.Background(), []byte("data"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestHTTPExtractorConnectionFailure(t *testing.T) {
	extractor := NewHTTPExtractor("http://127.0.0.1:1", "")

	_, err := extractor.Extract(context.Background(), []byte("data"), "")
	require.Error(t, err)
}
