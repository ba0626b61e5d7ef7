package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/langdetect/internal/models"
	"github.com/xhad/langdetect/internal/types"
)

var _ types.Analyzer = (*Client)(nil)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewWithConfig(ClientConfig{BaseURL: url}, nil)
	require.NoError(t, err)
	return client
}

func str(s string) *string { return &s }

func testFiles() []models.UploadedFile {
	return []models.UploadedFile{
		models.NewUploadedFile("a.html", "", []byte("<html><body>hello</body></html>")),
		models.NewUploadedFile("b.html", "text/html", []byte("<html><body>привет</body></html>")),
	}
}

func TestClient_Analyze(t *testing.T) {
	t.Run("successful analysis", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v0/upload-html/", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)

			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, []string{"neural"}, r.MultipartForm.Value["method"])

			parts := r.MultipartForm.File["files"]
			require.Len(t, parts, 2)
			assert.Equal(t, "a.html", parts[0].Filename)
			assert.Equal(t, "text/html", parts[0].Header.Get("Content-Type"))
			assert.Equal(t, "b.html", parts[1].Filename)

			f, err := parts[1].Open()
			require.NoError(t, err)
			data, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, "<html><body>привет</body></html>", string(data))

			resp := UploadResponse{Results: &[]ResultPayload{
				{
					Filename:        str("b.html"),
					Language:        str("ru"),
					ClassicSummary:  str("C"),
					KeywordsSummary: str("K"),
					NeuralSummary:   str("N"),
					Times:           &TimesPayload{ExtractionTime: 0.5, NeuralTime: 1.5},
				},
				{
					Filename:        str("a.html"),
					Language:        str("en"),
					ClassicSummary:  str(""),
					KeywordsSummary: str("k"),
					NeuralSummary:   str("n"),
				},
			}}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		results, err := client.Analyze(context.Background(), models.MethodNeural, testFiles())

		require.NoError(t, err)
		require.Len(t, results, 2)
		// server order is preserved
		assert.Equal(t, "b.html", results[0].Filename)
		assert.Equal(t, "ru", results[0].Language)
		require.NotNil(t, results[0].Times)
		assert.Equal(t, 2.0, results[0].Times.Total())
		assert.Equal(t, "a.html", results[1].Filename)
		assert.Equal(t, "", results[1].ClassicSummary)
		assert.Nil(t, results[1].Times)
	})

	t.Run("accepts any 2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"results": []}`))
		}))
		defer server.Close()

		results, err := newTestClient(t, server.URL).Analyze(context.Background(), models.MethodNgram, testFiles())

		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail": "expected HTML"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Analyze(context.Background(), models.MethodNgram, testFiles())

		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrRequestFailed))
		assert.False(t, errors.Is(err, models.ErrMalformedResponse))
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "expected HTML")
	})

	t.Run("connection error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestClient(t, url).Analyze(context.Background(), models.MethodNgram, testFiles())

		assert.True(t, errors.Is(err, models.ErrRequestFailed))
	})

	t.Run("rate limit spaces submissions", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"results": []}`))
		}))
		defer server.Close()

		client, err := NewWithConfig(ClientConfig{BaseURL: server.URL, RateLimit: 5}, nil)
		require.NoError(t, err)

		_, err = client.Analyze(context.Background(), models.MethodNgram, testFiles())
		require.NoError(t, err)

		start := time.Now()
		_, err = client.Analyze(context.Background(), models.MethodNgram, testFiles())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	})

	t.Run("context expires while throttled", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&hits, 1)
			_, _ = w.Write([]byte(`{"results": []}`))
		}))
		defer server.Close()

		client, err := NewWithConfig(ClientConfig{BaseURL: server.URL, RateLimit: 1}, nil)
		require.NoError(t, err)

		_, err = client.Analyze(context.Background(), models.MethodNgram, testFiles())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = client.Analyze(ctx, models.MethodNgram, testFiles())
		assert.True(t, errors.Is(err, models.ErrRequestFailed))
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"results": []}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := newTestClient(t, server.URL).Analyze(ctx, models.MethodNgram, testFiles())
		assert.True(t, errors.Is(err, models.ErrRequestFailed))
	})
}

func TestClient_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing results", `{"items": []}`},
		{"null results", `{"results": null}`},
		{"results not array", `{"results": {"filename": "a"}}`},
		{"missing field", `{"results": [{"filename": "a", "language": "en", "classic_summary": "c", "keywords_summary": "k"}]}`},
		{"wrong type", `{"results": [{"filename": "a", "language": 7, "classic_summary": "c", "keywords_summary": "k", "neural_summary": "n"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			results, err := newTestClient(t, server.URL).Analyze(context.Background(), models.MethodAlphabet, testFiles())

			assert.Nil(t, results)
			assert.True(t, errors.Is(err, models.ErrMalformedResponse))
			assert.True(t, errors.Is(err, models.ErrRequestFailed))
		})
	}
}

func TestNewWithConfig(t *testing.T) {
	client, err := NewWithConfig(ClientConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000/api/v0/upload-html/", client.Endpoint())
	assert.Equal(t, time.Duration(0), client.httpClient.Timeout)

	client, err = NewWithConfig(ClientConfig{BaseURL: "http://svc:9000/", UploadPath: "/upload"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://svc:9000/upload", client.Endpoint())

	_, err = NewWithConfig(ClientConfig{Timeout: -time.Second}, nil)
	assert.Error(t, err)

	_, err = NewWithConfig(ClientConfig{RateLimit: -1}, nil)
	assert.Error(t, err)
}

func TestBuildBody(t *testing.T) {
	body, contentType, err := buildBody(models.MethodAlphabet, []models.UploadedFile{
		models.NewUploadedFile(`quote"d.html`, "", []byte("x")),
	})
	require.NoError(t, err)
	assert.Contains(t, contentType, "multipart/form-data; boundary=")

	raw := body.String()
	assert.Contains(t, raw, `name="files"; filename="quote\"d.html"`)
	assert.Contains(t, raw, "Content-Type: text/html\r\n")
	assert.Contains(t, raw, `name="method"`)
	assert.Contains(t, raw, "alphabet")
}
