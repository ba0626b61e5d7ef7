package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/langdetect/internal/models"
)

// ClientConfig represents the configuration for the analysis service client.
type ClientConfig struct {
	BaseURL    string
	UploadPath string
	// Timeout of zero means no client-side timeout.
	Timeout time.Duration
	// RateLimit is the maximum number of submissions per second; zero
	// disables throttling.
	RateLimit float64
}

// Client sends documents to the remote analysis service.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

const maxErrorBody = 512

// NewWithConfig creates a new Client with the given configuration.
func NewWithConfig(config ClientConfig, log *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.UploadPath == "" {
		config.UploadPath = "/api/v0/upload-html/"
	}
	if config.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if config.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit cannot be negative")
	}
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}, nil
}

// Endpoint returns the full upload URL.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.config.BaseURL, "/") + c.config.UploadPath
}

// Analyze uploads files together with the chosen method and returns the
// per-file results in the order the service reported them.
func (c *Client) Analyze(ctx context.Context, method models.Method, files []models.UploadedFile) (models.Results, error) {
	body, contentType, err := buildBody(method, files)
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.log.Debug("Sending documents for analysis",
		zap.String("endpoint", c.Endpoint()),
		zap.String("method", method.String()),
		zap.Int("files", len(files)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", models.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil || len(respBody) == 0 {
			return nil, fmt.Errorf("%w: analysis service returned status %d", models.ErrRequestFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: analysis service returned status %d: %s",
			models.ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	results, err := decodeResults(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Analysis completed",
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// buildBody writes every file under a repeated "files" part followed by a
// single "method" field.
func buildBody(method models.Method, files []models.UploadedFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := w.CreatePart(filePartHeader(f))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.WriteField("method", method.String()); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(f models.UploadedFile) textproto.MIMEHeader {
	contentType := f.ContentType
	if contentType == "" {
		contentType = models.ContentTypeFor(f.Name)
	}
	// Browsers send the bare media type; the service compares it verbatim.
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)
	return h
}
