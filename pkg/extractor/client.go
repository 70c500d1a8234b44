package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tinyland-inc/dokbot/pkg/logger"
)

// Request is the JSON body posted to every backend.
type Request struct {
	Action   string `json:"action"`
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// Client posts images to the backend configured for each document type.
// It never retries.
type Client struct {
	endpoints  map[DocumentType]string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each call. Zero keeps the client's default behavior.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// NewClient creates a client for the given endpoints.
func NewClient(endpoints map[DocumentType]string, opts ...Option) *Client {
	c := &Client{
		endpoints:  make(map[DocumentType]string, len(endpoints)),
		httpClient: &http.Client{},
	}
	for t, url := range endpoints {
		if url != "" {
			c.endpoints[t] = url
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL configured for t, or "".
func (c *Client) Endpoint(t DocumentType) string {
	return c.endpoints[t]
}

// Extract sends one image to the backend for docType. Every failure is
// folded into an error Result.
func (c *Client) Extract(ctx context.Context, docType DocumentType, data []byte, mimeType, fileName string) *Result {
	reqID := uuid.NewString()
	endpoint := c.endpoints[docType]
	if endpoint == "" {
		logger.ErrorCF("extractor", "No endpoint configured", map[string]any{
			"request_id":    reqID,
			"document_type": string(docType),
		})
		return ErrorResult(http.StatusInternalServerError, fmt.Sprintf("no endpoint configured for %s", docType))
	}

	fields := map[string]any{
		"request_id":    reqID,
		"document_type": string(docType),
		"endpoint":      endpoint,
		"mime_type":     mimeType,
		"bytes":         len(data),
	}
	logger.InfoCF("extractor", "Sending image to extractor", fields)

	start := time.Now()
	res := c.do(ctx, endpoint, Request{
		Action:   docType.Action(),
		FileData: base64.StdEncoding.EncodeToString(data),
		FileName: fileName,
		MimeType: mimeType,
	})

	fields["status"] = string(res.Status)
	fields["code"] = res.Code
	fields["elapsed_ms"] = time.Since(start).Milliseconds()
	if res.Status == StatusError {
		fields["error"] = res.Message
		logger.ErrorCF("extractor", "Extraction failed", fields)
	} else {
		logger.InfoCF("extractor", "Extraction response received", fields)
	}
	return res
}

func (c *Client) do(ctx context.Context, endpoint string, body Request) *Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return ErrorResult(http.StatusInternalServerError, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ErrorResult(http.StatusInternalServerError, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrorResult(http.StatusInternalServerError, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrorResult(http.StatusInternalServerError, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return ErrorResult(resp.StatusCode, "API error")
	}

	res, err := ParseResult(respBody)
	if err != nil {
		return ErrorResult(http.StatusInternalServerError, "parse error: "+err.Error())
	}
	return res
}
