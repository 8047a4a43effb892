package docuchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 180 * time.Second

// Client is the docuchat SDK entry point.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a docuchat Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.apiKey,
		httpClient: hc,
	}
}

// CreateSession opens a new conversation.
func (c *Client) CreateSession(ctx context.Context) (Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/api/v1/sessions", "", http.NoBody, http.StatusCreated, &sess)
	return sess, err
}

// GetSession returns a session snapshot.
func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id, "", http.NoBody, http.StatusOK, &sess)
	return sess, err
}

// ListSessions returns all open sessions.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var resp struct {
		Items []Session `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", "", http.NoBody, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CloseSession tears down a session and its uploaded document.
func (c *Client) CloseSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id, "", http.NoBody, http.StatusNoContent, nil)
}

// History returns the session's conversation so far.
func (c *Client) History(ctx context.Context, id string) ([]Turn, error) {
	var resp struct {
		Turns []Turn `json:"turns"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id+"/history", "", http.NoBody, http.StatusOK, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Turns, nil
}

// Ingest uploads a document into the session. opts can be nil.
func (c *Client) Ingest(
	ctx context.Context, sessionID, filename string, data []byte, opts *IngestOptions,
) (IngestResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return IngestResult{}, fmt.Errorf("docuchat: build upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return IngestResult{}, fmt.Errorf("docuchat: build upload: %w", err)
	}

	if opts != nil {
		if opts.ChunkSize > 0 {
			_ = mw.WriteField("chunk_size", strconv.Itoa(opts.ChunkSize))
		}
		if opts.ChunkOverlap > 0 {
			_ = mw.WriteField("chunk_overlap", strconv.Itoa(opts.ChunkOverlap))
		}
		if opts.Reset {
			_ = mw.WriteField("reset", "true")
		}
	}
	if err := mw.Close(); err != nil {
		return IngestResult{}, fmt.Errorf("docuchat: build upload: %w", err)
	}

	var res IngestResult
	err = c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/documents",
		mw.FormDataContentType(), body, http.StatusCreated, &res)
	return res, err
}

// Ask answers a question about the session's document.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (Answer, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return Answer{}, fmt.Errorf("docuchat: encode question: %w", err)
	}

	var answer Answer
	err = c.do(ctx, http.MethodPost, "/api/v1/sessions/"+sessionID+"/ask",
		"application/json", bytes.NewReader(payload), http.StatusOK, &answer)
	return answer, err
}

// HealthCheck reports component health. Degraded reports are not errors;
// inspect Health.Status.
func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return Health{}, fmt.Errorf("docuchat: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("docuchat: health check: %w", err)
	}
	defer resp.Body.Close()

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("docuchat: decode health: %w", err)
	}
	return h, nil
}

func (c *Client) do(
	ctx context.Context, method, path, contentType string, body io.Reader, wantStatus int, out any,
) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("docuchat: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("docuchat: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return parseAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("docuchat: decode response: %w", err)
		}
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Code = "internal_error"
		apiErr.Message = resp.Status
	}

	return apiErr
}
