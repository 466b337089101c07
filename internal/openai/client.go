package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options controls how the generation backend client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is a thin facade over the OpenAI-compatible generation backend. It
// covers the two surfaces the service consumes: the single-image generation
// endpoint and the file-based batch API (upload manifest, create batch, poll
// batch, download result file).
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

const defaultTimeout = 50 * time.Second

// NewClient constructs a backend client with sane defaults. Callers may
// provide a nil HTTP client; one with the per-call timeout will be created.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-image-1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    base,
		model:      model,
		httpClient: client,
	}
}

// Model returns the configured image model identifier.
func (c *Client) Model() string {
	return c.model
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ErrEmptyPayload reports a 2xx response whose image payload was absent.
// Callers treat it the same as a transport failure.
var ErrEmptyPayload = errors.New("openai: empty image payload")

// GenerateImage requests a single image for the prompt and returns the
// base64-encoded raster exactly as the backend produced it.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload := imageRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		ResponseFormat: "b64_json",
	}
	var out imageResponse
	if err := c.postJSON(ctx, "/images/generations", payload, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].B64JSON) == "" {
		return "", ErrEmptyPayload
	}
	return out.Data[0].B64JSON, nil
}

type fileResponse struct {
	ID string `json:"id"`
}

// UploadFile uploads a batch input file (purpose=batch) and returns its id.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "batch"); err != nil {
		return "", fmt.Errorf("openai: write purpose field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("openai: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("openai: write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("openai: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out fileResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("openai: file upload returned no id")
	}
	return out.ID, nil
}

// Batch is the backend's view of an asynchronous job.
type Batch struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	OutputFileID string            `json:"output_file_id"`
	ErrorFileID  string            `json:"error_file_id"`
	Metadata     map[string]string `json:"metadata"`
}

type createBatchRequest struct {
	InputFileID      string            `json:"input_file_id"`
	Endpoint         string            `json:"endpoint"`
	CompletionWindow string            `json:"completion_window"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CreateBatch registers an uploaded manifest as one asynchronous batch job.
// The 24h completion window selects the backend's economy class.
func (c *Client) CreateBatch(ctx context.Context, inputFileID string, metadata map[string]string) (*Batch, error) {
	payload := createBatchRequest{
		InputFileID:      inputFileID,
		Endpoint:         "/v1/images/generations",
		CompletionWindow: "24h",
		Metadata:         metadata,
	}
	var out Batch
	if err := c.postJSON(ctx, "/batches", payload, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("openai: batch creation returned no id")
	}
	return &out, nil
}

// GetBatch fetches the current state of a batch job by id.
func (c *Client) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/batches/"+url.PathEscape(batchID), nil)
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	var out Batch
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FileContent downloads the raw bytes of a backend file, typically a batch
// result manifest.
func (c *Client) FileContent(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read file content: %w", err)
	}
	return data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: invoke backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) statusError(resp *http.Response) error {
	var apiErr errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("openai status %d", resp.StatusCode)
}
