package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload imageRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Model != "gpt-image-1" {
			t.Fatalf("unexpected model: %s", payload.Model)
		}
		if payload.N != 1 || payload.ResponseFormat != "b64_json" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		if payload.Prompt != "a composed prompt" {
			t.Fatalf("unexpected prompt: %q", payload.Prompt)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": "aW1hZ2U="}},
		})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	got, err := client.GenerateImage(context.Background(), "a composed prompt")
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if got != "aW1hZ2U=" {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestGenerateImageEmptyPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{}})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.GenerateImage(context.Background(), "prompt"); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestGenerateImageErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.GenerateImage(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected backend message in error, got %v", err)
	}
}

func TestUploadFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("purpose"); got != "batch" {
			t.Fatalf("unexpected purpose: %s", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "manifest.jsonl" {
			t.Fatalf("unexpected filename: %s", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "line one\nline two\n" {
			t.Fatalf("unexpected file body: %q", data)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-abc"})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	id, err := client.UploadFile(context.Background(), "manifest.jsonl", []byte("line one\nline two\n"))
	if err != nil {
		t.Fatalf("UploadFile error: %v", err)
	}
	if id != "file-abc" {
		t.Fatalf("unexpected file id: %s", id)
	}
}

func TestCreateBatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/batches" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var payload createBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.InputFileID != "file-abc" {
			t.Fatalf("unexpected input file: %s", payload.InputFileID)
		}
		if payload.Endpoint != "/v1/images/generations" || payload.CompletionWindow != "24h" {
			t.Fatalf("unexpected batch parameters: %+v", payload)
		}
		if payload.Metadata["aspect_ratio"] != "4:3" {
			t.Fatalf("metadata not forwarded: %+v", payload.Metadata)
		}
		_ = json.NewEncoder(w).Encode(Batch{ID: "batch_xyz", Status: "validating"})
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	batch, err := client.CreateBatch(context.Background(), "file-abc", map[string]string{"aspect_ratio": "4:3"})
	if err != nil {
		t.Fatalf("CreateBatch error: %v", err)
	}
	if batch.ID != "batch_xyz" || batch.Status != "validating" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
}

func TestGetBatchAndFileContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/batches/batch_xyz":
			_ = json.NewEncoder(w).Encode(Batch{
				ID:           "batch_xyz",
				Status:       "completed",
				OutputFileID: "file-out",
				Metadata:     map[string]string{"aspect_ratio": "16:9"},
			})
		case "/files/file-out/content":
			_, _ = w.Write([]byte("raw result bytes"))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	batch, err := client.GetBatch(context.Background(), "batch_xyz")
	if err != nil {
		t.Fatalf("GetBatch error: %v", err)
	}
	if batch.Status != "completed" || batch.OutputFileID != "file-out" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	data, err := client.FileContent(context.Background(), batch.OutputFileID)
	if err != nil {
		t.Fatalf("FileContent error: %v", err)
	}
	if string(data) != "raw result bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}
