package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"testing"

	"server/internal/openai"
)

// fakeBackend implements Backend in-memory for orchestrator tests.
type fakeBackend struct {
	mu sync.Mutex

	generateFunc func(prompt string) (string, error)
	genCalls     int
	genPrompts   []string

	uploadedName string
	uploadedData []byte
	fileCalls    int

	createdInput    string
	createdMetadata map[string]string
	batch           *openai.Batch

	contentData  []byte
	contentCalls int
}

func (f *fakeBackend) GenerateImage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.genCalls++
	f.genPrompts = append(f.genPrompts, prompt)
	fn := f.generateFunc
	f.mu.Unlock()
	if fn == nil {
		return pngBase64(1600, 1200, color.RGBA{A: 255}), nil
	}
	return fn(prompt)
}

func (f *fakeBackend) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++
	f.uploadedName = filename
	f.uploadedData = append([]byte(nil), data...)
	return "file-123", nil
}

func (f *fakeBackend) CreateBatch(ctx context.Context, inputFileID string, metadata map[string]string) (*openai.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdInput = inputFileID
	f.createdMetadata = metadata
	if f.batch != nil {
		return f.batch, nil
	}
	return &openai.Batch{ID: "batch_test", Status: "validating"}, nil
}

func (f *fakeBackend) GetBatch(ctx context.Context, batchID string) (*openai.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batch != nil {
		return f.batch, nil
	}
	return &openai.Batch{ID: batchID, Status: "in_progress"}, nil
}

func (f *fakeBackend) FileContent(ctx context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentCalls++
	return f.contentData, nil
}

func (f *fakeBackend) Model() string {
	return "test-image-model"
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genCalls
}

func pngBytes(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func pngBase64(w, h int, c color.Color) string {
	return base64.StdEncoding.EncodeToString(pngBytes(w, h, c))
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if len(uri) < len(prefix) || uri[:len(prefix)] != prefix {
		t.Fatalf("not a png data uri: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(prefix):])
	if err != nil {
		t.Fatalf("decode data uri: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}
