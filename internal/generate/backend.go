package generate

import (
	"context"

	"server/internal/openai"
)

// Backend is the slice of the generation backend this package consumes. It is
// satisfied by *openai.Client and faked in tests.
type Backend interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	UploadFile(ctx context.Context, filename string, data []byte) (string, error)
	CreateBatch(ctx context.Context, inputFileID string, metadata map[string]string) (*openai.Batch, error)
	GetBatch(ctx context.Context, batchID string) (*openai.Batch, error)
	FileContent(ctx context.Context, fileID string) ([]byte, error)
	Model() string
}

var _ Backend = (*openai.Client)(nil)
