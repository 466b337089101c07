package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"server/internal/domain"
	"server/internal/prompt"
)

// aspectMetadataKey carries the requested aspect ratio on the backend batch,
// since the backend has no native aspect concept. The status resolver reads
// it back at result time.
const aspectMetadataKey = "aspect_ratio"

// manifestItem is one line of the newline-delimited work manifest uploaded
// to the backend's batch API.
type manifestItem struct {
	CustomID string       `json:"custom_id"`
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Body     manifestBody `json:"body"`
}

type manifestBody struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// BatchOrchestrator encodes many prompts into a work manifest, submits it as
// one asynchronous backend job and returns the job handle immediately.
type BatchOrchestrator struct {
	backend     Backend
	registry    domain.BatchJobRegistry
	logger      zerolog.Logger
	stylePrefix string
}

func NewBatchOrchestrator(backend Backend, registry domain.BatchJobRegistry, logger zerolog.Logger, stylePrefix string) *BatchOrchestrator {
	return &BatchOrchestrator{
		backend:     backend,
		registry:    registry,
		logger:      logger,
		stylePrefix: stylePrefix,
	}
}

// Submit composes every subject, writes the manifest to a transient file,
// uploads it and creates the batch. The returned id is the only handle the
// caller gets; the backend stays the source of truth for job state.
func (o *BatchOrchestrator) Submit(ctx context.Context, subjects []string, aspect domain.AspectRatio) (string, error) {
	if len(subjects) == 0 {
		return "", fmt.Errorf("%w: prompts are required", domain.ErrBadRequest)
	}

	composed := lo.Map(subjects, func(subject string, _ int) string {
		return prompt.Compose(o.stylePrefix, subject)
	})

	manifest, err := o.writeManifest(composed)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(manifest); err != nil {
			o.logger.Debug().Err(err).Str("path", manifest).Msg("batch: manifest cleanup failed")
		}
	}()

	data, err := os.ReadFile(manifest)
	if err != nil {
		return "", fmt.Errorf("batch: read manifest: %w", err)
	}

	fileID, err := o.backend.UploadFile(ctx, filepath.Base(manifest), data)
	if err != nil {
		return "", fmt.Errorf("batch: upload manifest: %w", err)
	}

	batch, err := o.backend.CreateBatch(ctx, fileID, map[string]string{
		aspectMetadataKey: string(aspect),
	})
	if err != nil {
		return "", fmt.Errorf("batch: create batch: %w", err)
	}

	o.logger.Info().
		Str("batch_id", batch.ID).
		Int("items", len(composed)).
		Str("aspect_ratio", string(aspect)).
		Msg("batch: submitted")

	// The id exists from here on; nothing below may fail the submission.
	if o.registry != nil {
		if err := o.registry.Record(ctx, domain.BatchJob{
			ID:          batch.ID,
			AspectRatio: aspect,
			ItemCount:   len(composed),
		}); err != nil {
			o.logger.Warn().Err(err).Str("batch_id", batch.ID).Msg("batch: registry record failed")
		}
	}

	return batch.ID, nil
}

// writeManifest serializes one manifest line per composed prompt into a
// fresh temp file. The file is fully flushed and closed before the path is
// returned, so the upload never races the writes.
func (o *BatchOrchestrator) writeManifest(composed []string) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("manifest-%s.jsonl", uuid.NewString()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("batch: create manifest: %w", err)
	}

	enc := json.NewEncoder(f)
	model := o.backend.Model()
	for i, composedPrompt := range composed {
		item := manifestItem{
			CustomID: fmt.Sprintf("task-%05d", i),
			Method:   "POST",
			URL:      "/v1/images/generations",
			Body: manifestBody{
				Model:  model,
				Prompt: composedPrompt,
			},
		}
		if err := enc.Encode(item); err != nil {
			f.Close()
			return "", fmt.Errorf("batch: encode manifest line %d: %w", i, err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("batch: close manifest: %w", err)
	}
	return path, nil
}
