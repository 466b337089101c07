package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/imaging"
)

// resultLine mirrors one line of the backend's result manifest. Lines for
// failed items carry no decodable payload and are skipped.
type resultLine struct {
	CustomID string `json:"custom_id"`
	Response struct {
		StatusCode int `json:"status_code"`
		Body       struct {
			Data []struct {
				B64JSON string `json:"b64_json"`
			} `json:"data"`
		} `json:"body"`
	} `json:"response"`
}

// PollResult is what one status query yields. Images and Count are only set
// once Status is completed.
type PollResult struct {
	Status domain.BatchStatus
	Images []string
	Count  int
}

// StatusResolver observes backend-driven batch state. On completion it
// downloads the result manifest, normalizes every decodable payload and
// returns the images. Nothing is cached: polling a completed job twice
// downloads and normalizes twice.
type StatusResolver struct {
	backend       Backend
	logger        zerolog.Logger
	defaultAspect domain.AspectRatio
}

func NewStatusResolver(backend Backend, logger zerolog.Logger, defaultAspect domain.AspectRatio) *StatusResolver {
	return &StatusResolver{
		backend:       backend,
		logger:        logger,
		defaultAspect: defaultAspect,
	}
}

// Poll queries the batch by handle. Non-terminal states return status only;
// a completed batch returns the normalized images in manifest-line order.
func (r *StatusResolver) Poll(ctx context.Context, batchID string) (*PollResult, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, fmt.Errorf("%w: batch_id is required", domain.ErrBadRequest)
	}

	batch, err := r.backend.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("status: get batch: %w", err)
	}

	status := domain.MapBackendStatus(batch.Status)
	if status != domain.BatchStatusCompleted {
		return &PollResult{Status: status}, nil
	}

	aspect := r.aspectFromMetadata(batch.Metadata)
	if batch.OutputFileID == "" {
		r.logger.Warn().Str("batch_id", batchID).Msg("status: completed batch has no output file")
		return &PollResult{Status: status, Images: []string{}}, nil
	}

	data, err := r.backend.FileContent(ctx, batch.OutputFileID)
	if err != nil {
		return nil, fmt.Errorf("status: download results: %w", err)
	}

	images := r.decodeResults(batchID, data, aspect)
	return &PollResult{Status: status, Images: images, Count: len(images)}, nil
}

// decodeResults walks the result manifest line by line. A line without a
// usable payload never fails the call; partial failure manifests are normal.
func (r *StatusResolver) decodeResults(batchID string, data []byte, aspect domain.AspectRatio) []string {
	images := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Result lines embed whole base64 images, far past the default token
	// limit.
	scanner.Buffer(make([]byte, 0, 1<<20), 64<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item resultLine
		if err := json.Unmarshal(line, &item); err != nil {
			r.logger.Debug().Err(err).Int("line", lineNo).Str("batch_id", batchID).Msg("status: skipping unparseable result line")
			continue
		}
		if len(item.Response.Body.Data) == 0 || item.Response.Body.Data[0].B64JSON == "" {
			r.logger.Debug().Int("line", lineNo).Str("custom_id", item.CustomID).Msg("status: skipping result without payload")
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(item.Response.Body.Data[0].B64JSON)
		if err != nil {
			r.logger.Debug().Err(err).Str("custom_id", item.CustomID).Msg("status: skipping undecodable payload")
			continue
		}
		normalized, err := imaging.Normalize(raw, aspect)
		if err != nil {
			r.logger.Debug().Err(err).Str("custom_id", item.CustomID).Msg("status: skipping unnormalizable image")
			continue
		}
		images = append(images, imaging.DataURI(normalized))
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn().Err(err).Str("batch_id", batchID).Msg("status: result scan stopped early")
	}
	return images
}

func (r *StatusResolver) aspectFromMetadata(metadata map[string]string) domain.AspectRatio {
	aspect, err := domain.ParseAspectRatio(metadata[aspectMetadataKey])
	if err != nil {
		return r.defaultAspect
	}
	return aspect
}
