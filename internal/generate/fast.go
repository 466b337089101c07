package generate

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"server/internal/domain"
	"server/internal/imaging"
	"server/internal/prompt"
)

// fastPromptCap bounds the synchronous path. Anything past the cap is
// dropped silently; large workloads belong on the batch path.
const fastPromptCap = 10

// FastOrchestrator drives the synchronous small-batch path: compose,
// generate and normalize every prompt before returning.
type FastOrchestrator struct {
	client      *Client
	logger      zerolog.Logger
	stylePrefix string
	parallel    bool
}

func NewFastOrchestrator(client *Client, logger zerolog.Logger, stylePrefix string, parallel bool) *FastOrchestrator {
	return &FastOrchestrator{
		client:      client,
		logger:      logger,
		stylePrefix: stylePrefix,
		parallel:    parallel,
	}
}

// Run generates one normalized image per subject and returns PNG data URIs
// in input order. Any single failure fails the whole call; there are no
// partial results on this path.
func (o *FastOrchestrator) Run(ctx context.Context, subjects []string, aspect domain.AspectRatio) ([]string, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: prompts are required", domain.ErrBadRequest)
	}
	if len(subjects) > fastPromptCap {
		o.logger.Info().
			Int("submitted", len(subjects)).
			Int("cap", fastPromptCap).
			Msg("fast: truncating prompt list")
		subjects = subjects[:fastPromptCap]
	}

	images := make([]string, len(subjects))
	if o.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, subject := range subjects {
			i, subject := i, subject
			g.Go(func() error {
				uri, err := o.one(gctx, subject, aspect)
				if err != nil {
					return err
				}
				images[i] = uri
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return images, nil
	}

	for i, subject := range subjects {
		uri, err := o.one(ctx, subject, aspect)
		if err != nil {
			return nil, err
		}
		images[i] = uri
	}
	return images, nil
}

func (o *FastOrchestrator) one(ctx context.Context, subject string, aspect domain.AspectRatio) (string, error) {
	composed := prompt.Compose(o.stylePrefix, subject)
	payload, err := o.client.Generate(ctx, composed)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: base64 payload: %v", domain.ErrImageDecode, err)
	}
	normalized, err := imaging.Normalize(raw, aspect)
	if err != nil {
		return "", err
	}
	return imaging.DataURI(normalized), nil
}
