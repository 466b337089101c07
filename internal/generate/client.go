package generate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// ClientOptions tunes the retry policy around single-image generation.
type ClientOptions struct {
	// MaxAttempts is the total number of attempts, not additional retries.
	MaxAttempts int
	// BackoffUnit scales the attempt-proportional delay: the wait after
	// attempt n is n*BackoffUnit.
	BackoffUnit time.Duration
}

// Client wraps one backend call per prompt with bounded retries. All retry
// policy lives here; orchestrators never retry on their own.
type Client struct {
	backend     Backend
	logger      zerolog.Logger
	maxAttempts int
	backoffUnit time.Duration
}

const (
	defaultMaxAttempts = 3
	defaultBackoffUnit = 750 * time.Millisecond
)

func NewClient(backend Backend, logger zerolog.Logger, opts ClientOptions) *Client {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoffUnit := opts.BackoffUnit
	if backoffUnit <= 0 {
		backoffUnit = defaultBackoffUnit
	}
	return &Client{
		backend:     backend,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffUnit: backoffUnit,
	}
}

// Generate requests one image for the composed prompt and returns the
// backend's base64 payload. A transport failure, an error status, and a
// success response with an empty payload all count as failed attempts. After
// the final attempt the last cause is surfaced wrapped in ErrGeneration.
func (c *Client) Generate(ctx context.Context, composedPrompt string) (string, error) {
	digest := promptDigest(composedPrompt)
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		payload, err := c.backend.GenerateImage(ctx, composedPrompt)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Str("prompt_digest", digest).
			Msg("generate: attempt failed")

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * c.backoffUnit):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %v", domain.ErrGeneration, c.maxAttempts, lastErr)
}

// promptDigest identifies a prompt in logs without echoing its full text.
func promptDigest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:12]
}
