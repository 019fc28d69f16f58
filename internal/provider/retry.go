package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"
)

// capBackoff always returns the same capped delay no matter how many times
// NextBackOff is called; attempt counting and the max-retries cutoff live in
// GenerateWithRetry, not in the BackOff itself.
type capBackoff struct {
	attempt int
	delay   time.Duration
}

func (b *capBackoff) NextBackOff() time.Duration {
	b.attempt++
	d := time.Duration(1<<uint(b.attempt-1)) * time.Second
	if d > b.delay {
		d = b.delay
	}
	return d
}

func (b *capBackoff) Reset() { b.attempt = 0 }

// GenerateWithRetry calls p.Generate, retrying on failure with 2^(attempt-1)
// second backoff capped at 10s, up to maxRetries additional attempts.
// Streaming completions do not go through this path.
func GenerateWithRetry(ctx context.Context, p Provider, req *CompletionRequest, maxRetries int) (*schema.Message, error) {
	var msg *schema.Message

	op := func() error {
		var err error
		msg, err = p.Generate(ctx, req)
		return err
	}

	b := backoff.WithMaxRetries(&capBackoff{delay: 10 * time.Second}, uint64(maxRetries))
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return msg, nil
}
