package dbx

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

// retryBaseDelay is the first backoff step; each next step doubles it.
var retryBaseDelay = 20 * time.Millisecond

// WithRetry calls fn and repeats it with exponential backoff while it fails
// with a retryable storage error (see IsRetryable), at most attempts extra
// times. Non-retryable errors are returned as is. When the bound is exhausted
// the last error is wrapped with common.ErrorStoreBusy.
func WithRetry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 0 {
		attempts = 0
	}

	b := retry.WithMaxRetries(uint64(attempts), retry.NewExponential(retryBaseDelay))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	if err != nil && IsRetryable(err) {
		return fmt.Errorf("%w: %w", common.ErrorStoreBusy, err)
	}
	return err
}
