package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"uidtrust/pkg/platform/sentinel"
)

// maxTxAttempts bounds optimistic-transaction retries. Exhaustion surfaces
// as sentinel.ErrContention, which the HTTP layer translates to a 500.
const maxTxAttempts = 5

var transactionRetries = promauto.NewCounter(prometheus.CounterOpts{
	Name: "uidtrust_docstore_transaction_conflicts_total",
	Help: "Optimistic transaction attempts that lost a read-set race and were retried",
})

// runWithRetry drives attempt until it commits, hits a non-conflict error,
// or exhausts the retry budget.
func runWithRetry(ctx context.Context, attempt func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, maxTxAttempts-1), ctx)
	err := backoff.Retry(func() error {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			transactionRetries.Inc()
			return err
		}
		return backoff.Permanent(err)
	}, policy)

	if errors.Is(err, sentinel.ErrConflict) {
		return fmt.Errorf("transaction retries exhausted after %d attempts: %w", maxTxAttempts, sentinel.ErrContention)
	}
	return err
}
