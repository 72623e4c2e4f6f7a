package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/logger"
)

const (
	DefaultTxTimeout  = 3 * time.Second
	DefaultMaxRetries = 3
)

var readOnly = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

type Option func(*txRunner)

// WithTxTimeout bounds a transaction whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(r *txRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxRetries sets how often a transaction is retried on transient faults.
func WithMaxRetries(n uint64) Option {
	return func(r *txRunner) {
		r.maxRetries = n
	}
}

type txRunner struct {
	db         *gorm.DB
	timeout    time.Duration
	maxRetries uint64
}

func newTxRunner(db *gorm.DB, opts ...Option) txRunner {
	r := txRunner{
		db:         db,
		timeout:    DefaultTxTimeout,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(&r)
	}

	return r
}

// run executes fn as one transaction. The transaction is rolled back on any
// error returned by fn and retried from scratch only on transient faults.
func (r txRunner) run(ctx context.Context, opts *sql.TxOptions, fn func(tx *gorm.DB) error) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := r.db.WithContext(ctx).Transaction(fn, opts)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}

		logger.FromContext(ctx).Warn("transient store error",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx))
}
