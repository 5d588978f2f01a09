// Package quota tracks remote completion token spend against a daily limit.
package quota

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/westend/backend/internal/kv"
)

const (
	DefaultKey    = "ai_daily_tokens"
	DefaultWindow = 24 * time.Hour
	warnRatio     = 0.8
)

// Limiter is what the completion client consults before and after a call.
type Limiter interface {
	Allow(ctx context.Context) (bool, error)
	Record(ctx context.Context, tokens int) (int64, error)
	Usage(ctx context.Context) (used int64, limit int64, err error)
}

// Budget is a fixed-window token counter. The window opens on the first
// recorded usage and the counter resets when the key expires.
type Budget struct {
	Store  kv.Store
	Key    string
	Limit  int64
	Window time.Duration
	Logger zerolog.Logger
}

func NewBudget(store kv.Store, limit int64, logger zerolog.Logger) *Budget {
	return &Budget{
		Store:  store,
		Key:    DefaultKey,
		Limit:  limit,
		Window: DefaultWindow,
		Logger: logger,
	}
}

func (b *Budget) Allow(ctx context.Context) (bool, error) {
	used, _, err := b.Usage(ctx)
	if err != nil {
		return false, err
	}
	return used < b.Limit, nil
}

func (b *Budget) Record(ctx context.Context, tokens int) (int64, error) {
	if tokens <= 0 {
		used, _, err := b.Usage(ctx)
		return used, err
	}
	used, err := b.Store.IncrBy(ctx, b.key(), int64(tokens), b.window())
	if err != nil {
		return 0, err
	}
	// Warn only on the call that crosses the threshold.
	threshold := int64(float64(b.Limit) * warnRatio)
	if used > threshold && used-int64(tokens) <= threshold {
		b.Logger.Warn().
			Int64("used", used).
			Int64("limit", b.Limit).
			Msg("AI token usage above 80% of daily limit")
	}
	return used, nil
}

func (b *Budget) Usage(ctx context.Context) (int64, int64, error) {
	raw, ok, err := b.Store.Get(ctx, b.key())
	if err != nil {
		return 0, b.Limit, err
	}
	if !ok {
		return 0, b.Limit, nil
	}
	used, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, b.Limit, err
	}
	return used, b.Limit, nil
}

func (b *Budget) key() string {
	if b.Key == "" {
		return DefaultKey
	}
	return b.Key
}

func (b *Budget) window() time.Duration {
	if b.Window <= 0 {
		return DefaultWindow
	}
	return b.Window
}
