package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/db"
	domusage "github.com/kailas-cloud/smartsearch/internal/domain/usage"
)

// kv is the slice of the key-value store the budget counters need.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store persists completion token counters. Keys have the form
// smartsearch:budget:{provider}:{daily|monthly}:{stamp}; each counter
// expires some time after its period ends.
type Store struct {
	kv  kv
	ttl map[domusage.Period]time.Duration
}

// New creates a budget store. dailyTTL should outlive a day (48h is typical),
// monthTTL a month (62 days).
func New(s kv, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		kv: s,
		ttl: map[domusage.Period]time.Duration{
			domusage.PeriodDay:   dailyTTL,
			domusage.PeriodMonth: monthTTL,
		},
	}
}

// IncrBy adds val to the counter and arms its expiry on first write.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.kv.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget incr %s: %w", key, err)
	}
	// NX keeps the first expiry; later increments do not extend it.
	if err := s.kv.Expire(ctx, key, s.ttl[periodOf(key)], true); err != nil {
		return fmt.Errorf("budget expire %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 for a missing or empty key.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("budget get %s: %w", key, err)
	case len(data) == 0:
		return 0, nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget get %s: counter %q is not an integer", key, data)
	}
	return n, nil
}

func periodOf(key string) domusage.Period {
	for _, seg := range strings.Split(key, ":") {
		if seg == "daily" {
			return domusage.PeriodDay
		}
	}
	return domusage.PeriodMonth
}
