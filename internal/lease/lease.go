// internal/lease/lease.go
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/google/uuid"
)

// DefaultTTL is the lease lifetime used when the constructor is given a
// zero default.
const DefaultTTL = 15 * time.Second

var (
	ErrStoreMissing  = errors.New("lease store requires a backing kv store")
	ErrLoggerMissing = errors.New("lease store requires a logger")
)

// LeaseStore hands out time-bounded exclusive claims on (task, args)
// pairs. A claim is a single record in an expiring key-value store; the
// store's conditional write is the only serialization point, so
// concurrent acquirers for the same key cannot both succeed while a
// claim is unexpired.
//
// LeaseStore keeps no lease state between calls. Every Acquire and
// Release is one round trip against the backing store.
type LeaseStore struct {
	kv         store.KVStore
	defaultTTL time.Duration
	keyPrefix  string
	logger     *observability.SLogger
	metrics    observability.MetricsClient
}

// Option configures a LeaseStore.
type Option func(*LeaseStore)

// WithKeyPrefix namespaces every derived key with the given prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *LeaseStore) {
		s.keyPrefix = prefix
	}
}

// WithMetrics attaches a metrics client recording acquire/release outcomes.
func WithMetrics(m observability.MetricsClient) Option {
	return func(s *LeaseStore) {
		s.metrics = m
	}
}

// New creates a LeaseStore over the given backing store. defaultTTL is
// the lease lifetime used when Acquire is called without WithTTL; zero
// falls back to DefaultTTL.
func New(kv store.KVStore, defaultTTL time.Duration, logger *observability.SLogger, opts ...Option) (*LeaseStore, error) {
	if kv == nil {
		return nil, ErrStoreMissing
	}
	if logger == nil {
		return nil, ErrLoggerMissing
	}
	if defaultTTL == 0 {
		defaultTTL = DefaultTTL
	}

	s := &LeaseStore{
		kv:         kv,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type acquireOptions struct {
	ttl    time.Duration
	ttlSet bool
}

// AcquireOption configures a single Acquire call.
type AcquireOption func(*acquireOptions)

// WithTTL overrides the default lease lifetime for one Acquire call.
// Zero and negative values are valid and produce an immediately expired
// lease: the record is still written, just with an expiry at or before
// now.
func WithTTL(ttl time.Duration) AcquireOption {
	return func(o *acquireOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}

// Acquire attempts to claim the lease for (task, args). It returns true
// when the claim was written, false when an unexpired claim already
// exists. Contention is never an error; only store-layer failures are,
// and those are propagated without retry.
//
// Acquire is a single non-blocking attempt. It never waits on another
// caller's lease.
func (s *LeaseStore) Acquire(ctx context.Context, task string, args any, opts ...AcquireOption) (bool, error) {
	key, err := s.key(task, args)
	if err != nil {
		return false, err
	}

	o := acquireOptions{ttl: s.defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	expiresAt := time.Now().Add(o.ttl)
	payload := []byte(uuid.NewString())

	start := time.Now()
	ok, err := s.kv.PutIfAbsent(ctx, key, payload, expiresAt)
	if err != nil {
		s.count(ctx, "lease_acquire_errors_total", task)
		return false, fmt.Errorf("acquiring lease for task %q: %w", task, err)
	}

	s.observe(ctx, "acquire", task, time.Since(start))
	if ok {
		s.count(ctx, "lease_acquire_total", task)
		s.logger.Debugf("acquired lease for task %q (ttl %s)", task, o.ttl)
	} else {
		s.count(ctx, "lease_contention_total", task)
		s.logger.Debugf("lease for task %q already held", task)
	}
	return ok, nil
}

// Release drops any claim for (task, args), held, expired or absent.
// Releasing a missing or expired lease is a no-op; the return value
// carries no information about prior lease state, only store-layer
// failures.
func (s *LeaseStore) Release(ctx context.Context, task string, args any) error {
	key, err := s.key(task, args)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.kv.Delete(ctx, key); err != nil {
		s.count(ctx, "lease_release_errors_total", task)
		return fmt.Errorf("releasing lease for task %q: %w", task, err)
	}

	s.observe(ctx, "release", task, time.Since(start))
	s.count(ctx, "lease_release_total", task)
	s.logger.Debugf("released lease for task %q", task)
	return nil
}

// Key exposes the derived store key for (task, args), prefix included.
// Callers use it for store-level inspection only.
func (s *LeaseStore) Key(task string, args any) (string, error) {
	return s.key(task, args)
}

func (s *LeaseStore) key(task string, args any) (string, error) {
	key, err := DeriveKey(task, args)
	if err != nil {
		return "", err
	}
	if s.keyPrefix != "" {
		return s.keyPrefix + ":" + key, nil
	}
	return key, nil
}

func (s *LeaseStore) count(ctx context.Context, name, task string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Increment(ctx, name, 1, "task", task)
}

func (s *LeaseStore) observe(ctx context.Context, op, task string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordLatency(ctx, d, "operation", op, "task", task); err != nil {
		s.logger.Errorf("Failed to record %s latency: %v", op, err)
	}
}
