// internal/store/memory/memory_store.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/calston/taskleased/internal/leasestore"
	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
)

// StoreName is the registered name of the in-memory store
const StoreName = "memory"

func init() {
	leasestore.Register(StoreName, newStore)
}

// newStore creates a new in-memory store instance from configuration
func newStore(ctx context.Context, options leasestore.Config, logger *observability.SLogger) (store.KVStore, error) {
	cfg, ok := options.(*MemoryConfig)
	if !ok && options != nil {
		return nil, &store.InvalidConfigurationError{Store: StoreName, Config: options}
	}
	return New(ctx, cfg, logger)
}

// Store implements store.KVStore over a mutex-guarded map.
//
// Expiry is enforced by reads: expired records are treated as absent by
// Get and PutIfAbsent whether or not the sweeper has removed them yet.
// The sweeper only reclaims memory.
type Store struct {
	mu      sync.Mutex
	records map[string]store.Record
	l       *observability.SLogger
	config  *MemoryConfig

	stopCh chan struct{}
	wg     sync.WaitGroup

	// now is a test hook
	now func() time.Time
}

// New creates a new in-memory store with the provided configuration
func New(_ context.Context, config *MemoryConfig, logger *observability.SLogger) (*Store, error) {
	if config == nil {
		config = NewMemoryConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		records: make(map[string]store.Record),
		l:       logger,
		config:  config,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	if config.SweepInterval > 0 {
		s.wg.Add(1)
		go s.sweeper(config.SweepInterval)
	}

	return s, nil
}

// GetConfig returns the current store configuration
func (s *Store) GetConfig() store.StoreConfig {
	return s.config
}

// PutIfAbsent writes a record at key unless an unexpired one is there.
func (s *Store) PutIfAbsent(_ context.Context, key string, payload []byte, expiresAt time.Time) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok && !rec.Expired(now) {
		return false, nil
	}

	s.records[key] = store.Record{
		Key:       key,
		Payload:   append([]byte(nil), payload...),
		ExpiresAt: expiresAt,
	}
	return true, nil
}

// Get returns the unexpired record at key.
func (s *Store) Get(_ context.Context, key string) (*store.Record, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Expired(now) {
		return nil, store.ErrKeyNotFound
	}

	out := rec
	out.Payload = append([]byte(nil), rec.Payload...)
	return &out, nil
}

// Delete removes any record at key, expired or not.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Close stops the sweeper.
func (s *Store) Close() error {
	close(s.stopCh)
	s.wg.Wait()
	return nil
}

// sweeper periodically purges expired records. Purging is garbage
// collection only; correctness never depends on it running.
func (s *Store) sweeper(interval time.Duration) {
	defer s.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
		}
	}
}

// contains reports whether a record physically exists at key, expired
// or not. Test use only.
func (s *Store) contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[key]
	return ok
}
