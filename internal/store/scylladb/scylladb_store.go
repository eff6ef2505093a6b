// internal/store/scylladb/scylladb_store.go
package scylladb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/calston/taskleased/internal/leasestore"
	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/gocql/gocql"
)

var (
	// ErrMultipleEndpointsUnsupported is returned when more than one endpoint is provided.
	ErrMultipleEndpointsUnsupported = errors.New("ScyllaDB only supports one endpoint")
	ErrConfigOptionMissing          = errors.New("ScyllaDB requires a config option")
)

// StoreName the name of the store.
const StoreName string = "scylladb"

// init registers the ScyllaDB store with the leasestore package.
func init() {
	leasestore.Register(StoreName, newStore)
}

// newStore creates a new ScyllaDB store instance based on the provided configuration.
func newStore(ctx context.Context, options leasestore.Config, logger *observability.SLogger) (store.KVStore, error) {
	cfg, ok := options.(*ScyllaDBConfig)
	if !ok && options != nil {
		return nil, &store.InvalidConfigurationError{Store: StoreName, Config: options}
	}
	return New(ctx, cfg, logger)
}

// Store implements the store.KVStore interface over a ScyllaDB table.
//
// Expiry is delegated to ScyllaDB row TTLs: rows vanish at their expiry,
// so the `INSERT ... IF NOT EXISTS` lightweight transaction is the whole
// create-if-absent-or-expired primitive.
type Store struct {
	session       *gocql.Session
	tableName     string
	keyspaceName  string
	fullTableName string
	l             *observability.SLogger
	putQuery      string
	getQuery      string
	deleteQuery   string
	config        *ScyllaDBConfig
}

// GetConfig returns the current store configuration
func (s *Store) GetConfig() store.StoreConfig {
	return s.config
}

// parseConsistency converts string consistency to gocql.Consistency
func parseConsistency(c string) gocql.Consistency {
	switch c {
	case "CONSISTENCY_QUORUM":
		return gocql.Quorum
	case "CONSISTENCY_ONE":
		return gocql.One
	case "CONSISTENCY_ALL":
		return gocql.All
	default:
		return gocql.Quorum
	}
}

// New creates a new ScyllaDB client.
func New(ctx context.Context, config *ScyllaDBConfig, logger *observability.SLogger) (*Store, error) {
	if config == nil {
		return nil, ErrConfigOptionMissing
	}
	if len(config.Endpoints) > 1 {
		return nil, ErrMultipleEndpointsUnsupported
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(config.Host + ":" + strconv.Itoa(int(config.Port)))
	cluster.ProtoVersion = 4
	cluster.Consistency = parseConsistency(config.Consistency)

	session, err := cluster.CreateSession()
	if err != nil {
		logger.Errorf("Error creating session: %v", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sdb := &Store{
		session:       session,
		tableName:     config.Table,
		keyspaceName:  config.Keyspace,
		fullTableName: fmt.Sprintf(`"%s"."%s"`, config.Keyspace, config.Table),
		l:             logger,
		config:        config,
	}

	if err := sdb.initSession(); err != nil {
		session.Close()
		return nil, err
	}

	return sdb, nil
}

func (sdb *Store) initSession() error {
	if err := sdb.validateKeyspace(); err != nil {
		return err
	}
	if err := sdb.validateTable(); err != nil {
		return err
	}
	sdb.buildQueries()
	return nil
}

// buildQueries prepares the CQL statements used by the store.
func (sdb *Store) buildQueries() {
	sdb.putQuery = fmt.Sprintf(
		"INSERT INTO %s (key, payload, expires_at) VALUES (?, ?, ?) IF NOT EXISTS USING TTL ?",
		sdb.fullTableName)
	sdb.getQuery = fmt.Sprintf(
		"SELECT payload, expires_at FROM %s WHERE key = ?",
		sdb.fullTableName)
	sdb.deleteQuery = fmt.Sprintf(
		"DELETE FROM %s WHERE key = ?",
		sdb.fullTableName)
}

func (sdb *Store) validateKeyspace() error {
	err := sdb.session.Query(fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
	WITH replication = {
		'class' : 'SimpleStrategy',
		'replication_factor' : 3
	}`, sdb.keyspaceName)).Exec()
	if err != nil {
		return fmt.Errorf("failed to create keyspace: %w", err)
	}
	return nil
}

func (sdb *Store) validateTable() error {
	err := sdb.session.Query(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
        key text,
        payload blob,
        expires_at timestamp,
        PRIMARY KEY (key)
    )`, sdb.keyspaceName, sdb.tableName)).Exec()
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// PutIfAbsent writes a record at key unless an unexpired row is present.
// The lightweight transaction's applied flag is the atomicity guarantee;
// the row TTL makes expired rows absent without a sweep.
func (sdb *Store) PutIfAbsent(ctx context.Context, key string, payload []byte, expiresAt time.Time) (bool, error) {
	ttl, expired := rowTTL(time.Until(expiresAt))

	applied, err := sdb.session.Query(sdb.putQuery,
		key, payload, expiresAt, ttl).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		sdb.l.Errorf("Error writing record: %v", err)
		return false, fmt.Errorf("scylladb conditional write: %w", err)
	}
	if !applied {
		return false, nil
	}

	if expired {
		// ScyllaDB cannot store an already-expired row, so the insert
		// above used the shortest row TTL and the row is deleted right
		// away. Should this delete fail, the row TTL still reclaims it.
		if err := sdb.session.Query(sdb.deleteQuery, key).WithContext(ctx).Exec(); err != nil {
			sdb.l.Errorf("Error expiring record: %v", err)
			return false, fmt.Errorf("scylladb conditional write: %w", err)
		}
	}

	return true, nil
}

// Get retrieves the record at key. The row TTL guarantees a hit is
// unexpired; the stored expiry is still checked against the clock to
// cover rows written by a skewed writer.
func (sdb *Store) Get(ctx context.Context, key string) (*store.Record, error) {
	var payload []byte
	var expiresAt time.Time

	err := sdb.session.Query(sdb.getQuery, key).WithContext(ctx).Scan(&payload, &expiresAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, store.ErrKeyNotFound
		}
		sdb.l.Errorf("Error reading record: %v", err)
		return nil, fmt.Errorf("scylladb read: %w", err)
	}

	rec := &store.Record{Key: key, Payload: payload, ExpiresAt: expiresAt}
	if rec.Expired(time.Now()) {
		return nil, store.ErrKeyNotFound
	}

	return rec, nil
}

// Delete removes any record at key. Deleting a missing key is a no-op.
func (sdb *Store) Delete(ctx context.Context, key string) error {
	if err := sdb.session.Query(sdb.deleteQuery, key).WithContext(ctx).Exec(); err != nil {
		sdb.l.Errorf("Error deleting record: %v", err)
		return fmt.Errorf("scylladb delete: %w", err)
	}
	return nil
}

// Close closes the ScyllaDB session.
func (sdb *Store) Close() error {
	sdb.session.Close()
	return nil
}

// rowTTL converts a duration to whole row-TTL seconds, rounding
// sub-second positive durations up to one second. Non-positive
// durations report expired and map to a one-second TTL: the row is
// deleted immediately after the insert, but must not outlive its
// expiry if that delete is lost.
func rowTTL(d time.Duration) (int, bool) {
	if d <= 0 {
		return 1, true
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs, false
}
