package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flowfile"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces flow keys.
const DefaultPrefix = "cardflow:flow:"

// Store implements ports.FlowStore using Redis.
// Each flow is a JSON value; a sorted set indexes the flow ids.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for flows.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for flows.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(flowID string) string {
	return s.prefix + flowID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the flow to Redis.
func (s *Store) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	data, err := flowfile.Marshal(flowfile.FormatJSON, defs)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(flowID), data, s.ttl)

	// Score = expiry time, so List can prune lazily. No TTL means far future.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: flowID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the flow from Redis.
func (s *Store) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	val, err := s.client.Get(ctx, s.key(flowID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return flowfile.Decode(bytes.NewReader(val), flowfile.FormatJSON)
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(flowID))
	pipe.ZRem(ctx, s.indexKey(), flowID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored flow ids, pruning expired entries from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired flows: %w", err)
	}

	flows, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return flows, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
