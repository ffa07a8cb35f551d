// Package redis keeps conversation history in Redis lists so several
// processes can share sessions.
//
// Each session is a list at <prefix><id> holding JSON-encoded exchanges,
// oldest first. Appends push to the tail and trim the head in one
// transaction.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "lectern:session:"

const dialTimeout = 5 * time.Second

// Config holds Redis connection settings.
type Config struct {
	// Addr is host:port.
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int

	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration

	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// Store implements driven.SessionStore on Redis lists.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	s := NewStoreFromClient(rdb, cfg)
	s.owned = true
	return s, nil
}

// NewStoreFromClient wraps an existing client. Close does not close it.
func NewStoreFromClient(rdb goredis.UniversalClient, cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: cfg.TTL}
}

// Key returns the Redis key for a session.
func (s *Store) Key(sessionID string) string {
	return s.prefix + sessionID
}

// Load returns the session's exchanges, oldest first.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	raw, err := s.rdb.LRange(ctx, s.Key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]domain.Exchange, 0, len(raw))
	for _, item := range raw {
		ex, err := decodeExchange(item)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// Append pushes an exchange and trims the list to the newest max entries.
func (s *Store) Append(ctx context.Context, sessionID string, exchange domain.Exchange, max int) error {
	key := s.Key(sessionID)
	if max <= 0 {
		return s.rdb.Del(ctx, key).Err()
	}
	payload, err := encodeExchange(exchange)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, key, payload)
		p.LTrim(ctx, key, int64(-max), -1)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// Clear deletes a session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, s.Key(sessionID)).Err()
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}

type exchangeJSON struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

func encodeExchange(ex domain.Exchange) (string, error) {
	b, err := json.Marshal(exchangeJSON{User: ex.User, Assistant: ex.Assistant})
	if err != nil {
		return "", fmt.Errorf("encode exchange: %w", err)
	}
	return string(b), nil
}

func decodeExchange(s string) (domain.Exchange, error) {
	var e exchangeJSON
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return domain.Exchange{}, fmt.Errorf("decode exchange: %w", err)
	}
	return domain.Exchange{User: e.User, Assistant: e.Assistant}, nil
}
