package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/voicegate/types"
)

// RedisConfig configures the redis conversation backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	// HistoryTTL bounds how long a closed session's history stays
	// readable. Zero means no expiry.
	HistoryTTL time.Duration `yaml:"history_ttl" json:"history_ttl"`
}

// DefaultRedisConfig returns the default redis backend configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:       "localhost:6379",
		HistoryTTL: 24 * time.Hour,
	}
}

// RedisStore keeps each session's history in a redis list, preserving
// append order via RPUSH. Item positions are derived from list order,
// so ordering survives process restarts.
type RedisStore struct {
	client *redis.Client
	config RedisConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(config RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		config: config,
		logger: logger.With(zap.String("component", "conversation_redis")),
		now:    time.Now,
	}, nil
}

func sessionKey(sessionID string) string {
	return "voicegate:conv:" + sessionID
}

func sessionMetaKey(sessionID string) string {
	return "voicegate:conv:" + sessionID + ":meta"
}

// Register implements Store.
func (s *RedisStore) Register(ctx context.Context, sessionID string) error {
	if err := s.client.Set(ctx, sessionMetaKey(sessionID), "1", s.config.HistoryTTL).Err(); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

// Append implements Store. RPUSH is atomic in redis, so the returned
// list length doubles as the item's monotonic position.
func (s *RedisStore) Append(ctx context.Context, sessionID string, item types.ConversationItem) (types.ConversationItem, error) {
	exists, err := s.client.Exists(ctx, sessionMetaKey(sessionID)).Result()
	if err != nil {
		return types.ConversationItem{}, fmt.Errorf("append item: %w", err)
	}
	if exists == 0 {
		return types.ConversationItem{}, types.NewUnknownSessionError(sessionID)
	}

	stored := item.Clone()
	stored.SessionID = sessionID
	if stored.ID == "" {
		stored.ID = "item_" + uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return types.ConversationItem{}, fmt.Errorf("marshal item: %w", err)
	}
	length, err := s.client.RPush(ctx, sessionKey(sessionID), payload).Result()
	if err != nil {
		return types.ConversationItem{}, fmt.Errorf("append item: %w", err)
	}
	if s.config.HistoryTTL > 0 {
		s.client.Expire(ctx, sessionKey(sessionID), s.config.HistoryTTL)
	}

	stored.Position = length
	return stored, nil
}

// List implements Store. Positions are reassigned from list order so
// they stay consistent even when payloads were written concurrently.
func (s *RedisStore) List(ctx context.Context, sessionID string) ([]types.ConversationItem, error) {
	exists, err := s.client.Exists(ctx, sessionMetaKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if exists == 0 {
		return nil, types.NewUnknownSessionError(sessionID)
	}

	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]types.ConversationItem, 0, len(raw))
	for i, entry := range raw {
		var item types.ConversationItem
		if err := json.Unmarshal([]byte(entry), &item); err != nil {
			return nil, fmt.Errorf("unmarshal item %d: %w", i, err)
		}
		item.Position = int64(i) + 1
		out = append(out, item)
	}
	return out, nil
}

// Name identifies the store in health check reports.
func (s *RedisStore) Name() string { return "redis" }

// Check pings redis; used as a readiness probe.
func (s *RedisStore) Check(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
