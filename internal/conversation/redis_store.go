package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/grovert/zabbix-maintenance-assistant/internal/models"
)

// RedisStore implements Store using Redis with a session TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) sessionKey(userID string) string {
	return fmt.Sprintf("maintenance:session:%s", userID)
}

func (r *RedisStore) LoadSession(ctx context.Context, userID string) (*Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(userID)).Result()
	if err == redis.Nil {
		return newSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from Redis: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &session, nil
}

func (r *RedisStore) AppendMessage(ctx context.Context, userID string, msg Message) error {
	session, err := r.LoadSession(ctx, userID)
	if err != nil {
		return err
	}

	session.Messages = append(session.Messages, msg)
	session.Metadata.LastActivity = time.Now()
	session.Metadata.MessageCount = len(session.Messages)
	if session.Metadata.MessageCount == 1 {
		session.Metadata.StartedAt = msg.Timestamp
	}

	return r.saveSession(ctx, session)
}

func (r *RedisStore) SetPending(ctx context.Context, userID string, req *models.ParsedMaintenanceRequest) error {
	session, err := r.LoadSession(ctx, userID)
	if err != nil {
		return err
	}
	session.Pending = req
	session.Metadata.LastActivity = time.Now()
	return r.saveSession(ctx, session)
}

func (r *RedisStore) ClearPending(ctx context.Context, userID string) error {
	return r.SetPending(ctx, userID, nil)
}

func (r *RedisStore) ClearSession(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *RedisStore) saveSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	// Set refreshes the TTL on every write.
	if err := r.client.Set(ctx, r.sessionKey(session.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func newSession(userID string) *Session {
	now := time.Now()
	return &Session{
		UserID:   userID,
		Messages: []Message{},
		Metadata: Metadata{StartedAt: now, LastActivity: now},
	}
}
