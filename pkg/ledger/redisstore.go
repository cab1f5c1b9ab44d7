package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/formlane/visor/pkg/platform"
)

// RedisStore keeps view events in a Redis hash per user, for deployments
// that share session state across tabs or instances. The hash maps record
// id to "eventID|formID".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at the given URL. A zero ttl keeps hashes
// forever.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func viewedKey(userID string) string {
	return "visor:viewed:" + userID
}

// Load returns all view events recorded for the user.
func (s *RedisStore) Load(ctx context.Context, userID string) ([]platform.ViewEvent, error) {
	entries, err := s.client.HGetAll(ctx, viewedKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load viewed hash: %w", err)
	}

	events := make([]platform.ViewEvent, 0, len(entries))
	for recordID, packed := range entries {
		ev := platform.ViewEvent{RecordID: recordID}
		ev.EventID, ev.FormID = unpackEvent(packed)
		events = append(events, ev)
	}
	return events, nil
}

// Save records one view event in the user's hash. Duplicate saves keep the
// original event id.
func (s *RedisStore) Save(ctx context.Context, userID, recordID, formID string) (string, error) {
	key := viewedKey(userID)
	eventID := uuid.NewString()

	set, err := s.client.HSetNX(ctx, key, recordID, packEvent(eventID, formID)).Result()
	if err != nil {
		return "", fmt.Errorf("save viewed record: %w", err)
	}
	if !set {
		packed, err := s.client.HGet(ctx, key, recordID).Result()
		if err != nil {
			return "", fmt.Errorf("lookup existing viewed record: %w", err)
		}
		eventID, _ = unpackEvent(packed)
		return eventID, nil
	}

	if s.ttl > 0 {
		s.client.Expire(ctx, key, s.ttl)
	}
	return eventID, nil
}

func packEvent(eventID, formID string) string {
	return eventID + "|" + formID
}

func unpackEvent(packed string) (eventID, formID string) {
	for i := 0; i < len(packed); i++ {
		if packed[i] == '|' {
			return packed[:i], packed[i+1:]
		}
	}
	return packed, ""
}
