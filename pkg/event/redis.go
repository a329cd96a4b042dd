package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultStream = "permagit:events"

// RedisSink appends records to a Redis stream via XADD. The off-chain
// indexer tails the stream to build its read model.
type RedisSink struct {
	client  *redis.Client
	stream  string
	timeout time.Duration
}

// RedisConfig defines connection settings for the event stream.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	Database int
	Stream   string
}

// NewRedisSink connects to Redis and verifies the connection with a ping.
func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	stream := cfg.Stream
	if stream == "" {
		stream = defaultStream
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisSink{client: client, stream: stream, timeout: 2 * time.Second}, nil
}

// Emit appends the record to the stream as a JSON payload plus the fields
// the indexer filters on.
func (s *RedisSink) Emit(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("emit event: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"kind":    string(rec.Kind),
			"repo":    string(rec.Repo),
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("emit event: xadd: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
