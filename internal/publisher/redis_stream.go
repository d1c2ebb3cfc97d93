package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultStream receives every computed metric.
const DefaultStream = "metrics.computed.mlb"

// RedisPublisher appends computed results to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStreamPublisher wraps an existing client.
func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream}
}

// NewRedisPublisher connects to redisURL and verifies the connection.
func NewRedisPublisher(redisURL, stream string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewRedisStreamPublisher(client, stream), nil
}

// Close closes the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// Stream is the stream name results are written to.
func (rp *RedisPublisher) Stream() string {
	return rp.stream
}

// PublishResult appends one result to the stream.
func (rp *RedisPublisher) PublishResult(ctx context.Context, result interface{}) error {
	values, err := streamValues(result, time.Now())
	if err != nil {
		return err
	}
	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rp.stream,
		Values: values,
	}).Err()
}

func streamValues(result interface{}, now time.Time) (map[string]interface{}, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return map[string]interface{}{
		"event_id":  uuid.NewString(),
		"data":      string(data),
		"timestamp": now.Unix(),
	}, nil
}
