package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL — время жизни записи о запросе.
const DefaultRedisTTL = 24 * time.Hour

const redisKeyPrefix = "s3relay:request:"

// RedisOptions — параметры подключения к Redis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis — журнал в Redis: hash на запрос, ключ s3relay:request:<guid>.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis подключается к Redis и проверяет соединение.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// RedisKey возвращает ключ записи для запроса.
func RedisKey(requestID string) string {
	return redisKeyPrefix + requestID
}

// Record реализует Recorder.
func (r *Redis) Record(ctx context.Context, e Entry) error {
	key := RedisKey(e.RequestID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"filename", e.Filename,
			"bucket", e.Bucket,
			"status", string(e.Status),
			"description", e.Description,
			"worker", e.Worker,
			"processed_at", e.ProcessedAt.Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record %s in redis: %w", e.RequestID, err)
	}
	return nil
}

// Close реализует Recorder.
func (r *Redis) Close() error {
	return r.client.Close()
}
