package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/s3relay/internal/config"
	"github.com/shaiso/s3relay/internal/mq"
	"github.com/shaiso/s3relay/internal/relay"
	"github.com/shaiso/s3relay/internal/retry"
	"github.com/shaiso/s3relay/internal/storage"
)

// newSessionFactory возвращает фабрику сессий воркеров: своё соединение
// с брокером, обе очереди и клиент хранилища.
func newSessionFactory(logger *slog.Logger) relay.ConnectionFactory {
	return func(ctx context.Context, cfg config.Config) (*relay.Session, error) {
		policy := retry.Default("connect", nil, logger)
		conn, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*mq.Connection, error) {
			return mq.Dial(ctx, dialConfig(cfg), logger)
		})
		if err != nil {
			return nil, fmt.Errorf("connect to %s:%d: %w", cfg.MQHost, cfg.MQPort, err)
		}

		requests, err := conn.OpenRequestQueue(cfg.MQRequestQueue)
		if err != nil {
			conn.Close()
			return nil, err
		}

		replies, err := conn.OpenReplyQueue(cfg.MQReplyToQueue)
		if err != nil {
			requests.Close()
			conn.Close()
			return nil, err
		}

		store, err := storage.New(storageConfig(cfg))
		if err != nil {
			requests.Close()
			replies.Close()
			conn.Close()
			return nil, err
		}

		return &relay.Session{
			Requests: requests,
			Replies:  replies,
			Store:    store,
			Conn:     conn,
		}, nil
	}
}

func dialConfig(cfg config.Config) mq.DialConfig {
	return mq.DialConfig{URL: cfg.AMQPURL(), Name: cfg.MQChannel}
}

func storageConfig(cfg config.Config) storage.Config {
	return storage.Config{
		Endpoint:  cfg.S3Endpoint(),
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Secure:    cfg.S3IsSecure,
	}
}
