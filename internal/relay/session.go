package relay

import (
	"context"
	"io"

	"github.com/shaiso/s3relay/internal/config"
	"github.com/shaiso/s3relay/internal/mq"
)

// RequestQueue — очередь входящих запросов.
type RequestQueue interface {
	// Get возвращает mq.ErrNoMessage, если очередь пуста.
	Get(ctx context.Context) (mq.Message, error)
	Close() error
}

// ReplyQueue — очередь ответов.
type ReplyQueue interface {
	Put(ctx context.Context, msg mq.Message) error
	Close() error
}

// ObjectStore — хранилище объектов.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, data []byte, filename string) error
}

// Session — ресурсы одного воркера.
type Session struct {
	Requests RequestQueue
	Replies  ReplyQueue
	Store    ObjectStore

	// Conn закрывается последним, после обеих очередей. Может быть nil.
	Conn io.Closer
}

// ConnectionFactory открывает ресурсы для нового воркера.
// Ошибка фабрики при старте фатальна для процесса.
type ConnectionFactory func(ctx context.Context, cfg config.Config) (*Session, error)
