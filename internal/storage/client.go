// Package storage — клиент S3-совместимого хранилища объектов.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ACLPublicRead — canned ACL, выставляемый загруженным объектам.
const ACLPublicRead = "public-read"

// DefaultRegion — регион по умолчанию; заданный регион избавляет от
// запроса GetBucketLocation перед каждой операцией.
const DefaultRegion = "us-east-1"

// MetadataFilename — ключ пользовательских метаданных с исходным именем файла.
const MetadataFilename = "filename"

// Config — параметры подключения к хранилищу.
type Config struct {
	Endpoint  string // host:port
	AccessKey string
	SecretKey string
	Secure    bool

	// Region — регион подписи; пустой означает us-east-1.
	Region string
}

// Client — обёртка над minio.Client.
type Client struct {
	mc       *minio.Client
	endpoint string
}

// New создаёт клиента. Соединение не устанавливается до первого запроса.
//
// Бакеты адресуются path-style (host/bucket/key).
func New(cfg Config) (*Client, error) {
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.Secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage client %s: %w", cfg.Endpoint, err)
	}
	return &Client{mc: mc, endpoint: cfg.Endpoint}, nil
}

// Endpoint возвращает адрес хранилища.
func (c *Client) Endpoint() string { return c.endpoint }

// BucketExists проверяет наличие бакета. Недопустимое имя даёт
// ErrInvalidBucketName без обращения к серверу.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := CheckBucketName(bucket); err != nil {
		return false, err
	}

	ok, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("lookup bucket %s: %w", bucket, err)
	}
	return ok, nil
}

// ObjectExists проверяет наличие объекта с ключом key.
func (c *Client) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
}

// PutObject записывает data под ключом key, перезаписывая существующий
// объект. Исходное имя файла сохраняется в метаданных, объект получает
// ACL public-read.
func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte, filename string) error {
	_, err := c.mc.PutObject(
		ctx,
		bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: "application/octet-stream",
			UserMetadata: map[string]string{
				MetadataFilename: filename,
				"x-amz-acl":      ACLPublicRead,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}
