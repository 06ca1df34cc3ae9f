package storage

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7/pkg/s3utils"
)

// ErrInvalidBucketName — имя бакета отклоняет сам клиент (короче 3 или
// длиннее 63 символов, IP-адрес, недопустимые символы). Запрос с таким
// именем не уходит на сервер.
var ErrInvalidBucketName = errors.New("invalid bucket name")

// CheckBucketName проверяет имя бакета по правилам S3.
func CheckBucketName(bucket string) error {
	if err := s3utils.CheckValidBucketName(bucket); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidBucketName, bucket, err)
	}
	return nil
}
