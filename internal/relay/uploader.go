package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/s3relay/internal/domain"
	"github.com/shaiso/s3relay/internal/storage"
	"github.com/shaiso/s3relay/internal/telemetry"
)

// Описания результата загрузки.
const (
	DescUploaded    = "Uploaded"
	DescOverwriting = "Exists already, overwriting"
)

// Uploader загружает содержимое запроса в хранилище.
type Uploader struct {
	store       ObjectStore
	storageHost string
	logger      *slog.Logger
}

// NewUploader создаёт Uploader. storageHost используется только в
// описании ошибки.
func NewUploader(store ObjectStore, storageHost string, logger *slog.Logger) *Uploader {
	return &Uploader{store: store, storageHost: storageHost, logger: logger}
}

// Upload загружает файл под ключом RequestID и возвращает ответ.
//
// Имя бакета, которое отклоняет клиент хранилища, относится к одному
// запросу: ответ ERROR, воркер продолжает работу.
//
// fatal=true означает, что бакет не найден или хранилище недоступно:
// условие считается системным, и воркер должен остановиться после
// отправки ответа. Повторная загрузка под тем же ключом перезаписывает
// объект и остаётся успешной.
func (u *Uploader) Upload(ctx context.Context, req domain.RequestMessage) (resp domain.ResponseMessage, fatal bool) {
	logger := telemetry.WithRequestID(u.logger, req.RequestID)

	if req.IsEmpty() {
		return u.reject(logger, req, "rejected",
			fmt.Sprintf("Received an empty message! request GUID: %s", req.RequestID)), false
	}

	if req.BucketName == "" {
		return u.reject(logger, req, "rejected",
			fmt.Sprintf("Missing bucket name! request GUID: %s", req.RequestID)), false
	}

	data, err := req.DecodePayload()
	if err != nil {
		return u.reject(logger, req, "rejected",
			fmt.Sprintf("Unable to decode file content! request GUID: %s", req.RequestID)), false
	}

	exists, err := u.store.BucketExists(ctx, req.BucketName)
	if errors.Is(err, storage.ErrInvalidBucketName) {
		logger.Debug("bucket name rejected", "bucket", req.BucketName, "error", err)
		return u.reject(logger, req, "rejected",
			fmt.Sprintf("Invalid bucket name! request GUID: %s", req.RequestID)), false
	}
	if err != nil || !exists {
		if err != nil {
			logger.Debug("bucket lookup failed", "bucket", req.BucketName, "error", err)
		}
		return u.reject(logger, req, "unavailable",
			fmt.Sprintf("Unable to find bucket: [%s] or Host: [%s] not available.", req.BucketName, u.storageHost)), true
	}

	desc, outcome := DescUploaded, "uploaded"
	found, err := u.store.ObjectExists(ctx, req.BucketName, req.RequestID)
	switch {
	case err != nil:
		// Проверка носит информационный характер, загрузка всё равно
		// перезапишет ключ.
		logger.Warn("object existence check failed", "bucket", req.BucketName, "error", err)
	case found:
		desc, outcome = DescOverwriting, "overwritten"
		logger.Warn(desc, "bucket", req.BucketName)
	}

	start := time.Now()
	if err := u.store.PutObject(ctx, req.BucketName, req.RequestID, data, req.Filename); err != nil {
		logger.Error("upload failed", "bucket", req.BucketName, "error", err)
		return u.reject(logger, req, "failed",
			fmt.Sprintf("Upload failed! request GUID: %s", req.RequestID)), false
	}
	took := time.Since(start)
	telemetry.UploadDuration.Observe(took.Seconds())
	telemetry.UploadsTotal.WithLabelValues(outcome).Inc()

	logger.Debug("uploaded",
		"bucket", req.BucketName,
		"size", len(data),
		"took", took,
	)

	return domain.NewResponse(req, domain.StatusOK, desc), false
}

func (u *Uploader) reject(logger *slog.Logger, req domain.RequestMessage, outcome, desc string) domain.ResponseMessage {
	telemetry.UploadsTotal.WithLabelValues(outcome).Inc()
	logger.Error(desc)
	return domain.NewResponse(req, domain.StatusError, desc)
}
