package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"zonewatch/internal/domain/port"
)

// MinioFrameSinks хранит кадры в бакете под ключами <scanID>/frame_<id>.jpg
type MinioFrameSinks struct {
	client *minio.Client
	bucket string
}

// NewMinioFrameSinks подключается к MinIO и создаёт бакет, если его нет
func NewMinioFrameSinks(ctx context.Context, endpoint, accessKey, secretKey, bucket string, secure bool) (*MinioFrameSinks, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &MinioFrameSinks{client: client, bucket: bucket}, nil
}

// ForScan возвращает хранилище кадров одного сканирования
func (m *MinioFrameSinks) ForScan(scanID string) port.FrameSink {
	return &minioFrameSink{parent: m, scanID: scanID}
}

type minioFrameSink struct {
	parent *MinioFrameSinks
	scanID string
}

func (s *minioFrameSink) objectPath(id string) string {
	return fmt.Sprintf("%s/%s", s.scanID, frameObjectName(id))
}

// Store загружает кадр в бакет
func (s *minioFrameSink) Store(ctx context.Context, id string, img image.Image) error {
	data, err := encodeJPEG(img)
	if err != nil {
		return err
	}

	_, err = s.parent.client.PutObject(
		ctx,
		s.parent.bucket,
		s.objectPath(id),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/jpeg"},
	)
	if err != nil {
		return fmt.Errorf("failed to save frame to S3: %w", err)
	}
	return nil
}

// Load скачивает кадр из бакета
func (s *minioFrameSink) Load(ctx context.Context, id string) ([]byte, error) {
	obj, err := s.parent.client.GetObject(ctx, s.parent.bucket, s.objectPath(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", s.objectPath(id), err)
	}
	return data, nil
}

var _ port.FrameSinkFactory = (*MinioFrameSinks)(nil)
