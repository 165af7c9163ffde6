package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/models"
)

// CodeArchive keeps a snapshot of every graded exercise submission.
type CodeArchive interface {
	ArchiveExercise(ctx context.Context, snapshot *models.CodeSnapshot) (string, error)
}

// objectStore is the part of *minio.Client the archive uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type minioArchive struct {
	client objectStore
	bucket string
	region string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIOArchive(endpoint, accessKey, secretKey, bucket, region string, useSSL bool, logger zerolog.Logger) (CodeArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Bool("ssl", useSSL).
		Msg("MinIO code archive configured")

	return &minioArchive{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// ensureBucket создает бакет при первом обращении, а не на старте.
func (a *minioArchive) ensureBucket(ctx context.Context) error {
	a.ensureMu.Lock()
	defer a.ensureMu.Unlock()
	if a.bucketEnsured {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		a.logger.Info().Str("bucket", a.bucket).Msg("Created new bucket")
	}

	a.bucketEnsured = true
	return nil
}

func (a *minioArchive) ArchiveExercise(ctx context.Context, snapshot *models.CodeSnapshot) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := snapshot.ObjectKey()
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	a.logger.Debug().
		Str("bucket", a.bucket).
		Str("key", key).
		Str("etag", info.ETag).
		Msg("Exercise snapshot archived")

	return key, nil
}

// NopArchive is used when storage is disabled.
type NopArchive struct{}

func (NopArchive) ArchiveExercise(context.Context, *models.CodeSnapshot) (string, error) {
	return "", nil
}
