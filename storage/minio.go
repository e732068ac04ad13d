package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"echofm/config"
	"echofm/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore serves audio assets out of a MinIO bucket. Uploads populate
// object paths (tracks.file_url); downloads get short-lived presigned URLs.
type MinioStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinioStore creates the client and verifies the bucket exists, creating
// it when missing.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioStore{
		client: client,
		bucket: cfg.MinioBucket,
		expiry: 15 * time.Minute,
	}, nil
}

// PresignDownload returns a time-limited GET URL for the object, with a
// Content-Disposition header suggesting the given filename.
func (s *MinioStore) PresignDownload(ctx context.Context, object, filename string) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, object, s.expiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", object, err)
	}
	return u.String(), nil
}

// StatObject reports whether the object exists in the bucket.
func (s *MinioStore) StatObject(ctx context.Context, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", object, err)
	}
	return true, nil
}
