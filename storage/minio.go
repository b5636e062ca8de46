package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"mashrabu/config"
	"mashrabu/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignTTL bounds the validity of direct-upload authorizations.
const PresignTTL = 15 * time.Minute

// Store is the media host: audio payloads live in an S3-compatible bucket
// and are addressed by object key.
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
	secure  bool
}

// NewStore connects to the object store and makes sure the bucket exists.
func NewStore(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created media bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Store{
		client:  client,
		bucket:  cfg.MinioBucket,
		baseURL: strings.TrimSuffix(cfg.MediaBaseURL, "/"),
		secure:  cfg.MinioUseSSL,
	}, nil
}

// objectKey builds a collision-free key for an upload.
func objectKey(folder, filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".mp3"
	}
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)
}

// ObjectURL returns the public URL a stored object is played from.
func (s *Store) ObjectURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, key)
}

// Upload relays an audio payload into the bucket and returns its playable
// URL and object key.
func (s *Store) Upload(ctx context.Context, folder, filename string, payload io.Reader, size int64, contentType string) (string, string, error) {
	key := objectKey(folder, filename)
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, payload, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.ObjectURL(key), key, nil
}

// UploadAuthorization is a short-lived, signed permission to PUT one object
// directly into the media store.
type UploadAuthorization struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PresignUpload issues an upload authorization for a direct client upload.
func (s *Store) PresignUpload(ctx context.Context, folder, filename string) (*UploadAuthorization, error) {
	key := objectKey(folder, filename)

	presigned, err := s.client.PresignedPutObject(ctx, s.bucket, key, PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &UploadAuthorization{
		UploadURL: presigned.String(),
		ObjectKey: key,
		PublicURL: s.ObjectURL(key),
		ExpiresAt: time.Now().Add(PresignTTL),
	}, nil
}

// Remove deletes an object. Used best-effort after a track record is gone.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL recovers the object key from a stored playable URL, for records
// created before ObjectKey was persisted.
func (s *Store) KeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	if s.baseURL != "" {
		return p
	}
	return strings.TrimPrefix(p, s.bucket+"/")
}
