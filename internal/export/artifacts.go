package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectClient is the subset of *minio.Client used by ArtifactStore.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// ArtifactStore uploads rendered exports to S3-compatible storage.
type ArtifactStore struct {
	client ObjectClient
	bucket string
	expiry time.Duration
	now    func() time.Time
}

// Artifact describes an uploaded export.
type Artifact struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	URL    string `json:"url,omitempty"`
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewArtifactStore connects to MinIO or any S3 endpoint.
func NewArtifactStore(cfg StorageConfig) (*ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return NewArtifactStoreWithClient(client, cfg.Bucket), nil
}

func NewArtifactStoreWithClient(client ObjectClient, bucket string) *ArtifactStore {
	return &ArtifactStore{client: client, bucket: bucket, expiry: 24 * time.Hour, now: time.Now}
}

// EnsureBucket creates the bucket when missing.
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores result under sessions/<sessionID>/<timestamp>-<filename> and
// returns a presigned download link.
func (s *ArtifactStore) Upload(ctx context.Context, sessionID string, result *Result) (Artifact, error) {
	key := path.Join("sessions", sessionID, s.now().UTC().Format("20060102T150405Z")+"-"+result.Filename)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(result.Data), int64(len(result.Data)), minio.PutObjectOptions{
		ContentType: result.MimeType,
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("upload %s: %w", key, err)
	}
	artifact := Artifact{Bucket: s.bucket, Key: key, Size: info.Size}
	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err == nil {
		artifact.URL = link.String()
	}
	return artifact, nil
}
