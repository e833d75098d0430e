package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"personify/internal/util/jsonutil"
)

// ArtifactConfig configures the S3-compatible persona archive.
type ArtifactConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ArtifactStore archives finished personas in S3-compatible storage,
// one object per request under personas/<request_id>.json.
type ArtifactStore struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func NewArtifactStore(cfg ArtifactConfig) (*ArtifactStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("artifact endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("artifact access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("artifact bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init artifact client: %w", err)
	}
	return &ArtifactStore{client: client, bucket: bucket, region: region}, nil
}

func (s *ArtifactStore) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("artifact store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func objectKey(requestID string) string {
	return "personas/" + requestID + ".json"
}

// PutPersona archives one persona artifact.
func (s *ArtifactStore) PutPersona(ctx context.Context, requestID string, persona map[string]any) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	raw, err := jsonutil.MarshalNoEscapeIndent(persona, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, objectKey(requestID),
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

// GetPersona fetches an archived persona.
func (s *ArtifactStore) GetPersona(ctx context.Context, requestID string) (map[string]any, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(requestID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	var persona map[string]any
	if err := jsonutil.UnmarshalFlex(raw, &persona); err != nil {
		return nil, err
	}
	return persona, nil
}
