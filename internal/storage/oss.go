package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

// OSSConfig holds the settings for one OSS-backed store.
type OSSConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	AccessKeySecret string
	Prefix          string
}

// OSSStore implements ObjectStore on an Aliyun OSS bucket, optionally under a
// key prefix so several stores can share one bucket.
type OSSStore struct {
	bucket *oss.Bucket
	prefix string
	logger *zap.Logger
}

// NewOSSStore opens the configured bucket.
func NewOSSStore(cfg OSSConfig, logger *zap.Logger) (*OSSStore, error) {
	opts := []oss.ClientOption{oss.AuthVersion(oss.AuthV4)}
	if strings.TrimSpace(cfg.Region) != "" {
		opts = append(opts, oss.Region(cfg.Region))
	}

	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init oss client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open oss bucket %s: %w", cfg.Bucket, err)
	}

	return &OSSStore{
		bucket: bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// Get reads the object stored under key.
func (s *OSSStore) Get(_ context.Context, key string) ([]byte, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}

	rc, err := s.bucket.GetObject(objectKey)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get oss object %s: %w", objectKey, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read oss object %s: %w", objectKey, err)
	}

	return content, nil
}

// Put writes content under key, replacing any existing object.
func (s *OSSStore) Put(_ context.Context, key string, content []byte) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	if err := s.bucket.PutObject(objectKey, bytes.NewReader(content)); err != nil {
		s.logger.Error("Failed to put oss object",
			zap.String("key", objectKey),
			zap.Error(err))
		return fmt.Errorf("failed to put oss object %s: %w", objectKey, err)
	}

	s.logger.Debug("Object saved to oss",
		zap.String("key", objectKey),
		zap.Int("size", len(content)))

	return nil
}

func (s *OSSStore) objectKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("object key is empty")
	}
	if s.prefix == "" {
		return key, nil
	}
	return s.prefix + "/" + key, nil
}

func isNoSuchKey(err error) bool {
	var svcErr oss.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code == "NoSuchKey"
	}
	return false
}
