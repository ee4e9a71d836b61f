package storage

import (
	"bytes"
	"context"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/util"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Provider stores exported artefacts such as result sheets.
type Provider interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// LocalProvider 本地存储实现
type LocalProvider struct {
	Root string
}

func (p *LocalProvider) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(p.Root, strings.TrimPrefix(clean, "/")), nil
}

func (p *LocalProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := p.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	dst, err := p.path(key)
	if err != nil {
		return err
	}
	return os.Remove(dst)
}

func (p *LocalProvider) URL(key string) string {
	return "/exports/" + strings.TrimPrefix(key, "/")
}

// MinioProvider MinIO存储实现
type MinioProvider struct {
	Bucket string
	Client *minio.Client
}

func NewMinioProvider(cfg *config.StorageConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioProvider{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (p *MinioProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *MinioProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Bucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioProvider) URL(key string) string {
	return "/" + p.Bucket + "/" + key
}

// New picks the provider named by cfg.Type; an empty type disables storage.
func New(cfg *config.StorageConfig) (Provider, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case util.StorageLocal:
		return &LocalProvider{Root: cfg.LocalPath}, nil
	case util.StorageMinio:
		p, err := NewMinioProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// PutBytes is a convenience wrapper around Provider.Put.
func PutBytes(ctx context.Context, p Provider, key string, data []byte, contentType string) (string, error) {
	return p.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
}
