package filestore

import (
	"context"
	"fmt"
	"io"
	"time"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/employeeman/pkg/configs"
	s3c "github.com/yeisme/employeeman/pkg/internal/storage/s3"
)

// S3 基于 MinIO bucket 的后端.
type S3 struct {
	client        *s3c.Client
	presignExpiry time.Duration
}

// NewS3 创建 S3 后端.
func NewS3(client *s3c.Client, presignExpiry time.Duration) *S3 {
	if presignExpiry <= 0 {
		presignExpiry = configs.DefaultPresignExpiry
	}

	return &S3{client: client, presignExpiry: presignExpiry}
}

func (s *S3) Disk() string {
	return string(configs.DiskS3)
}

func (s *S3) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}

	info, err := s.client.PutObject(ctx, s.client.Bucket(), key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}

	return info.Size, nil
}

func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	_, err := s.client.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if isNoSuchKey(err) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", key, err)
}

func (s *S3) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// ReadPath 返回预签名 GET URL.
func (s *S3) ReadPath(ctx context.Context, key string) (string, error) {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrNotExist)
	}

	u, err := s.client.PresignedGetObject(ctx, s.client.Bucket(), key, s.presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return u.String(), nil
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	// GetObject 延迟到首次读取才发请求，先 Stat 以便区分不存在
	if _, err := obj.Stat(); err != nil {
		obj.Close()

		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotExist)
		}

		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	return obj, nil
}

func (s *S3) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	for info := range s.client.ListObjects(ctx, s.client.Bucket(), minio.ListObjectsOptions{Recursive: false}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", s.client.Bucket(), info.Err)
		}

		objects = append(objects, Object{Key: info.Key, Size: info.Size, ModTime: info.LastModified})
	}

	return objects, nil
}

func (s *S3) HealthCheck(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
