// Package filestore 提供按 key 读写上传文件的存储抽象，key 即媒体记录的 file_name.
//
// 两种后端：
//
//	local  本地目录（afero 文件系统，写入采用临时文件 + 原子重命名）
//	s3     MinIO / S3 bucket
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotExist key 对应的文件不存在.
var ErrNotExist = errors.New("file does not exist")

// Object List 返回的文件信息.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store 文件存储接口.
type Store interface {
	// Disk 返回后端名称，写入媒体记录的 disk 字段.
	Disk() string
	// Write 写入文件并返回实际写入的字节数，size 未知时传 -1.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete 删除文件，文件不存在不视为错误.
	Delete(ctx context.Context, key string) error
	// ReadPath 返回可读取文件的位置：本地绝对路径或预签名 URL.
	ReadPath(ctx context.Context, key string) (string, error)
	// Open 打开文件流，不存在时返回 ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// List 列出全部文件，供对账任务使用.
	List(ctx context.Context) ([]Object, error)
	HealthCheck(ctx context.Context) error
}

// ValidateKey 拒绝空 key 以及包含路径分隔符或以点开头的 key.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("empty file key")
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("file key %q must not contain path separators", key)
	case strings.HasPrefix(key, "."):
		return fmt.Errorf("file key %q must not start with a dot", key)
	}

	return nil
}
