package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/afero"

	"github.com/yeisme/employeeman/pkg/configs"
)

// Local 本地目录后端.
type Local struct {
	fs   afero.Fs
	root string
	// onDisk 为 true 时 root 是真实目录，ReadPath 与 Usage 才有意义
	onDisk bool
}

// NewLocal 在操作系统文件系统上创建本地后端，root 不存在时自动创建.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root %s: %w", root, err)
	}

	l, err := NewLocalFs(afero.NewOsFs(), abs)
	if err != nil {
		return nil, err
	}

	l.onDisk = true

	return l, nil
}

// NewLocalFs 在任意 afero 文件系统上创建本地后端，测试中使用 afero.NewMemMapFs().
func NewLocalFs(fs afero.Fs, root string) (*Local, error) {
	if err := fs.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload root %s: %w", root, err)
	}

	return &Local{fs: fs, root: root}, nil
}

func (l *Local) Disk() string {
	return string(configs.DiskLocal)
}

// Root 返回上传目录.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, key)
}

// Write 先写入同目录下的隐藏临时文件，fsync 后原子重命名为目标 key.
func (l *Local) Write(ctx context.Context, key string, r io.Reader, _ int64, _ string) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp := filepath.Join(l.root, fmt.Sprintf(".%s.%d.tmp", key, time.Now().UnixNano()))

	f, err := l.fs.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		_ = l.fs.Remove(tmp)

		return 0, fmt.Errorf("write %s: %w", key, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		_ = l.fs.Remove(tmp)

		return 0, fmt.Errorf("sync %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		_ = l.fs.Remove(tmp)
		return 0, fmt.Errorf("close %s: %w", key, err)
	}

	if err := l.fs.Rename(tmp, l.path(key)); err != nil {
		_ = l.fs.Remove(tmp)
		return 0, fmt.Errorf("rename %s: %w", key, err)
	}

	return n, nil
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	ok, err := afero.Exists(l.fs, l.path(key))
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	return ok, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := l.fs.Remove(l.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func (l *Local) ReadPath(ctx context.Context, key string) (string, error) {
	ok, err := l.Exists(ctx, key)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrNotExist)
	}

	return l.path(key), nil
}

func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	f, err := l.fs.Open(l.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotExist)
		}

		return nil, fmt.Errorf("open %s: %w", key, err)
	}

	return f, nil
}

// List 列出上传目录下的文件，跳过子目录与写入中的临时文件.
func (l *Local) List(ctx context.Context) ([]Object, error) {
	infos, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.root, err)
	}

	objects := make([]Object, 0, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}

		objects = append(objects, Object{Key: info.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	return objects, nil
}

func (l *Local) HealthCheck(_ context.Context) error {
	info, err := l.fs.Stat(l.root)
	if err != nil {
		return fmt.Errorf("upload root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("upload root %s is not a directory", l.root)
	}

	return nil
}

// Usage 返回上传目录所在磁盘的容量信息，非真实目录时返回 nil.
func (l *Local) Usage(ctx context.Context) (*disk.UsageStat, error) {
	if !l.onDisk {
		return nil, nil
	}

	return disk.UsageWithContext(ctx, l.root)
}
