package filestore

import (
	"context"
	"errors"
	"io"

	"github.com/sony/gobreaker"

	"github.com/yeisme/employeeman/pkg/configs"
)

// breakerStore 为远端存储调用加上熔断，熔断打开时快速失败.
type breakerStore struct {
	Store
	cb *gobreaker.CircuitBreaker
}

// WithBreaker 按配置包装 Store，未启用时原样返回.
func WithBreaker(s Store, cfg configs.CircuitBreakerConfig) Store {
	if !cfg.Enabled {
		return s
	}

	settings := cfg.Settings("filestore-"+s.Disk(), func(err error) bool {
		return err == nil || errors.Is(err, ErrNotExist) || errors.Is(err, context.Canceled)
	})

	return &breakerStore{Store: s, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerStore) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	n, err := b.cb.Execute(func() (any, error) {
		return b.Store.Write(ctx, key, r, size, contentType)
	})
	if err != nil {
		return 0, err
	}

	return n.(int64), nil
}

func (b *breakerStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := b.cb.Execute(func() (any, error) {
		return b.Store.Exists(ctx, key)
	})
	if err != nil {
		return false, err
	}

	return ok.(bool), nil
}

func (b *breakerStore) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.Store.Delete(ctx, key)
	})

	return err
}

func (b *breakerStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := b.cb.Execute(func() (any, error) {
		return b.Store.Open(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	return rc.(io.ReadCloser), nil
}
