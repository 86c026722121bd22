// Package typedkv 在键值存储之上提供带命名空间的类型安全读写.
//
// 值使用 JSON 序列化（bytedance/sonic），支持 TTL.
// 只用于保存作业结果（如导入报告），不用于缓存查询结果.
//
// 基本用法:
//
//	reports := typedkv.New(kvStore, "import")
//	err := typedkv.Put(ctx, reports, report.ID, report, 24*time.Hour)
//	got, err := typedkv.Get[ImportReport](ctx, reports, id)
package typedkv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/employeeman/pkg/internal/storage/kv"
)

// Namespace 以固定前缀隔离一组键.
type Namespace struct {
	store  kv.KVStore
	prefix string
}

// New 创建命名空间.
func New(store kv.KVStore, prefix string) *Namespace {
	return &Namespace{store: store, prefix: prefix}
}

// Key 返回 id 对应的完整键.
func (n *Namespace) Key(id string) string {
	return n.prefix + ":" + id
}

// Get 读取并反序列化，键不存在时返回的错误满足 errors.Is(err, kv.ErrKeyNotFound).
func Get[T any](ctx context.Context, n *Namespace, id string) (T, error) {
	var value T

	data, err := n.store.Get(ctx, n.Key(id))
	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("unmarshal %s: %w", n.Key(id), err)
	}

	return value, nil
}

// Put 序列化并写入，ttl<=0 表示不过期.
func Put[T any](ctx context.Context, n *Namespace, id string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", n.Key(id), err)
	}

	return n.store.Set(ctx, n.Key(id), data, ttl)
}

// Delete 删除键.
func (n *Namespace) Delete(ctx context.Context, id string) error {
	return n.store.Delete(ctx, n.Key(id))
}

// Exists 检查键是否存在.
func (n *Namespace) Exists(ctx context.Context, id string) (bool, error) {
	return n.store.Exists(ctx, n.Key(id))
}

// IDs 列出命名空间内的全部 id.
func (n *Namespace) IDs(ctx context.Context) ([]string, error) {
	keys, err := n.store.Keys(ctx, n.prefix+":*")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, n.prefix+":"))
	}

	return ids, nil
}
