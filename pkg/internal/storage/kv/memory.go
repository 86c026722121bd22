package kv

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/employeeman/pkg/configs"
)

const memoryShards = 16

type memoryEntry struct {
	value    []byte
	expireAt time.Time // 零值表示不过期
}

type memoryShard struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

// MemoryKV 分片 map 实现的内存 KV，按 xxhash 选择分片，过期键惰性删除.
type MemoryKV struct {
	shards [memoryShards]*memoryShard
	now    func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(_ context.Context, _ configs.KVConfig) (KVStore, error) {
	return newMemoryKV(time.Now), nil
}

func newMemoryKV(now func() time.Time) *MemoryKV {
	m := &MemoryKV{now: now}
	for i := range m.shards {
		m.shards[i] = &memoryShard{data: make(map[string]memoryEntry)}
	}

	return m
}

func (m *MemoryKV) shard(key string) *memoryShard {
	return m.shards[xxhash.Sum64String(key)%memoryShards]
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// Get 获取键的值，返回副本.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	s := m.shard(key)

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, notFound(key)
	}

	if e.expired(m.now()) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()

		return nil, notFound(key)
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)

	return out, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	e := memoryEntry{value: data}
	if ttl > 0 {
		e.expireAt = m.now().Add(ttl)
	}

	s := m.shard(key)
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	s := m.shard(key)
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 获取匹配 glob 模式的键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	now := m.now()
	keys := make([]string, 0)

	for _, s := range m.shards {
		s.mu.RLock()

		for k, e := range s.data {
			if e.expired(now) {
				continue
			}

			if pattern == "" {
				keys = append(keys, k)
				continue
			}

			if ok, err := path.Match(pattern, k); err == nil && ok {
				keys = append(keys, k)
			}
		}

		s.mu.RUnlock()
	}

	return keys, nil
}

// Close 关闭存储（内存实现无需操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeMemory, NewMemoryKV)
}
