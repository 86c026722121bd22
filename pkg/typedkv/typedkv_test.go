package typedkv_test

import (
	"context"
	"errors"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/yeisme/employeeman/pkg/internal/storage/kv"
	"github.com/yeisme/employeeman/pkg/typedkv"
)

// mockKVStore 模拟KV存储.
type mockKVStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}

	return nil, kv.ErrKeyNotFound
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl

	return nil
}

func (m *mockKVStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockKVStore) Keys(_ context.Context, pattern string) ([]string, error) {
	var keys []string

	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (m *mockKVStore) Close() error { return nil }

type report struct {
	ID   string `json:"id"`
	Rows int    `json:"rows"`
}

// TestPutGet 写入后读取得到相同的值，TTL 透传给底层存储.
func TestPutGet(t *testing.T) {
	store := newMockKVStore()
	ns := typedkv.New(store, "import")
	ctx := context.Background()

	if err := typedkv.Put(ctx, ns, "r1", report{ID: "r1", Rows: 3}, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if store.ttls["import:r1"] != time.Hour {
		t.Fatalf("ttl not forwarded: %v", store.ttls)
	}

	got, err := typedkv.Get[report](ctx, ns, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Rows != 3 || got.ID != "r1" {
		t.Fatalf("unexpected value: %+v", got)
	}
}

// TestGetMissing 不存在的键返回 ErrKeyNotFound.
func TestGetMissing(t *testing.T) {
	ns := typedkv.New(newMockKVStore(), "import")

	if _, err := typedkv.Get[report](context.Background(), ns, "nope"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

// TestNamespaceIsolation IDs 只返回本命名空间的键.
func TestNamespaceIsolation(t *testing.T) {
	store := newMockKVStore()
	a := typedkv.New(store, "a")
	b := typedkv.New(store, "b")
	ctx := context.Background()

	_ = typedkv.Put(ctx, a, "1", 1, 0)
	_ = typedkv.Put(ctx, a, "2", 2, 0)
	_ = typedkv.Put(ctx, b, "3", 3, 0)

	ids, err := a.IDs(ctx)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}

	sort.Strings(ids)

	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if err := a.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := a.Exists(ctx, "1"); ok {
		t.Fatal("expected key to be deleted")
	}
}
