package kv_test

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/employeeman/pkg/configs"
	"github.com/yeisme/employeeman/pkg/internal/storage/kv"
)

func TestMemoryKVExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := kv.NewMemoryKVWithClock(func() time.Time { return now })

	if err := store.Set(ctx, "import:1", []byte("report"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, "import:1")
	if err != nil || string(got) != "report" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	now = now.Add(2 * time.Minute)

	if _, err := store.Get(ctx, "import:1"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after expiry, got %v", err)
	}

	if ok, _ := store.Exists(ctx, "import:1"); ok {
		t.Error("expected expired key to be gone")
	}
}

func TestMemoryKVKeysAndCopy(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, configs.KVConfig{Type: configs.KVTypeMemory})
	if err != nil {
		t.Fatal(err)
	}

	value := []byte("a")
	_ = store.Set(ctx, "import:1", value, 0)
	_ = store.Set(ctx, "import:2", []byte("b"), 0)
	_ = store.Set(ctx, "other", []byte("c"), 0)

	value[0] = 'z'

	got, _ := store.Get(ctx, "import:1")
	if string(got) != "a" {
		t.Errorf("stored value was aliased: %q", got)
	}

	keys, _ := store.Keys(ctx, "import:*")
	sort.Strings(keys)

	if len(keys) != 2 || keys[0] != "import:1" || keys[1] != "import:2" {
		t.Errorf("unexpected keys %v", keys)
	}

	_ = store.Delete(ctx, "import:1")

	if _, err := store.Get(ctx, "import:1"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestTTLWrapper(t *testing.T) {
	plain, wrapped, err := kv.EncodeWithTTL([]byte("v"), 0)
	if err != nil || wrapped || string(plain) != "v" {
		t.Fatalf("expected passthrough without ttl, got %q %v %v", plain, wrapped, err)
	}

	enc, wrapped, err := kv.EncodeWithTTL([]byte("v"), time.Hour)
	if err != nil || !wrapped {
		t.Fatalf("expected wrapped value, got %v %v", wrapped, err)
	}

	val, expired, _, err := kv.DecodeWithTTL(enc, time.Now())
	if err != nil || expired || string(val) != "v" {
		t.Errorf("decode before expiry = %q %v %v", val, expired, err)
	}

	_, expired, _, _ = kv.DecodeWithTTL(enc, time.Now().Add(2*time.Hour))
	if !expired {
		t.Error("expected value to be expired")
	}
}

func TestUnsupportedKVType(t *testing.T) {
	if _, err := kv.NewKVStore(context.Background(), configs.KVConfig{Type: "groupcache"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	store, err := kv.NewKVStore(context.Background(), configs.KVConfig{Type: configs.KVTypeMemory})
	if err != nil {
		b.Fatalf("create memory kv: %v", err)
	}

	benchKV(b, "memory", store)
	benchKVParallel(b, "memory", store)
	_ = store.Close()
}

// Optional: enable with ENABLE_REDIS_BENCH=1 and REDIS_ADDR set (default 127.0.0.1:6379).
func BenchmarkRedisKV(b *testing.B) {
	if os.Getenv("ENABLE_REDIS_BENCH") == "" {
		b.Skip("set ENABLE_REDIS_BENCH=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	cfg := configs.KVConfig{Type: configs.KVTypeRedis, Redis: configs.RedisKVConfig{Addr: addr}}

	store, err := kv.NewKVStore(context.Background(), cfg)
	if err != nil {
		b.Skipf("redis not available: %v", err)
		return
	}

	benchKV(b, "redis", store)
	benchKVParallel(b, "redis", store)
	_ = store.Close()
}

// Optional: enable with ENABLE_NATS_BENCH=1 and NATS_URL set (default nats://127.0.0.1:4222)
func BenchmarkNATSKV(b *testing.B) {
	if os.Getenv("ENABLE_NATS_BENCH") == "" {
		b.Skip("set ENABLE_NATS_BENCH=1 to enable")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://127.0.0.1:4222"
	}

	bucket := os.Getenv("NATS_BUCKET")
	if bucket == "" {
		bucket = "bench-kv"
	}

	cfg := configs.KVConfig{Type: configs.KVTypeNATS, NATS: configs.NATSKVConfig{URL: url, Bucket: bucket}}

	store, err := kv.NewKVStore(context.Background(), cfg)
	if err != nil {
		b.Skipf("nats not available: %v", err)
		return
	}

	benchKV(b, "nats", store)
	benchKVParallel(b, "nats", store)
	_ = store.Close()
}

// randBytes returns n random bytes, seeded reproducibly for bench.
func randBytes(n int) []byte {
	b := make([]byte, n)
	// Try crypto/rand; if it fails (unlikely in tests), fallback to deterministic PRNG.
	if _, err := crand.Read(b); err != nil {
		mr := mrand.New(mrand.NewSource(42))
		for i := range b {
			b[i] = byte(mr.Intn(256))
		}
	}

	return b
}

// benchKV 执行基本的 Set/Get/Delete 基准测试.
func benchKV(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	sizes := []int{32, 1024, 64 * 1024}
	ttls := []time.Duration{0, 5 * time.Second}

	for _, size := range sizes {
		payload := randBytes(size)
		for _, ttl := range ttls {
			b.Run(fmt.Sprintf("%s/size=%d/ttl=%s", name, size, ttl), func(b *testing.B) {
				// ensure clean
				b.ReportAllocs()

				for i := 0; b.Loop(); i++ {
					// Use hyphens to ensure keys are valid for NATS KV
					key := fmt.Sprintf("bench-%s-%d", name, i)
					if err := store.Set(ctx, key, payload, ttl); err != nil {
						b.Fatalf("set failed: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get failed: %v", err)
					}

					if err := store.Delete(ctx, key); err != nil {
						b.Fatalf("delete failed: %v", err)
					}
				}
			})
		}
	}
}

// benchKVParallel 执行并行的 Set/Get/Delete 基准测试.
func benchKVParallel(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	size := 1024
	payload := randBytes(size)

	var ctr uint64

	b.Run(fmt.Sprintf("%s/parallel", name), func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				i := atomic.AddUint64(&ctr, 1)

				// Use hyphens to ensure keys are valid for NATS KV
				key := fmt.Sprintf("bench-%s-p-%d", name, i)
				if err := store.Set(ctx, key, payload, 0); err != nil {
					b.Fatalf("set failed: %v", err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatalf("get failed: %v", err)
				}

				if err := store.Delete(ctx, key); err != nil {
					b.Fatalf("delete failed: %v", err)
				}
			}
		})
	})
}
