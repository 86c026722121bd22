package kv

import "time"

// NewMemoryKVWithClock 测试中注入时钟.
func NewMemoryKVWithClock(now func() time.Time) KVStore {
	return newMemoryKV(now)
}

var (
	EncodeWithTTL = encodeWithTTL
	DecodeWithTTL = decodeWithTTL
)
