package cache

import "time"

// BytesCache stores pre-rendered response bodies with a TTL. History
// and stats queries hit ClickHouse; callers cache the JSON they
// produced so repeated dashboard polls skip the round trip.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
