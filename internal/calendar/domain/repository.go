package calendar

import "context"

// KVStore is the durable key-value cache behind the calendar.
// Get reports ok=false for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
