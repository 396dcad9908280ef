package normcache

import (
	"context"
	"errors"
	"maps"
	"time"
)

// RootKey is the key the root query record is stored under.
const RootKey = "QUERY_ROOT"

// RefKey is the field name marking a reference to another record.
const RefKey = "$ref"

// ErrRecordNotFound is returned by Read for keys that are not cached.
var ErrRecordNotFound = errors.New("normcache: record not found")

// Record is one normalized cache entry.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Ref builds a reference to key.
func Ref(key string) map[string]any {
	return map[string]any{RefKey: key}
}

// Snapshot is the complete cache content at one instant.
type Snapshot struct {
	TakenAt time.Time         `json:"takenAt"`
	Records map[string]Record `json:"records"`
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Records)
}

// NormalizedCache stores normalized records.
type NormalizedCache interface {
	Read(ctx context.Context, key string) (Record, error)
	Write(ctx context.Context, key string, rec Record) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Snapshot(ctx context.Context) (Snapshot, error)
}

func copyRecords(src map[string]Record) map[string]Record {
	out := make(map[string]Record, len(src))
	for k, v := range src {
		out[k] = v.Clone()
	}
	return out
}
