package hostapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/getmockd/gqldevkit/pkg/normcache"
)

// cacheKey returns the key an object is stored under: its "id" when present,
// otherwise its path from the parent record.
func cacheKey(obj map[string]any, path string) string {
	switch id := obj["id"].(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return path
}

// Normalize flattens a response's data member into records. The root object
// goes under normcache.RootKey and every nested object becomes its own
// record, replaced in its parent by a reference.
func Normalize(data json.RawMessage) (map[string]normcache.Record, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	records := make(map[string]normcache.Record)
	normalizeObject(root, normcache.RootKey, records)
	return records, nil
}

func normalizeObject(obj map[string]any, key string, records map[string]normcache.Record) {
	rec := records[key]
	if rec == nil {
		rec = make(normcache.Record, len(obj))
		records[key] = rec
	}
	for field, value := range obj {
		rec[field] = normalizeValue(value, key+"."+field, records)
	}
}

func normalizeValue(value any, path string, records map[string]normcache.Record) any {
	switch v := value.(type) {
	case map[string]any:
		key := cacheKey(v, path)
		normalizeObject(v, key, records)
		return normcache.Ref(key)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item, path+"."+strconv.Itoa(i), records)
		}
		return out
	default:
		return v
	}
}

// Merge writes records into cache, merging fields into any record already
// stored under the same key.
func Merge(ctx context.Context, cache normcache.NormalizedCache, records map[string]normcache.Record) error {
	for key, rec := range records {
		existing, err := cache.Read(ctx, key)
		switch {
		case err == nil:
			for field, value := range rec {
				existing[field] = value
			}
			rec = existing
		case !errors.Is(err, normcache.ErrRecordNotFound):
			return fmt.Errorf("failed to read %q: %w", key, err)
		}
		if err := cache.Write(ctx, key, rec); err != nil {
			return fmt.Errorf("failed to write %q: %w", key, err)
		}
	}
	return nil
}
