package store

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"
)

var (
	// ErrUnavailable indicates the store client could not be obtained or the
	// backing store cannot be reached before any I/O was attempted.
	ErrUnavailable = errors.New("record store unavailable")
	ErrNotFound    = errors.New("record not found")
)

// Record is one stored row expressed as a field map, the shape the record
// store speaks natively. Field names are owned by the remote collection and
// may differ from the canonical model names; callers normalize.
type Record map[string]any

// Filter restricts a fetch to records whose field equals the given value.
type Filter struct {
	Field string
	Value any
}

// Query describes a collection fetch: optional field projection, equality
// filters, and a single-field sort.
type Query struct {
	Fields  []string
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Result reports the outcome for a single record in a batch operation. Batch
// calls can partially fail; callers must inspect every entry.
type Result struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Client is the boundary to the record store. Implementations exist for a
// local SQLite database and for the hosted record API.
type Client interface {
	Fetch(ctx context.Context, collection string, q Query) ([]Record, error)
	Create(ctx context.Context, collection string, records []Record) ([]Result, error)
	Update(ctx context.Context, collection string, records []Record) ([]Result, error)
	Delete(ctx context.Context, collection string, ids []string) ([]Result, error)
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}

// LogFailures logs each failed result and reports whether any failed.
// Partial batch failures must never pass silently.
func LogFailures(component, op string, results []Result) bool {
	failed := Failed(results)
	for _, res := range failed {
		log.Printf("[%s] %s failed for record %s: %s", component, op, res.ID, res.Message)
	}
	return len(failed) > 0
}

// StringField extracts the first present field as a string. Numeric values
// are formatted; nested reference objects ({"Id": ...}) are unwrapped to
// their identifier. Returns "" when no candidate field is present.
func StringField(r Record, keys ...string) string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s := coerceString(v); s != "" {
			return s
		}
	}
	return ""
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any:
		// nested reference object: {"Id": 7} or {"id": "7"}
		if id, ok := t["Id"]; ok {
			return coerceString(id)
		}
		if id, ok := t["id"]; ok {
			return coerceString(id)
		}
	}
	return ""
}

// FloatField extracts a numeric field.
func FloatField(r Record, key string) (float64, bool) {
	switch t := r[key].(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// BoolField extracts a boolean field; absent or mistyped fields are false.
func BoolField(r Record, key string) bool {
	b, _ := r[key].(bool)
	return b
}

// TimeField extracts a timestamp stored either as RFC 3339 text or as Unix
// milliseconds.
func TimeField(r Record, key string) (time.Time, bool) {
	switch t := r[key].(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, true
		}
	case float64:
		if t > 0 {
			return time.UnixMilli(int64(t)).UTC(), true
		}
	case time.Time:
		return t, true
	}
	return time.Time{}, false
}
