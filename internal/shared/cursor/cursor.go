// Package cursor implements keyset pagination over created_at timestamps.
// A cursor is the RFC 3339 timestamp of the last item on the previous page;
// the next page holds items strictly older than it.
package cursor

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalid = errors.New("invalid cursor")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Parse decodes a cursor. An empty string means "first page" and yields nil.
func Parse(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalid, raw)
	}
	return &t, nil
}

func Encode(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Limit clamps a requested page size into [1, MaxLimit]; zero or negative
// values select DefaultLimit.
func Limit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// Next returns the cursor for the following page, or nil when the page was
// not full.
func Next(pageLen, limit int, last time.Time) *string {
	if pageLen == 0 || pageLen < limit {
		return nil
	}
	c := Encode(last)
	return &c
}
