// Package store defines the read-only record store contract used by the dashboard.
package store

import (
	"context"
	"errors"

	"example.com/ridedash/internal/record"
)

// ErrUnavailable wraps any failure to reach or read from the record store.
var ErrUnavailable = errors.New("record store unavailable")

// Scanner returns every record of a table. No filtering or ordering is implied.
type Scanner interface {
	Scan(ctx context.Context, table string) ([]record.Record, error)
}
