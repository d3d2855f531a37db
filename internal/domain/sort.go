package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"example.com/ridedash/internal/record"
)

// ParseEpoch reads field as a Unix epoch in seconds.
func ParseEpoch(rec record.Record, field string) (int64, error) {
	raw, ok := rec.Text(field)
	if !ok {
		return 0, fmt.Errorf("%w: %s is missing", ErrMalformedTimestamp, field)
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedTimestamp, field, raw)
	}
	return epoch, nil
}

// SortByEpoch orders records ascending by the numeric value of field. Equal
// timestamps keep their input order. The input slice is left untouched.
func SortByEpoch(records []record.Record, field string) ([]record.Record, error) {
	type keyed struct {
		epoch int64
		rec   record.Record
	}

	items := make([]keyed, 0, len(records))
	for _, rec := range records {
		epoch, err := ParseEpoch(rec, field)
		if err != nil {
			return nil, err
		}
		items = append(items, keyed{epoch: epoch, rec: rec})
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return cmp.Compare(a.epoch, b.epoch)
	})

	out := make([]record.Record, len(items))
	for i, item := range items {
		out[i] = item.rec
	}
	return out, nil
}
