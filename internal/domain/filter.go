package domain

import (
	"strings"

	"example.com/ridedash/internal/record"
)

// ResolveUser substitutes fallback when requested is blank.
func ResolveUser(requested, fallback string) string {
	if strings.TrimSpace(requested) == "" {
		return fallback
	}
	return requested
}

// FilterByUser keeps records whose user_id equals the resolved identifier
// exactly. Records without a user_id never match. The result may be empty.
func FilterByUser(records []record.Record, requested, fallback string) []record.Record {
	userID := ResolveUser(requested, fallback)
	out := make([]record.Record, 0, len(records))
	if userID == "" {
		return out
	}
	for _, rec := range records {
		owner, ok := rec.Text(FieldUserID)
		if !ok || owner != userID {
			continue
		}
		out = append(out, rec)
	}
	return out
}
