// Package events defines payloads exchanged with the ride ingestion job.
package events

import "time"

// RideSyncRequestedType is the event_type header value for RideSyncRequested.
const RideSyncRequestedType = "ride.sync_requested"

// RideSyncRequested asks the ingestion job to pull a user's latest rides and
// course details into the record store.
type RideSyncRequested struct {
	RequestID        string    `json:"request_id"`
	UserID           string    `json:"user_id"`
	PelotonSessionID string    `json:"peloton_session_id"`
	RequestedAt      time.Time `json:"requested_at"`
}
