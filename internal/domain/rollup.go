package domain

import "example.com/ridedash/internal/record"

// Rollup summarises a user's lifetime riding.
type Rollup struct {
	TotalMiles        float64 `json:"total_miles"`
	TotalRides        int     `json:"total_rides"`
	TotalAchievements float64 `json:"total_achievements"`
}

// BuildRollup counts rides, sums miles, and takes the achievement counter from
// the last ride. rides must be sorted ascending; an empty set returns ErrNoRides.
func BuildRollup(rides []record.Record) (Rollup, error) {
	if len(rides) == 0 {
		return Rollup{}, ErrNoRides
	}

	var miles float64
	for _, rec := range rides {
		if m := milesRidden(rec); m != nil {
			miles += *m
		}
	}

	achievements, _ := rides[len(rides)-1].Float(FieldTotalAchievements)

	return Rollup{
		TotalMiles:        miles,
		TotalRides:        len(rides),
		TotalAchievements: achievements,
	}, nil
}
