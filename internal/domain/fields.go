// Package domain derives the dashboard's series and rollups from raw ride,
// course, and music-set records.
package domain

// Attribute names as written by the ingestion job.
const (
	FieldUserID            = "user_id"
	FieldRideID            = "ride_Id"
	FieldAvgOutput         = "Avg Output"
	FieldAvgCadence        = "Avg Cadence"
	FieldAvgResistance     = "Avg Resistance"
	FieldAvgSpeed          = "Avg Speed"
	FieldTotalAchievements = "total_achievements"
	FieldCreatedAt         = "created_at"
	FieldName              = "name"
	FieldDifficulty        = "difficulty"
	FieldLength            = "length"
	FieldInstructor        = "instructor"
	FieldSetList           = "set_list"

	subValue       = "value"
	subMilesRidden = "miles_ridden"
	subHeartRate   = "heart_rate"
)

// DateLayout is the label format used for every date the dashboard shows.
const DateLayout = "2006-01-02"
