package domain

import (
	"time"

	"example.com/ridedash/internal/record"
)

// Course is the listing entry for one taken class.
type Course struct {
	Name       string  `json:"name"`
	Difficulty string  `json:"difficulty"`
	Length     string  `json:"length"`
	Instructor *string `json:"instructor,omitempty"`
	Date       string  `json:"date"`
}

// CourseListing maps the raw created_at string to its course.
type CourseListing map[string]Course

// BuildCourseListing keys sorted course records by their raw created_at.
// When two records share a key the later one wins.
func BuildCourseListing(courses []record.Record, loc *time.Location) (CourseListing, error) {
	listing := make(CourseListing, len(courses))
	for _, rec := range courses {
		epoch, err := ParseEpoch(rec, FieldCreatedAt)
		if err != nil {
			return nil, err
		}
		key, _ := rec.Text(FieldCreatedAt)

		course := Course{
			Name:       text(rec, FieldName),
			Difficulty: text(rec, FieldDifficulty),
			Length:     text(rec, FieldLength),
			Date:       FormatDate(epoch, loc),
		}
		if instructor, ok := rec.Text(FieldInstructor); ok {
			course.Instructor = &instructor
		}
		listing[key] = course
	}
	return listing, nil
}

func text(rec record.Record, field string) string {
	v, _ := rec.Text(field)
	return v
}
