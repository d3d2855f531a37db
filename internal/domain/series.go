package domain

import (
	"time"

	"example.com/ridedash/internal/record"
)

// Positions of each metric in a ChartDataset.
const (
	ChartOutput = iota
	ChartCadence
	ChartResistance
	ChartSpeed
	ChartMiles
	chartSeriesCount
)

// ChartDataset holds five aligned series in the fixed order
// [output, cadence, resistance, speed, miles]. A nil entry marks a ride that
// lacks that metric.
type ChartDataset [chartSeriesCount][]*float64

// DateLabels formats each record's timestamp as a calendar date in loc, keeping
// the input order. Records must already be sorted; duplicates are expected.
func DateLabels(rides []record.Record, field string, loc *time.Location) ([]string, error) {
	labels := make([]string, 0, len(rides))
	for _, rec := range rides {
		epoch, err := ParseEpoch(rec, field)
		if err != nil {
			return nil, err
		}
		labels = append(labels, FormatDate(epoch, loc))
	}
	return labels, nil
}

// FormatDate renders epoch seconds as YYYY-MM-DD in loc.
func FormatDate(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).In(loc).Format(DateLayout)
}

// HeartRates projects average heart rate per ride. Missing values become 0 so
// the series stays aligned with DateLabels.
func HeartRates(rides []record.Record) []int {
	rates := make([]int, 0, len(rides))
	for _, rec := range rides {
		hr, _ := rec.Int(FieldAvgOutput, subHeartRate)
		rates = append(rates, int(hr))
	}
	return rates
}

// Charts extracts the five chart metrics per ride.
func Charts(rides []record.Record) ChartDataset {
	var ds ChartDataset
	for i := range ds {
		ds[i] = make([]*float64, 0, len(rides))
	}
	for _, rec := range rides {
		ds[ChartOutput] = append(ds[ChartOutput], optionalFloat(rec, FieldAvgOutput, subValue))
		ds[ChartCadence] = append(ds[ChartCadence], optionalFloat(rec, FieldAvgCadence, subValue))
		ds[ChartResistance] = append(ds[ChartResistance], optionalFloat(rec, FieldAvgResistance, subValue))
		ds[ChartSpeed] = append(ds[ChartSpeed], optionalFloat(rec, FieldAvgSpeed, subValue))
		ds[ChartMiles] = append(ds[ChartMiles], milesRidden(rec))
	}
	return ds
}

// milesRidden prefers the output block and falls back to the cadence block;
// older ingests only wrote the latter.
func milesRidden(rec record.Record) *float64 {
	if miles := optionalFloat(rec, FieldAvgOutput, subMilesRidden); miles != nil {
		return miles
	}
	return optionalFloat(rec, FieldAvgCadence, subMilesRidden)
}

func optionalFloat(rec record.Record, path ...string) *float64 {
	f, ok := rec.Float(path...)
	if !ok {
		return nil
	}
	return &f
}
