package domain

import (
	"sort"
	"time"
)

// RawSeries is an hourly provider series with parallel timestamps and values.
// Timestamps are UTC.
type RawSeries struct {
	Times  []time.Time
	Values []float64
}

// ExtractDaily reduces an hourly series to one value per UTC calendar date,
// keeping only samples whose UTC hour equals targetHour. The first matching
// sample for a date wins. Dates with no sample at targetHour are absent.
func ExtractDaily(series RawSeries, targetHour int) map[time.Time]float64 {
	n := min(len(series.Times), len(series.Values))
	out := make(map[time.Time]float64)
	for i := range n {
		ts := series.Times[i].UTC()
		if ts.Hour() != targetHour {
			continue
		}
		d := DateOf(ts)
		if _, seen := out[d]; seen {
			continue
		}
		out[d] = series.Values[i]
	}
	return out
}

// JoinDaily builds one fact per date present in both mappings, sorted by
// date. An empty intersection returns ErrInsufficientData.
func JoinDaily(tempByDate, pm25ByDate map[time.Time]float64) ([]DailyWeatherFact, error) {
	facts := make([]DailyWeatherFact, 0, min(len(tempByDate), len(pm25ByDate)))
	for d, temp := range tempByDate {
		pm, ok := pm25ByDate[d]
		if !ok {
			continue
		}
		facts = append(facts, DailyWeatherFact{Date: d, Temp2PM: temp, PM25At2PM: pm})
	}
	if len(facts) == 0 {
		return nil, ErrInsufficientData
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Date.Before(facts[j].Date) })
	return facts, nil
}

// AverageSnapshot collapses a district's facts into a single snapshot whose
// values are the arithmetic mean over all facts and whose date is the
// earliest fact date.
func AverageSnapshot(districtID int, facts []DailyWeatherFact) (DistrictWeatherSnapshot, error) {
	if len(facts) == 0 {
		return DistrictWeatherSnapshot{}, ErrNoFacts
	}
	var sumTemp, sumPM float64
	earliest := facts[0].Date
	for _, f := range facts {
		sumTemp += f.Temp2PM
		sumPM += f.PM25At2PM
		if f.Date.Before(earliest) {
			earliest = f.Date
		}
	}
	n := float64(len(facts))
	return DistrictWeatherSnapshot{
		DistrictID: districtID,
		Date:       DateOf(earliest),
		Temp2PM:    sumTemp / n,
		PM25At2PM:  sumPM / n,
	}, nil
}

// ForecastsFromFacts flattens per-district facts into per-day forecasts.
func ForecastsFromFacts(districts []DistrictWeatherFacts) []DailyDistrictForecast {
	var out []DailyDistrictForecast
	for _, d := range districts {
		for _, f := range d.Facts {
			out = append(out, DailyDistrictForecast{
				DistrictID: d.DistrictID,
				Date:       DateOf(f.Date),
				Temp2PM:    f.Temp2PM,
				PM25At2PM:  f.PM25At2PM,
			})
		}
	}
	return out
}
