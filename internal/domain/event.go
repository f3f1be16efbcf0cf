package domain

import "time"

// EventTypeWeatherBatchFetched names the batch event on the wire.
const EventTypeWeatherBatchFetched = "WeatherDataBatchFetched"

// DailyWeatherFact is one canonical observation for a district and date.
type DailyWeatherFact struct {
	Date      time.Time `json:"date"`
	Temp2PM   float64   `json:"temp_2pm"`
	PM25At2PM float64   `json:"pm25_2pm"`
}

// DistrictWeatherFacts groups the facts of one district inside a batch.
type DistrictWeatherFacts struct {
	DistrictID int                `json:"district_id"`
	Latitude   float64            `json:"latitude"`
	Longitude  float64            `json:"longitude"`
	Facts      []DailyWeatherFact `json:"facts"`
}

// WeatherDataBatchFetched is published once per fetch cycle and is
// immutable after publication.
type WeatherDataBatchFetched struct {
	BatchID      string                 `json:"batch_id"`
	FetchedAtUTC time.Time              `json:"fetched_at_utc"`
	Districts    []DistrictWeatherFacts `json:"districts"`
}
