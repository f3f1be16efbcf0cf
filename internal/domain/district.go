package domain

import "time"

// District is immutable reference data seeded outside this service.
type District struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistrictWeatherSnapshot is the durable daily record for a district,
// unique on (DistrictID, Date).
type DistrictWeatherSnapshot struct {
	DistrictID int       `json:"district_id"`
	Date       time.Time `json:"date"`
	Temp2PM    float64   `json:"temp_2pm"`
	PM25At2PM  float64   `json:"pm25_2pm"`
}

// DailyDistrictForecast is the read model served by forecast lookups. Both
// the cache and the durable store return this shape.
type DailyDistrictForecast struct {
	DistrictID int       `json:"district_id"`
	Date       time.Time `json:"date"`
	Temp2PM    float64   `json:"temp_2pm"`
	PM25At2PM  float64   `json:"pm25_2pm"`
}

// RankedDistrict is one row of the published leaderboard.
type RankedDistrict struct {
	DistrictID   int     `json:"districtId"`
	DistrictName string  `json:"districtName"`
	Temp2PM      float64 `json:"temp2pm"`
	PM25At2PM    float64 `json:"pm25_2pm"`
	Rank         int     `json:"rank"`
}
