package domain

// ForecastLookupResult is either a found forecast or NotFound.
type ForecastLookupResult struct {
	Forecast DailyDistrictForecast
	Found    bool
}

// ForecastFound wraps a forecast in a found result.
func ForecastFound(f DailyDistrictForecast) ForecastLookupResult {
	return ForecastLookupResult{Forecast: f, Found: true}
}

// ForecastNotFound is the empty lookup result.
func ForecastNotFound() ForecastLookupResult {
	return ForecastLookupResult{}
}

// SourceDistrictResolutionResult is either a resolved district id or NotFound.
type SourceDistrictResolutionResult struct {
	DistrictID int
	Found      bool
}

// SourceResolved wraps a district id in a found result.
func SourceResolved(districtID int) SourceDistrictResolutionResult {
	return SourceDistrictResolutionResult{DistrictID: districtID, Found: true}
}

// SourceNotFound is the empty resolution result.
func SourceNotFound() SourceDistrictResolutionResult {
	return SourceDistrictResolutionResult{}
}

// TravelRecommendationResult is the outcome of a recommendation request.
// Negative outcomes carry zero deltas unless they came from a comparison.
type TravelRecommendationResult struct {
	IsRecommended   bool       `json:"is_recommended"`
	TempDelta       float64    `json:"temp_delta"`
	AirQualityDelta float64    `json:"air_quality_delta"`
	ReasonCode      ReasonCode `json:"reason_code"`
}

// Rejected builds a not-recommended result with zero deltas.
func Rejected(code ReasonCode) TravelRecommendationResult {
	return TravelRecommendationResult{ReasonCode: code}
}
