package domain

// Compare decides whether travelling from source to destination is
// worthwhile. Only the signs of the deltas matter; a zero delta on either
// axis is treated as no improvement.
func Compare(source, destination DailyDistrictForecast) TravelRecommendationResult {
	tempDelta := destination.Temp2PM - source.Temp2PM
	airDelta := destination.PM25At2PM - source.PM25At2PM

	res := TravelRecommendationResult{TempDelta: tempDelta, AirQualityDelta: airDelta}
	switch {
	case tempDelta < 0 && airDelta < 0:
		res.IsRecommended = true
		res.ReasonCode = ReasonDestinationCoolerAndCleaner
	case tempDelta >= 0 && airDelta >= 0:
		res.ReasonCode = ReasonDestinationHotterAndMorePolluted
	case tempDelta >= 0:
		res.ReasonCode = ReasonDestinationHotter
	default:
		res.ReasonCode = ReasonDestinationMorePolluted
	}
	return res
}
