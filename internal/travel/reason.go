package travel

import (
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/district-livability-service/internal/domain"
)

// Describe renders a human-readable explanation of a recommendation.
// horizonDays is the forecast window quoted for out-of-range dates.
func Describe(res domain.TravelRecommendationResult, horizonDays int) string {
	switch res.ReasonCode {
	case domain.ReasonSameSourceAndDestination:
		return "You are already in the destination district."
	case domain.ReasonInvalidSourceDistrict:
		return "Your current location could not be matched to a district."
	case domain.ReasonInvalidDestinationDistrict:
		return "The selected destination district is invalid."
	case domain.ReasonDateOutOfRange:
		if horizonDays == 1 {
			return "Forecast data is only available for the next day."
		}
		return fmt.Sprintf("Forecast data is only available for the next %d days.", horizonDays)
	case domain.ReasonInsufficientData:
		return "Insufficient forecast data to make a recommendation."
	case domain.ReasonDestinationCoolerAndCleaner:
		return fmt.Sprintf("Your destination is %s°C cooler and has significantly better air quality. Enjoy your trip!",
			formatDelta(math.Abs(res.TempDelta)))
	case domain.ReasonDestinationHotterAndMorePolluted:
		return "Your destination is hotter and has worse air quality than your current location. It's better to stay where you are."
	case domain.ReasonDestinationHotter:
		return "Your destination is hotter than your current location. It's better to stay where you are."
	case domain.ReasonDestinationMorePolluted:
		return "Your destination has worse air quality than your current location. It's better to stay where you are."
	default:
		return "Unable to make a recommendation."
	}
}

// formatDelta prints at most one decimal place and drops a trailing ".0".
func formatDelta(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
