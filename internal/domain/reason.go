package domain

// ReasonCode explains a travel recommendation. The set is closed.
type ReasonCode string

const (
	ReasonSameSourceAndDestination         ReasonCode = "SameSourceAndDestination"
	ReasonInvalidSourceDistrict            ReasonCode = "InvalidSourceDistrict"
	ReasonInvalidDestinationDistrict       ReasonCode = "InvalidDestinationDistrict"
	ReasonDateOutOfRange                   ReasonCode = "DateOutOfRange"
	ReasonInsufficientData                 ReasonCode = "InsufficientData"
	ReasonDestinationCoolerAndCleaner      ReasonCode = "DestinationCoolerAndCleaner"
	ReasonDestinationHotter                ReasonCode = "DestinationHotter"
	ReasonDestinationMorePolluted          ReasonCode = "DestinationMorePolluted"
	ReasonDestinationHotterAndMorePolluted ReasonCode = "DestinationHotterAndMorePolluted"
)

// ReasonCodes lists every valid reason code.
var ReasonCodes = []ReasonCode{
	ReasonSameSourceAndDestination,
	ReasonInvalidSourceDistrict,
	ReasonInvalidDestinationDistrict,
	ReasonDateOutOfRange,
	ReasonInsufficientData,
	ReasonDestinationCoolerAndCleaner,
	ReasonDestinationHotter,
	ReasonDestinationMorePolluted,
	ReasonDestinationHotterAndMorePolluted,
}

// Valid reports whether r is one of the known reason codes.
func (r ReasonCode) Valid() bool {
	for _, c := range ReasonCodes {
		if r == c {
			return true
		}
	}
	return false
}

func (r ReasonCode) String() string { return string(r) }
