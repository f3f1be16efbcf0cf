package domain

import "errors"

var (
	// ErrInsufficientData means a district's temperature and PM2.5 series
	// share no calendar date at the target hour.
	ErrInsufficientData = errors.New("no overlapping dates between temperature and pm2.5 series")

	// ErrDistrictNotFound means a district id or name is not in the directory.
	ErrDistrictNotFound = errors.New("district not found")

	// ErrNoFacts means a snapshot was requested for a district with no facts.
	ErrNoFacts = errors.New("district has no forecast facts")

	// ErrLeaderboardNotReady means no ranking run has published a leaderboard yet.
	ErrLeaderboardNotReady = errors.New("leaderboard not ready")

	// ErrEmptyBatch means no district in a fetch cycle produced any data.
	ErrEmptyBatch = errors.New("no district produced forecast data")
)
