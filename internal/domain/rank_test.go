package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankSnapshots(t *testing.T) {
	districts := []District{{ID: 1, Name: "Dhaka"}, {ID: 2, Name: "Sylhet"}, {ID: 3, Name: "Khulna"}}

	t.Run("cooler ranks first", func(t *testing.T) {
		snaps := []DistrictWeatherSnapshot{
			{DistrictID: 1, Temp2PM: 11, PM25At2PM: 6},
			{DistrictID: 2, Temp2PM: 9, PM25At2PM: 8},
		}
		got := RankSnapshots(snaps, districts)
		assert.Equal(t, []RankedDistrict{
			{DistrictID: 2, DistrictName: "Sylhet", Temp2PM: 9, PM25At2PM: 8, Rank: 1},
			{DistrictID: 1, DistrictName: "Dhaka", Temp2PM: 11, PM25At2PM: 6, Rank: 2},
		}, got)
	})

	t.Run("pm25 breaks temperature ties", func(t *testing.T) {
		snaps := []DistrictWeatherSnapshot{
			{DistrictID: 1, Temp2PM: 10, PM25At2PM: 9},
			{DistrictID: 2, Temp2PM: 10, PM25At2PM: 4},
		}
		got := RankSnapshots(snaps, districts)
		assert.Equal(t, 2, got[0].DistrictID)
		assert.Equal(t, 1, got[1].DistrictID)
	})

	t.Run("full ties keep input order with distinct ranks", func(t *testing.T) {
		snaps := []DistrictWeatherSnapshot{
			{DistrictID: 3, Temp2PM: 10, PM25At2PM: 5},
			{DistrictID: 1, Temp2PM: 10, PM25At2PM: 5},
		}
		got := RankSnapshots(snaps, districts)
		assert.Equal(t, 3, got[0].DistrictID)
		assert.Equal(t, 1, got[0].Rank)
		assert.Equal(t, 1, got[1].DistrictID)
		assert.Equal(t, 2, got[1].Rank)
	})

	t.Run("orphans are dropped", func(t *testing.T) {
		snaps := []DistrictWeatherSnapshot{
			{DistrictID: 99, Temp2PM: 1, PM25At2PM: 1},
			{DistrictID: 1, Temp2PM: 11, PM25At2PM: 6},
		}
		got := RankSnapshots(snaps, districts)
		assert.Len(t, got, 1)
		assert.Equal(t, 1, got[0].DistrictID)
		assert.Equal(t, 1, got[0].Rank)
	})

	t.Run("deterministic", func(t *testing.T) {
		snaps := []DistrictWeatherSnapshot{
			{DistrictID: 1, Temp2PM: 10, PM25At2PM: 5},
			{DistrictID: 2, Temp2PM: 8, PM25At2PM: 5},
			{DistrictID: 3, Temp2PM: 10, PM25At2PM: 5},
		}
		assert.Equal(t, RankSnapshots(snaps, districts), RankSnapshots(snaps, districts))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, RankSnapshots(nil, districts))
	})
}
