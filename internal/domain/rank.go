package domain

import "sort"

// RankSnapshots drops snapshots whose district is not in the directory, sorts
// the rest coolest first with lower PM2.5 breaking ties, and assigns dense
// 1-based ranks in that order. Equal keys keep their input order.
func RankSnapshots(snapshots []DistrictWeatherSnapshot, districts []District) []RankedDistrict {
	names := make(map[int]string, len(districts))
	for _, d := range districts {
		names[d.ID] = d.Name
	}

	kept := make([]DistrictWeatherSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if _, ok := names[s.DistrictID]; ok {
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Temp2PM != kept[j].Temp2PM {
			return kept[i].Temp2PM < kept[j].Temp2PM
		}
		return kept[i].PM25At2PM < kept[j].PM25At2PM
	})

	ranked := make([]RankedDistrict, len(kept))
	for i, s := range kept {
		ranked[i] = RankedDistrict{
			DistrictID:   s.DistrictID,
			DistrictName: names[s.DistrictID],
			Temp2PM:      s.Temp2PM,
			PM25At2PM:    s.PM25At2PM,
			Rank:         i + 1,
		}
	}
	return ranked
}
