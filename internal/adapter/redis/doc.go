// Package redis holds the shared key-value adapters: the ranking lease, the
// forecast and district caches, and the published leaderboard projection.
//
// Keys:
//
//	leader:{name}              lease owner, expires after the lease ttl
//	forecast:{id}:{yyyy-mm-dd} JSON DailyDistrictForecast
//	districts:all              JSON []District
//	leaderboard:current        JSON []RankedDistrict, replaced wholesale
package redis
