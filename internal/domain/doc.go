// Package domain models district livability data: reference districts,
// canonical daily weather/air-quality observations, the ranked leaderboard
// and travel recommendations.
//
// # Daily Observations
//
// The weather provider returns hourly series in UTC. A district's daily
// observation is the sample taken at a single target UTC hour (08:00 UTC is
// 14:00 in the service's UTC+6 reference zone). When a date carries more than
// one sample at that hour the first one in series order wins; dates without a
// matching sample are absent rather than an error. See [ExtractDaily].
//
// Temperature and PM2.5 are joined on the dates present in both series
// ([JoinDaily]). A district whose series share no date has insufficient data
// and is dropped from the batch on its own, without failing siblings.
//
// # Ranking
//
// Districts are ranked coolest first, ties broken by lower PM2.5, with ranks
// assigned densely from 1 in stable sort order ([RankSnapshots]).
//
// # Travel Comparison
//
// [Compare] looks only at the signs of the destination-minus-source deltas.
// A zero delta counts as "not improved".
package domain
