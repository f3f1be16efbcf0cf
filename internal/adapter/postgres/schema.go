package postgres

// Schema is the table layout the store expects. Districts are seeded
// externally.
const Schema = `
CREATE TABLE IF NOT EXISTS districts (
	id        INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS district_weather_snapshots (
	district_id INTEGER NOT NULL,
	date        DATE NOT NULL,
	temp_2pm    DOUBLE PRECISION NOT NULL,
	pm25_2pm    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (district_id, date)
);

CREATE TABLE IF NOT EXISTS daily_district_forecasts (
	district_id INTEGER NOT NULL,
	date        DATE NOT NULL,
	temp_2pm    DOUBLE PRECISION NOT NULL,
	pm25_2pm    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (district_id, date)
);

CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
	id           BIGSERIAL PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	payload      JSONB NOT NULL
);
`
