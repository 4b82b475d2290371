package storage

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates every table and index that does not exist yet. It is
// safe to run against an already migrated database.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		stmt = strings.ReplaceAll(stmt, "{{rowid}}", db.dialect.rowIDColumn)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	db.logger.Debug("database migrations applied", "statements", len(migrations))
	return nil
}

// Keys are not enforced. Every table carries a surrogate row_id so rows read
// back in insert order.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS agency (
		{{rowid}},
		agency_id       VARCHAR(64),
		agency_name     VARCHAR(255),
		agency_url      VARCHAR(511),
		agency_timezone VARCHAR(64),
		agency_lang     VARCHAR(16),
		agency_phone    VARCHAR(64),
		agency_fare_url VARCHAR(511),
		agency_email    VARCHAR(255)
	)`,

	`CREATE TABLE IF NOT EXISTS stops (
		{{rowid}},
		stop_id             VARCHAR(64),
		stop_code           VARCHAR(255),
		stop_name           VARCHAR(255),
		stop_desc           VARCHAR(1023),
		stop_lat            DOUBLE PRECISION,
		stop_lon            DOUBLE PRECISION,
		zone_id             VARCHAR(64),
		stop_url            VARCHAR(511),
		location_type       SMALLINT DEFAULT 0,
		parent_station      VARCHAR(64),
		stop_timezone       VARCHAR(64),
		wheelchair_boarding SMALLINT DEFAULT 0,
		level_id            VARCHAR(64),
		platform_code       VARCHAR(255)
	)`,

	`CREATE TABLE IF NOT EXISTS routes (
		{{rowid}},
		route_id            VARCHAR(64),
		agency_id           VARCHAR(64),
		route_short_name    VARCHAR(255),
		route_long_name     VARCHAR(255),
		route_desc          VARCHAR(1023),
		route_type          SMALLINT,
		route_url           VARCHAR(511),
		route_color         VARCHAR(6) DEFAULT 'FFFFFF',
		route_text_color    VARCHAR(6) DEFAULT '000000',
		route_sort_order    INTEGER DEFAULT 0,
		continuous_pickup   SMALLINT DEFAULT 1,
		continuous_drop_off SMALLINT DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		{{rowid}},
		route_id              VARCHAR(64),
		service_id            VARCHAR(64),
		trip_id               VARCHAR(64),
		trip_headsign         VARCHAR(255),
		trip_short_name       VARCHAR(255),
		direction_id          SMALLINT,
		block_id              VARCHAR(64),
		shape_id              VARCHAR(64),
		wheelchair_accessible SMALLINT DEFAULT 0,
		bikes_allowed         SMALLINT DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS stop_times (
		{{rowid}},
		trip_id             VARCHAR(64),
		arrival_time        VARCHAR(8),
		departure_time      VARCHAR(8),
		stop_id             VARCHAR(64),
		stop_sequence       INTEGER,
		stop_headsign       VARCHAR(255),
		pickup_type         SMALLINT DEFAULT 0,
		drop_off_type       SMALLINT DEFAULT 0,
		continuous_pickup   SMALLINT DEFAULT 1,
		continuous_drop_off SMALLINT DEFAULT 1,
		shape_dist_traveled DOUBLE PRECISION DEFAULT 0,
		timepoint           SMALLINT DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS calendar (
		{{rowid}},
		service_id VARCHAR(64),
		monday     SMALLINT DEFAULT 0,
		tuesday    SMALLINT DEFAULT 0,
		wednesday  SMALLINT DEFAULT 0,
		thursday   SMALLINT DEFAULT 0,
		friday     SMALLINT DEFAULT 0,
		saturday   SMALLINT DEFAULT 0,
		sunday     SMALLINT DEFAULT 0,
		start_date VARCHAR(8),
		end_date   VARCHAR(8)
	)`,

	`CREATE TABLE IF NOT EXISTS calendar_dates (
		{{rowid}},
		service_id     VARCHAR(64),
		date           VARCHAR(8),
		exception_type SMALLINT
	)`,

	`CREATE TABLE IF NOT EXISTS fare_attributes (
		{{rowid}},
		fare_id           VARCHAR(64),
		price             DOUBLE PRECISION,
		currency_type     VARCHAR(3),
		payment_method    SMALLINT,
		transfers         SMALLINT,
		agency_id         VARCHAR(64),
		transfer_duration INTEGER DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS fare_rules (
		{{rowid}},
		fare_id        VARCHAR(64),
		route_id       VARCHAR(64),
		origin_id      VARCHAR(64),
		destination_id VARCHAR(64),
		contains_id    VARCHAR(64)
	)`,

	`CREATE TABLE IF NOT EXISTS frequencies (
		{{rowid}},
		trip_id      VARCHAR(64),
		start_time   VARCHAR(8),
		end_time     VARCHAR(8),
		headway_secs INTEGER,
		exact_times  SMALLINT DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS shapes (
		{{rowid}},
		shape_id            VARCHAR(64),
		shape_pt_lat        DOUBLE PRECISION,
		shape_pt_lon        DOUBLE PRECISION,
		shape_pt_sequence   INTEGER,
		shape_dist_traveled DOUBLE PRECISION DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS transfers (
		{{rowid}},
		from_stop_id      VARCHAR(64),
		to_stop_id        VARCHAR(64),
		transfer_type     SMALLINT DEFAULT 0,
		min_transfer_time INTEGER DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS feed_info (
		{{rowid}},
		feed_publisher_name VARCHAR(255),
		feed_publisher_url  VARCHAR(511),
		feed_lang           VARCHAR(16),
		default_lang        VARCHAR(16),
		feed_start_date     VARCHAR(8),
		feed_end_date       VARCHAR(8),
		feed_version        VARCHAR(255),
		feed_contact_email  VARCHAR(255),
		feed_contact_url    VARCHAR(511)
	)`,

	// Import bookkeeping (imported_at, import_id, import_strategy, feed_source)
	`CREATE TABLE IF NOT EXISTS feed_metadata (
		key   VARCHAR(64) PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stop_times_trip ON stop_times(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stop_times_stop ON stop_times(stop_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_route ON trips(route_id)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_dates_service ON calendar_dates(service_id)`,
	`CREATE INDEX IF NOT EXISTS idx_shapes_shape ON shapes(shape_id)`,
}
