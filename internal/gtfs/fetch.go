package gtfs

import (
	"context"
	"database/sql"
	"fmt"

	"gtfsdb/internal/storage"
)

// fetchAll reads every row of s's table in insert order. Columns are decoded
// by name with the same defaulting rules as the feed files; NULL counts as a
// blank cell. Required fields are not checked.
func fetchAll[T any](ctx context.Context, db *storage.DB, s *schema[T]) ([]T, error) {
	ok, err := db.TableExists(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: table %s does not exist", ErrSchema, s.Name)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+s.Name+" ORDER BY row_id")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Name, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", s.Name, err)
	}
	cells := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range cells {
		dest[i] = &cells[i]
	}
	values := make([]string, len(names))

	out := make([]T, 0)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Name, err)
		}
		for i, c := range cells {
			values[i] = c.String
		}
		rec := s.fresh()
		s.assign(&rec, names, values)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name, err)
	}
	return out, nil
}

func FetchAgencies(ctx context.Context, db *storage.DB) ([]Agency, error) {
	return fetchAll(ctx, db, agencySchema)
}

func FetchStops(ctx context.Context, db *storage.DB) ([]Stop, error) {
	return fetchAll(ctx, db, stopSchema)
}

func FetchRoutes(ctx context.Context, db *storage.DB) ([]Route, error) {
	return fetchAll(ctx, db, routeSchema)
}

func FetchTrips(ctx context.Context, db *storage.DB) ([]Trip, error) {
	return fetchAll(ctx, db, tripSchema)
}

func FetchStopTimes(ctx context.Context, db *storage.DB) ([]StopTime, error) {
	return fetchAll(ctx, db, stopTimeSchema)
}

func FetchCalendar(ctx context.Context, db *storage.DB) ([]CalendarEntry, error) {
	return fetchAll(ctx, db, calendarSchema)
}

func FetchCalendarDates(ctx context.Context, db *storage.DB) ([]CalendarDate, error) {
	return fetchAll(ctx, db, calendarDateSchema)
}

func FetchFareAttributes(ctx context.Context, db *storage.DB) ([]FareAttribute, error) {
	return fetchAll(ctx, db, fareAttributeSchema)
}

func FetchFareRules(ctx context.Context, db *storage.DB) ([]FareRule, error) {
	return fetchAll(ctx, db, fareRuleSchema)
}

func FetchFrequencies(ctx context.Context, db *storage.DB) ([]Frequency, error) {
	return fetchAll(ctx, db, frequencySchema)
}

func FetchShapes(ctx context.Context, db *storage.DB) ([]ShapePoint, error) {
	return fetchAll(ctx, db, shapeSchema)
}

func FetchTransfers(ctx context.Context, db *storage.DB) ([]Transfer, error) {
	return fetchAll(ctx, db, transferSchema)
}

func FetchFeedInfo(ctx context.Context, db *storage.DB) ([]FeedInfo, error) {
	return fetchAll(ctx, db, feedInfoSchema)
}

// FetchFeed reads every entity table back into a Feed.
func FetchFeed(ctx context.Context, db *storage.DB) (*Feed, error) {
	feed := &Feed{}
	var err error
	if feed.Agencies, err = FetchAgencies(ctx, db); err != nil {
		return nil, err
	}
	if feed.Stops, err = FetchStops(ctx, db); err != nil {
		return nil, err
	}
	if feed.Routes, err = FetchRoutes(ctx, db); err != nil {
		return nil, err
	}
	if feed.Trips, err = FetchTrips(ctx, db); err != nil {
		return nil, err
	}
	if feed.StopTimes, err = FetchStopTimes(ctx, db); err != nil {
		return nil, err
	}
	if feed.Calendar, err = FetchCalendar(ctx, db); err != nil {
		return nil, err
	}
	if feed.CalendarDates, err = FetchCalendarDates(ctx, db); err != nil {
		return nil, err
	}
	if feed.FareAttributes, err = FetchFareAttributes(ctx, db); err != nil {
		return nil, err
	}
	if feed.FareRules, err = FetchFareRules(ctx, db); err != nil {
		return nil, err
	}
	if feed.Frequencies, err = FetchFrequencies(ctx, db); err != nil {
		return nil, err
	}
	if feed.Shapes, err = FetchShapes(ctx, db); err != nil {
		return nil, err
	}
	if feed.Transfers, err = FetchTransfers(ctx, db); err != nil {
		return nil, err
	}
	if feed.FeedInfo, err = FetchFeedInfo(ctx, db); err != nil {
		return nil, err
	}
	return feed, nil
}
