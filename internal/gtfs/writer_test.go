package gtfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtfsdb/internal/logging"
	"gtfsdb/internal/storage"
)

var sqliteDrivers = []string{storage.DriverSQLite3, storage.DriverSQLite}

func openTestDB(t *testing.T, driver string) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.Options{
		Driver:         driver,
		DSN:            filepath.Join(t.TempDir(), "gtfs.db"),
		CreateIfAbsent: true,
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *storage.DB, table string) int {
	t.Helper()
	n, err := db.CountRows(context.Background(), table)
	require.NoError(t, err)
	return n
}

func TestWriterRoundTrip(t *testing.T) {
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			dir := writeFeed(t, sampleFeed)
			want, err := readTestFeed(t, dir, DefaultOptions())
			require.NoError(t, err)

			db := openTestDB(t, driver)
			res, err := NewWriter(db, DefaultOptions(), logging.Discard()).Persist(ctx, dir)
			require.NoError(t, err)
			assert.Equal(t, StatusSuccess, res.Status)
			assert.Equal(t, "semantic", res.Strategy)
			assert.Equal(t, sampleRows, res.Rows)
			assert.Equal(t, 1, res.Batches)
			assert.Equal(t, 3, res.Inserted["stops"])
			assert.Empty(t, res.Skipped)

			got, err := FetchFeed(ctx, db)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("read-back feed mismatch (-want +got):\n%s", diff)
			}

			id, err := db.GetMetadata(ctx, storage.MetaImportID)
			require.NoError(t, err)
			assert.Equal(t, res.ImportID, id)
			strategy, err := db.GetMetadata(ctx, storage.MetaImportStrategy)
			require.NoError(t, err)
			assert.Equal(t, "semantic", strategy)
			source, err := db.GetMetadata(ctx, storage.MetaFeedSource)
			require.NoError(t, err)
			assert.Equal(t, dir, source)
		})
	}
}

func TestWriterRoundTripClippedText(t *testing.T) {
	ctx := context.Background()
	name := strings.Repeat("a", 254) + " tail"
	dir := writeFeed(t, map[string]string{
		"stops.txt": "stop_id,stop_name\nS1," + name + "\n",
	})
	want, err := readTestFeed(t, dir, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, want.Stops, 1)
	assert.Equal(t, strings.Repeat("a", 254), want.Stops[0].Name)

	db := openTestDB(t, storage.DriverSQLite3)
	_, err = NewWriter(db, DefaultOptions(), logging.Discard()).Persist(ctx, dir)
	require.NoError(t, err)

	got, err := FetchStops(ctx, db)
	require.NoError(t, err)
	if diff := cmp.Diff(want.Stops, got); diff != "" {
		t.Errorf("clipped stop read-back mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterBatches(t *testing.T) {
	db := openTestDB(t, storage.DriverSQLite3)
	opts := DefaultOptions()
	opts.BatchSize = 5

	res, err := NewWriter(db, opts, logging.Discard()).Persist(context.Background(), writeFeed(t, sampleFeed))
	require.NoError(t, err)
	assert.Equal(t, sampleRows, res.Rows)
	assert.Equal(t, 5, res.Batches)
}

func TestWriterClearExisting(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, storage.DriverSQLite3)
	dir := writeFeed(t, sampleFeed)
	opts := DefaultOptions()

	for i := 0; i < 2; i++ {
		_, err := NewWriter(db, opts, logging.Discard()).Persist(ctx, dir)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, countRows(t, db, "stops"))

	opts.ClearExisting = false
	_, err := NewWriter(db, opts, logging.Discard()).Persist(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 6, countRows(t, db, "stops"))
}

func TestWriterSkipRow(t *testing.T) {
	db := openTestDB(t, storage.DriverSQLite3)
	opts := DefaultOptions()
	opts.MaxLineLength = 100
	dir := writeFeed(t, withFiles(map[string]string{"stops.txt": badStops}))

	res, err := NewWriter(db, opts, logging.Discard()).Persist(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Status)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 3, res.Skipped[0].Line)
	assert.ErrorIs(t, res.Skipped[1], ErrLineTooLong)
	assert.Equal(t, 2, countRows(t, db, "stops"))
	assert.Equal(t, sampleRows-1, res.Rows)
}

func TestWriterAbortFile(t *testing.T) {
	db := openTestDB(t, storage.DriverSQLite3)
	opts := DefaultOptions()
	opts.RowPolicy = AbortFile
	opts.BatchSize = 1
	dir := writeFeed(t, withFiles(map[string]string{"stops.txt": badStops}))

	res, err := NewWriter(db, opts, logging.Discard()).Persist(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Equal(t, StatusWriteFailure, res.Status)
	assert.Equal(t, "stops.txt", res.FailedFile)

	// agency and the first stop were committed one row per batch.
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 2, res.Batches)
	assert.Equal(t, 1, countRows(t, db, "agency"))
	assert.Equal(t, 1, countRows(t, db, "stops"))
}

func TestWriterFailureKeepsCommittedBatches(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, storage.DriverSQLite3)
	require.NoError(t, db.Migrate(ctx))
	_, err := db.ExecContext(ctx, `CREATE TRIGGER reject_bad_stop BEFORE INSERT ON stops
		WHEN NEW.stop_id = 'BAD'
		BEGIN SELECT RAISE(ABORT, 'bad stop'); END`)
	require.NoError(t, err)

	stops := "stop_id,stop_name\nS1,One\nS2,Two\nBAD,Bad\nS4,Four\n"
	dir := writeFeed(t, map[string]string{
		"agency.txt": sampleFeed["agency.txt"],
		"stops.txt":  stops,
	})
	opts := DefaultOptions()
	opts.BatchSize = 2

	res, err := NewWriter(db, opts, logging.Discard()).Persist(ctx, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, StatusWriteFailure, res.Status)
	assert.Equal(t, "stops.txt", res.FailedFile)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 1, res.Batches)
	assert.Equal(t, 1, countRows(t, db, "agency"))
	assert.Equal(t, 1, countRows(t, db, "stops"))

	id, err := db.GetMetadata(ctx, storage.MetaImportID)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestWriterSetupFailure(t *testing.T) {
	db := openTestDB(t, storage.DriverSQLite3)
	res, err := NewWriter(db, DefaultOptions(), logging.Discard()).
		Persist(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, StatusSetupFailure, res.Status)
	assert.Zero(t, res.Rows)
}

func TestWriterCancelled(t *testing.T) {
	db := openTestDB(t, storage.DriverSQLite3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewWriter(db, DefaultOptions(), logging.Discard()).Persist(ctx, writeFeed(t, sampleFeed))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusWriteFailure, res.Status)
	assert.Zero(t, res.Rows)
}

func TestRawImport(t *testing.T) {
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			dir := writeFeed(t, sampleFeed)
			db := openTestDB(t, driver)

			res, err := NewRawImporter(db, DefaultOptions(), logging.Discard()).Persist(ctx, dir)
			require.NoError(t, err)
			assert.Equal(t, StatusSuccess, res.Status)
			assert.Equal(t, "raw", res.Strategy)
			assert.Equal(t, sampleRows, res.Rows)

			for _, tbl := range Tables() {
				assert.Equal(t, res.Inserted[tbl.Name], countRows(t, db, tbl.Name), tbl.Name)
			}

			// Blank and absent cells come back as the decoders' defaults, so
			// the read-back equals the in-memory feed.
			want, err := readTestFeed(t, dir, DefaultOptions())
			require.NoError(t, err)
			got, err := FetchFeed(ctx, db)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("raw read-back mismatch (-want +got):\n%s", diff)
			}

			var color, pickup any
			require.NoError(t, db.QueryRowContext(ctx,
				`SELECT route_color, continuous_pickup FROM routes WHERE route_id = 'R1'`).Scan(&color, &pickup))
			assert.Nil(t, color, "blank cell stored as NULL")
			assert.EqualValues(t, 1, pickup, "absent column takes the column default")
		})
	}
}

func TestRawImportKeepsUnvalidatedRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, storage.DriverSQLite3)
	opts := DefaultOptions()
	opts.MaxLineLength = 100
	dir := writeFeed(t, map[string]string{"stops.txt": badStops})

	res, err := NewRawImporter(db, opts, logging.Discard()).Persist(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Status)
	require.Len(t, res.Skipped, 1)
	assert.ErrorIs(t, res.Skipped[0], ErrLineTooLong)

	// Five data lines minus the over-long one.
	assert.Equal(t, 4, countRows(t, db, "stops"))
	stops, err := FetchStops(ctx, db)
	require.NoError(t, err)
	require.Len(t, stops, 4)
	assert.Equal(t, "", stops[1].ID)
	assert.Equal(t, "No Id", stops[1].Name)
	assert.Equal(t, Stop{}, stops[2])
}

func TestFetchSchemaErrors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, storage.DriverSQLite3)

	_, err := FetchStops(ctx, db)
	assert.ErrorIs(t, err, ErrSchema)
	_, err = FetchFeed(ctx, db)
	assert.ErrorIs(t, err, ErrSchema)

	require.NoError(t, db.Migrate(ctx))
	stops, err := FetchStops(ctx, db)
	require.NoError(t, err)
	assert.NotNil(t, stops)
	assert.Empty(t, stops)
}

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("GTFSDB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GTFSDB_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Options{Driver: storage.DriverPostgres, DSN: dsn}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := writeFeed(t, sampleFeed)
	want, err := readTestFeed(t, dir, DefaultOptions())
	require.NoError(t, err)

	for _, p := range []Persister{
		NewWriter(db, DefaultOptions(), logging.Discard()),
		NewRawImporter(db, DefaultOptions(), logging.Discard()),
	} {
		res, err := p.Persist(ctx, dir)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, res.Status)

		got, err := FetchFeed(ctx, db)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%s read-back mismatch (-want +got):\n%s", res.Strategy, diff)
		}
	}
}

func TestPersisterErrorsWrapRowError(t *testing.T) {
	db := openTestDB(t, storage.DriverSQLite3)
	opts := DefaultOptions()
	opts.RowPolicy = AbortFile
	dir := writeFeed(t, map[string]string{"trips.txt": "route_id,service_id,trip_id\nR1,WK,\n"})

	_, err := NewWriter(db, opts, logging.Discard()).Persist(context.Background(), dir)
	var rerr *RowError
	require.True(t, errors.As(err, &rerr), "error %v is not a *RowError", err)
	assert.Equal(t, "trips.txt", rerr.File)
	assert.Equal(t, 2, rerr.Line)
}
