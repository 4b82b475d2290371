package gtfs

import (
	"context"
	"log/slog"
	"strings"

	"gtfsdb/internal/storage"
)

// RawImporter is the non-validating strategy. It copies the trimmed text of
// every known column straight into the table and lets the database convert
// it. Blank cells are stored as NULL and absent columns take the column
// default. No required-field checks are made, values are not clipped and
// enumeration codes are not checked.
type RawImporter struct {
	p *persister
}

// NewRawImporter creates a raw Persister.
func NewRawImporter(db *storage.DB, opts Options, logger *slog.Logger) *RawImporter {
	return &RawImporter{p: &persister{
		db:       db,
		opts:     opts,
		logger:   logger.With("strategy", "raw"),
		strategy: "raw",
		mapRows:  rawRows,
	}}
}

// Persist copies the feed at path into the database.
func (r *RawImporter) Persist(ctx context.Context, path string) (*Result, error) {
	return r.p.persist(ctx, path)
}

// rawRows maps the header onto the table's columns. A column named twice
// takes its last value; unknown columns are dropped.
func rawRows(e entity, names []string) ([]string, func([]string) ([]any, error)) {
	pos := make(map[string]int, len(names))
	for i, name := range names {
		pos[name] = i
	}
	var (
		columns []string
		index   []int
	)
	for _, col := range e.table().Columns {
		if i, ok := pos[col]; ok {
			columns = append(columns, col)
			index = append(index, i)
		}
	}

	return columns, func(values []string) ([]any, error) {
		args := make([]any, len(index))
		for j, i := range index {
			if v := strings.TrimSpace(values[i]); v != "" {
				args[j] = v
			}
		}
		return args, nil
	}
}
