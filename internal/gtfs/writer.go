package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gtfsdb/internal/storage"
)

// Persister writes a feed into a database.
type Persister interface {
	Persist(ctx context.Context, path string) (*Result, error)
}

// Status is the outcome of a Persist call.
type Status int

const (
	StatusSuccess Status = iota
	// StatusPartial means every file was written but some rows were skipped.
	StatusPartial
	// StatusSetupFailure means nothing was written.
	StatusSetupFailure
	// StatusWriteFailure means writing stopped part way. Batches committed
	// before the failure stay committed.
	StatusWriteFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusSetupFailure:
		return "setup failure"
	case StatusWriteFailure:
		return "write failure"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result reports what a Persist call did.
type Result struct {
	Status   Status
	Strategy string
	ImportID string

	// Rows and Batches count committed rows and transactions.
	Rows    int
	Batches int

	// Inserted counts rows handed to the database per table. On a write
	// failure the rows of the open batch were rolled back.
	Inserted map[string]int

	Skipped    []*RowError
	FailedFile string
	Err        error
}

// mapper turns the rows of one file into insert arguments. It is built once
// per file from the header.
type mapper func(e entity, names []string) (columns []string, row func(values []string) ([]any, error))

type persister struct {
	db       *storage.DB
	opts     Options
	logger   *slog.Logger
	strategy string
	mapRows  mapper
}

// Writer is the semantic strategy: every row goes through the record
// decoders, so stored values are typed, defaulted and clipped, and rows
// missing a required field follow the row policy.
type Writer struct {
	p *persister
}

// NewWriter creates a semantic Persister.
func NewWriter(db *storage.DB, opts Options, logger *slog.Logger) *Writer {
	return &Writer{p: &persister{
		db:       db,
		opts:     opts,
		logger:   logger.With("strategy", "semantic"),
		strategy: "semantic",
		mapRows:  semanticRows,
	}}
}

// Persist reads the feed at path and stores every decoded record.
func (w *Writer) Persist(ctx context.Context, path string) (*Result, error) {
	return w.p.persist(ctx, path)
}

func semanticRows(e entity, names []string) ([]string, func([]string) ([]any, error)) {
	return e.table().Columns, func(values []string) ([]any, error) {
		return e.decodeRow(names, values)
	}
}

func (p *persister) persist(ctx context.Context, path string) (*Result, error) {
	start := time.Now()
	res := &Result{Strategy: p.strategy, Inserted: make(map[string]int)}
	fail := func(status Status, err error) (*Result, error) {
		if ctx.Err() != nil {
			status = StatusWriteFailure
		}
		res.Status = status
		res.Err = err
		p.logger.Error("feed import failed", "status", status, "rows", res.Rows,
			"batches", res.Batches, "file", res.FailedFile, "error", err)
		return res, err
	}

	fsys, closer, err := OpenSource(path)
	if err != nil {
		return fail(StatusSetupFailure, err)
	}
	defer closer.Close()
	if err := checkCoreFiles(fsys, p.opts); err != nil {
		return fail(StatusSetupFailure, err)
	}
	if err := p.db.Migrate(ctx); err != nil {
		return fail(StatusSetupFailure, fmt.Errorf("%w: %w", ErrSchema, err))
	}

	b := p.db.NewBatcher(p.opts.BatchSize)
	abort := func(file string, err error) (*Result, error) {
		if rerr := b.Rollback(); rerr != nil {
			p.logger.Warn("rollback failed", "error", rerr)
		}
		res.Rows, res.Batches = b.Committed()
		res.FailedFile = file
		return fail(StatusWriteFailure, fmt.Errorf("%w: %w", ErrWrite, err))
	}

	if p.opts.ClearExisting {
		for _, t := range Tables() {
			if err := b.Exec(ctx, "DELETE FROM "+t.Name); err != nil {
				return abort("", fmt.Errorf("clear %s: %w", t.Name, err))
			}
		}
	}

	for _, e := range entities {
		t := e.table()
		n, err := p.writeFile(ctx, fsys, b, e, res)
		if errors.Is(err, errFileMissing) {
			p.logger.Debug("feed file not present", "file", t.File)
			continue
		}
		if err != nil {
			return abort(t.File, fmt.Errorf("%s: %w", t.File, err))
		}
		res.Inserted[t.Name] = n
		p.logger.Info("imported feed file", "file", t.File, "rows", n)
	}
	if err := b.Flush(ctx); err != nil {
		return abort("", err)
	}
	res.Rows, res.Batches = b.Committed()

	res.ImportID = uuid.NewString()
	meta := []struct{ key, value string }{
		{storage.MetaImportedAt, time.Now().UTC().Format(time.RFC3339)},
		{storage.MetaImportID, res.ImportID},
		{storage.MetaImportStrategy, p.strategy},
		{storage.MetaFeedSource, path},
	}
	for _, m := range meta {
		if err := p.db.SetMetadata(ctx, m.key, m.value); err != nil {
			return fail(StatusWriteFailure, fmt.Errorf("%w: %w", ErrWrite, err))
		}
	}

	res.Status = StatusSuccess
	if len(res.Skipped) > 0 {
		res.Status = StatusPartial
	}
	p.logger.Info("feed import complete",
		"status", res.Status,
		"import_id", res.ImportID,
		"rows", res.Rows,
		"batches", res.Batches,
		"skipped", len(res.Skipped),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

func (p *persister) writeFile(ctx context.Context, fsys fs.FS, b *storage.Batcher, e entity, res *Result) (int, error) {
	t := e.table()
	return scanFile(ctx, fsys, t.File, p.opts, p.logger,
		func(names []string) rowFunc {
			columns, mapRow := p.mapRows(e, names)
			return func(values []string) error {
				args, err := mapRow(values)
				if err != nil {
					return err
				}
				return b.Insert(ctx, t.Name, columns, args...)
			}
		},
		func(rerr *RowError) { res.Skipped = append(res.Skipped, rerr) },
	)
}
