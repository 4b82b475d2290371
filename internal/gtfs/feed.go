package gtfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
)

const progressEvery = 100_000

// rowFunc handles one row of raw values. Returning ErrMalformedRecord
// subjects the row to the row policy; ErrEmptyRecord drops it silently.
type rowFunc func(values []string) error

// scanFile reads the header of file, asks onHeader for a row handler and
// feeds it every following row. It returns the number of rows accepted, or
// errFileMissing when the file is absent or has no content at all.
func scanFile(ctx context.Context, fsys fs.FS, file string, opts Options, logger *slog.Logger,
	onHeader func(names []string) rowFunc, onReject func(*RowError)) (int, error) {
	f, err := fsys.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, errFileMissing
	}
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", ErrIO, file, err)
	}
	defer f.Close()

	tr := NewTextReader(f, opts.MaxLineLength)
	names, err := tr.ReadHeader()
	if err != nil {
		if errors.Is(err, ErrIO) && tr.Line() == 0 {
			logger.Warn("feed file is empty", "file", file)
			return 0, errFileMissing
		}
		return 0, &RowError{File: file, Line: tr.Line(), Err: err}
	}

	handle := onHeader(names)
	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		values, err := tr.ReadRecord(len(names))
		if err == io.EOF {
			break
		}
		if err != nil && !errors.Is(err, ErrLineTooLong) && !errors.Is(err, ErrMalformedRecord) {
			return rows, fmt.Errorf("%w: read %s: %v", ErrIO, file, err)
		}
		if err == nil {
			err = handle(values)
		}

		switch {
		case err == nil:
			rows++
			if rows%progressEvery == 0 {
				logger.Info("reading feed file", "file", file, "rows", rows)
			}
		case errors.Is(err, ErrEmptyRecord):
		case errors.Is(err, ErrLineTooLong), errors.Is(err, ErrMalformedRecord):
			rerr := &RowError{File: file, Line: tr.Line(), Err: err}
			if opts.RowPolicy == AbortFile {
				return rows, rerr
			}
			logger.Warn("skipping row", "file", file, "line", tr.Line(), "error", err)
			if onReject != nil {
				onReject(rerr)
			}
		default:
			return rows, err
		}
	}
	return rows, nil
}

// ReadFeed decodes a feed directory or .zip archive into memory.
func ReadFeed(ctx context.Context, path string, opts Options, logger *slog.Logger) (*Feed, error) {
	fsys, closer, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return ReadFeedFS(ctx, fsys, opts, logger)
}

// ReadFeedFS decodes every known file present in fsys. Missing files leave
// their collection empty. Rows that fail to decode are handled according
// to opts.RowPolicy; under SkipRow they are listed in Feed.Rejected.
func ReadFeedFS(ctx context.Context, fsys fs.FS, opts Options, logger *slog.Logger) (*Feed, error) {
	if err := checkCoreFiles(fsys, opts); err != nil {
		return nil, err
	}

	a := &assembler{ctx: ctx, fsys: fsys, opts: opts, logger: logger}
	feed := &Feed{}
	var err error
	if feed.Agencies, err = collect(a, agencySchema); err != nil {
		return nil, err
	}
	if feed.Stops, err = collect(a, stopSchema); err != nil {
		return nil, err
	}
	if feed.Routes, err = collect(a, routeSchema); err != nil {
		return nil, err
	}
	if feed.Trips, err = collect(a, tripSchema); err != nil {
		return nil, err
	}
	if feed.StopTimes, err = collect(a, stopTimeSchema); err != nil {
		return nil, err
	}
	if feed.Calendar, err = collect(a, calendarSchema); err != nil {
		return nil, err
	}
	if feed.CalendarDates, err = collect(a, calendarDateSchema); err != nil {
		return nil, err
	}
	if feed.FareAttributes, err = collect(a, fareAttributeSchema); err != nil {
		return nil, err
	}
	if feed.FareRules, err = collect(a, fareRuleSchema); err != nil {
		return nil, err
	}
	if feed.Frequencies, err = collect(a, frequencySchema); err != nil {
		return nil, err
	}
	if feed.Shapes, err = collect(a, shapeSchema); err != nil {
		return nil, err
	}
	if feed.Transfers, err = collect(a, transferSchema); err != nil {
		return nil, err
	}
	if feed.FeedInfo, err = collect(a, feedInfoSchema); err != nil {
		return nil, err
	}
	feed.Rejected = a.rejected

	logger.Info("feed loaded",
		"stops", len(feed.Stops),
		"routes", len(feed.Routes),
		"trips", len(feed.Trips),
		"stop_times", len(feed.StopTimes),
		"rejected", len(feed.Rejected),
	)
	return feed, nil
}

type assembler struct {
	ctx      context.Context
	fsys     fs.FS
	opts     Options
	logger   *slog.Logger
	rejected []*RowError
}

func collect[T any](a *assembler, s *schema[T]) ([]T, error) {
	out := make([]T, 0)
	n, err := scanFile(a.ctx, a.fsys, s.File, a.opts, a.logger,
		func(names []string) rowFunc {
			return func(values []string) error {
				rec, err := s.decode(names, values)
				if err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			}
		},
		func(rerr *RowError) { a.rejected = append(a.rejected, rerr) },
	)
	if errors.Is(err, errFileMissing) {
		a.logger.Debug("feed file not present", "file", s.File)
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.File, err)
	}
	a.logger.Info("read feed file", "file", s.File, "rows", n)
	return out, nil
}
