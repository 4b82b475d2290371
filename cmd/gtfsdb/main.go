package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"gtfsdb/internal/config"
	"gtfsdb/internal/gtfs"
	"gtfsdb/internal/logging"
	"gtfsdb/internal/storage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// A missing .env file is fine.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gtfsdb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gtfsdb [flags] FEED\n\nFEED is a feed directory or .zip archive.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", os.Getenv("GTFSDB_CONFIG"), "YAML configuration file")
	mode := fs.StringP("mode", "m", "semantic", "memory, semantic or raw")
	verify := fs.Bool("verify", false, "read every table back after writing")
	driver := fs.String("driver", "", "database driver: sqlite3, sqlite or pgx")
	dsn := fs.String("db", "", "database file or connection string")
	batchSize := fs.Int("batch-size", 0, "rows per transaction")
	rowPolicy := fs.String("row-policy", "", "skip or abort on a bad row")
	maxLine := fs.Int("max-line-length", 0, "longest accepted line in bytes")
	requireCore := fs.Bool("require-core-files", false, "fail when a required feed file is missing")
	keepExisting := fs.Bool("keep-existing", false, "append instead of clearing the tables first")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	logFormat := fs.String("log-format", "", "text or json")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	feedPath := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if *batchSize != 0 {
		cfg.Import.BatchSize = *batchSize
	}
	if *rowPolicy != "" {
		cfg.Import.RowPolicy = *rowPolicy
	}
	if *maxLine != 0 {
		cfg.Import.MaxLineLength = *maxLine
	}
	if fs.Changed("require-core-files") {
		cfg.Import.RequireCoreFiles = *requireCore
	}
	if fs.Changed("keep-existing") {
		cfg.Import.ClearExisting = !*keepExisting
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	opts, err := importOptions(cfg)
	if err != nil {
		logger.Error("invalid import options", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "memory":
		feed, err := gtfs.ReadFeed(ctx, feedPath, opts, logger)
		if err != nil {
			logger.Error("failed to read feed", "error", err)
			return 1
		}
		printCounts(stdout, feed.Counts())
		if len(feed.Rejected) > 0 {
			fmt.Fprintf(stdout, "%s rows rejected\n", humanize.Comma(int64(len(feed.Rejected))))
		}
		return 0
	case "semantic", "raw":
	default:
		logger.Error("unknown mode", "mode", *mode)
		return 2
	}

	db, err := storage.Open(ctx, storage.Options{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		CreateIfAbsent: true,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close()

	var p gtfs.Persister = gtfs.NewWriter(db, opts, logger)
	if *mode == "raw" {
		p = gtfs.NewRawImporter(db, opts, logger)
	}
	res, err := p.Persist(ctx, feedPath)
	printResult(stdout, res)
	if err != nil {
		return 1
	}

	if *verify {
		feed, err := gtfs.FetchFeed(ctx, db)
		if err != nil {
			logger.Error("failed to read back feed", "error", err)
			return 1
		}
		fmt.Fprintln(stdout, "stored rows:")
		printCounts(stdout, feed.Counts())
	}
	return 0
}

func importOptions(cfg *config.Config) (gtfs.Options, error) {
	policy, err := gtfs.ParseRowPolicy(cfg.Import.RowPolicy)
	if err != nil {
		return gtfs.Options{}, err
	}
	return gtfs.Options{
		RowPolicy:        policy,
		MaxLineLength:    cfg.Import.MaxLineLength,
		BatchSize:        cfg.Import.BatchSize,
		RequireCoreFiles: cfg.Import.RequireCoreFiles,
		ClearExisting:    cfg.Import.ClearExisting,
	}, nil
}

func printCounts(w io.Writer, counts []gtfs.TableCount) {
	for _, c := range counts {
		fmt.Fprintf(w, "  %-16s %12s\n", c.Table, humanize.Comma(int64(c.Rows)))
	}
}

func printResult(w io.Writer, res *gtfs.Result) {
	fmt.Fprintf(w, "%s import: %s\n", res.Strategy, res.Status)
	fmt.Fprintf(w, "  committed %s rows in %s batches\n",
		humanize.Comma(int64(res.Rows)), humanize.Comma(int64(res.Batches)))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "  skipped %s rows\n", humanize.Comma(int64(len(res.Skipped))))
	}
	if res.FailedFile != "" {
		fmt.Fprintf(w, "  stopped in %s\n", res.FailedFile)
	}
	if res.ImportID != "" {
		fmt.Fprintf(w, "  import id %s\n", res.ImportID)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", res.Err)
	}
}
