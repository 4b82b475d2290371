package gtfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource opens a feed stored as a directory of files or as a .zip
// archive. The returned closer must be closed once the feed has been read.
func OpenSource(path string) (fs.FS, io.Closer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open feed %s: %v", ErrIO, path, err)
	}
	if info.IsDir() {
		return os.DirFS(path), nopCloser{}, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return nil, nil, fmt.Errorf("%w: %s is neither a directory nor a .zip archive", ErrIO, path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open zip %s: %v", ErrIO, path, err)
	}
	return &zr.Reader, zr, nil
}

// hasFile reports whether name exists in fsys.
func hasFile(fsys fs.FS, name string) bool {
	_, err := fs.Stat(fsys, name)
	return err == nil
}

// checkCoreFiles enforces Options.RequireCoreFiles.
func checkCoreFiles(fsys fs.FS, opts Options) error {
	if !opts.RequireCoreFiles {
		return nil
	}
	var missing []string
	for _, t := range []Table{agencySchema.Table, stopSchema.Table, routeSchema.Table, tripSchema.Table, stopTimeSchema.Table} {
		if !hasFile(fsys, t.File) {
			missing = append(missing, t.File)
		}
	}
	if !hasFile(fsys, calendarSchema.File) && !hasFile(fsys, calendarDateSchema.File) {
		missing = append(missing, calendarSchema.File+" or "+calendarDateSchema.File)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: feed is missing %s", ErrIO, strings.Join(missing, ", "))
	}
	return nil
}

var errFileMissing = errors.New("file not in feed")
