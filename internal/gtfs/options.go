package gtfs

import (
	"fmt"
	"strings"
)

// RowPolicy decides what happens to a row that cannot be decoded.
type RowPolicy int

const (
	// SkipRow drops the row, records it and continues with the next line.
	SkipRow RowPolicy = iota
	// AbortFile stops at the first bad row and fails the whole read or write.
	AbortFile
)

func (p RowPolicy) String() string {
	switch p {
	case SkipRow:
		return "skip"
	case AbortFile:
		return "abort"
	default:
		return fmt.Sprintf("RowPolicy(%d)", int(p))
	}
}

// ParseRowPolicy accepts "skip" or "abort".
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "":
		return SkipRow, nil
	case "abort":
		return AbortFile, nil
	}
	return SkipRow, fmt.Errorf("unknown row policy %q", s)
}

// DefaultBatchSize is the number of rows committed per transaction.
const DefaultBatchSize = 10000

// Options controls how feeds are read and written.
type Options struct {
	RowPolicy     RowPolicy
	MaxLineLength int
	BatchSize     int

	// RequireCoreFiles fails the read when agency, stops, routes, trips or
	// stop_times is missing, or when both calendar files are.
	RequireCoreFiles bool

	// ClearExisting empties every entity table before writing.
	ClearExisting bool
}

func DefaultOptions() Options {
	return Options{
		RowPolicy:     SkipRow,
		MaxLineLength: MaxLineLength,
		BatchSize:     DefaultBatchSize,
		ClearExisting: true,
	}
}
