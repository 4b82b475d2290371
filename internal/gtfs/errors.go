package gtfs

import (
	"errors"
	"fmt"
)

var (
	// ErrIO reports a feed source or file that cannot be opened or read.
	ErrIO = errors.New("feed io error")
	// ErrLineTooLong reports a physical line longer than the reader's limit.
	ErrLineTooLong = errors.New("line too long")
	// ErrMalformedRecord reports a row whose required field is blank or missing.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrSchema reports a table that is missing on read or could not be created on write.
	ErrSchema = errors.New("schema error")
	// ErrWrite reports a statement that failed while a batch was open.
	ErrWrite = errors.New("write failure")
	// ErrEmptyRecord is returned by the record decoders for a row where every cell is blank.
	// Such rows are dropped without being counted as failures.
	ErrEmptyRecord = errors.New("empty record")
)

// RowError locates a row-level failure within a feed file.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
