package gtfs

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxLineLength is the default bound on a single physical line of a feed file.
const MaxLineLength = 10000

const utf8BOM = "\xef\xbb\xbf"

// TextReader reads comma-delimited feed files one physical line at a time.
// Each line is bounded in length before it is handed to encoding/csv, so a
// quoted field never spans lines and an over-long line costs one row.
type TextReader struct {
	br      *bufio.Reader
	maxLine int
	line    int
	buf     []byte
}

// NewTextReader wraps r. A maxLine of zero or less selects MaxLineLength.
func NewTextReader(r io.Reader, maxLine int) *TextReader {
	if maxLine <= 0 {
		maxLine = MaxLineLength
	}
	return &TextReader{br: bufio.NewReader(r), maxLine: maxLine}
}

// Line returns the 1-based number of the last line read.
func (r *TextReader) Line() int {
	return r.line
}

// ReadHeader reads the first line and returns its column names with
// enclosing quotes, surrounding spaces and a leading byte order mark removed.
func (r *TextReader) ReadHeader() ([]string, error) {
	line, err := r.readLine()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header line", ErrIO)
	}
	if err != nil {
		if errors.Is(err, ErrLineTooLong) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrIO, err)
	}

	line = strings.TrimPrefix(line, utf8BOM)
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("%w: empty header line", ErrIO)
	}
	names, err := splitFields(line)
	if err != nil {
		return nil, fmt.Errorf("%w: parse header: %v", ErrIO, err)
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names, nil
}

// ReadRecord reads the next non-blank line and returns exactly n raw values.
// Short rows are padded with empty values; values beyond n are dropped.
// It returns io.EOF when no lines remain. An over-long line yields
// ErrLineTooLong after the whole line has been consumed, so the next call
// continues with the following line.
func (r *TextReader) ReadRecord(n int) ([]string, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields, err := splitFields(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, r.line, err)
		}
		switch {
		case len(fields) < n:
			fields = append(fields, make([]string, n-len(fields))...)
		case len(fields) > n:
			fields = fields[:n]
		}
		return fields, nil
	}
}

// readLine returns one line without its terminator.
func (r *TextReader) readLine() (string, error) {
	r.buf = r.buf[:0]
	tooLong := false
	started := false
	for {
		frag, isPrefix, err := r.br.ReadLine()
		if err != nil {
			if started && err == io.EOF {
				break
			}
			return "", err
		}
		started = true
		if !tooLong {
			r.buf = append(r.buf, frag...)
			if len(r.buf) > r.maxLine {
				tooLong = true
				r.buf = r.buf[:0]
			}
		}
		if !isPrefix {
			break
		}
	}
	r.line++
	if tooLong {
		return "", fmt.Errorf("%w: line %d exceeds %d bytes", ErrLineTooLong, r.line, r.maxLine)
	}
	return string(r.buf), nil
}

// splitFields parses one physical line as a comma-separated record. Quotes
// are lenient: a stray quote is kept as text and an unterminated quoted
// field runs to the end of the line.
func splitFields(line string) ([]string, error) {
	if line == "" {
		return []string{""}, nil
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	fields, err := cr.Read()
	if err != nil {
		return nil, err
	}
	return fields, nil
}
