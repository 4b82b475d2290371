package gtfs

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Column widths of the stored string fields.
const (
	idLen       = 64
	nameLen     = 255
	descLen     = 1023
	urlLen      = 511
	tzLen       = 64
	langLen     = 16
	phoneLen    = 64
	emailLen    = 255
	colorLen    = 6
	currencyLen = 3
	timeLen     = 8
	dateLen     = 8
)

const dateLayout = "20060102"

// Date is a service date in the feed's fixed YYYYMMDD form. The empty Date
// means no date was given.
type Date string

// Time returns the date as midnight UTC.
func (d Date) Time() (time.Time, error) {
	return time.Parse(dateLayout, string(d))
}

// ParseString trims surrounding whitespace.
func ParseString(raw string) string {
	return strings.TrimSpace(raw)
}

// ParseID trims an identifier and clips it to the stored identifier width.
func ParseID(raw string) string {
	return ParseText(raw, idLen)
}

// ParseText trims raw and clips it to n bytes. Whitespace left at the end
// by the cut is dropped as well, so a stored value decodes to itself.
func ParseText(raw string, n int) string {
	return strings.TrimRightFunc(clip(ParseString(raw), n), unicode.IsSpace)
}

// ParseCoordinate parses a latitude or longitude. Malformed or non-finite
// values decode as 0.
func ParseCoordinate(raw string) float64 {
	return ParseFloat(raw)
}

// ParseFloat parses a decimal number, yielding 0 when malformed or non-finite.
func ParseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt parses a whole number, yielding 0 when malformed.
func ParseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// ParseDate accepts exactly eight digits forming a valid calendar date.
// Anything else decodes as the empty Date.
func ParseDate(raw string) Date {
	s := strings.TrimSpace(raw)
	if len(s) != dateLen {
		return ""
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return ""
	}
	return Date(s)
}

// ParseTime normalizes an H:MM:SS or HH:MM:SS time of day to HH:MM:SS.
// Hours may exceed 23 for trips running past midnight. Malformed values
// decode as "".
func ParseTime(raw string) string {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return ""
	}
	var hms [3]int
	for i, p := range parts {
		if p == "" || (i > 0 && len(p) > 2) {
			return ""
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return ""
		}
		hms[i] = n
	}
	if hms[0] > 99 || hms[1] > 59 || hms[2] > 59 {
		return ""
	}
	return clip(pad2(hms[0])+":"+pad2(hms[1])+":"+pad2(hms[2]), timeLen)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
