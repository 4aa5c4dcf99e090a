package typeinfer

import (
	"strconv"
	"strings"
	"time"
)

// ParseOptions controls how strings are read as numbers.
type ParseOptions struct {
	// DecimalSeparator; 0 means auto-detect per value from the last ',' or '.'.
	DecimalSeparator rune
	// ThousandsSeparator; 0 means none (or, with auto-detect, the other of ',' '.').
	ThousandsSeparator rune
}

// DefaultParseOptions reads numbers the way a dataframe reader does:
// '.' decimal point and no grouping.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{DecimalSeparator: '.'}
}

// ParseNumber parses s as a float under opt. A single trailing '%' is
// dropped so "12%" reads as 12.
func ParseNumber(s string, opt ParseOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"01/02/2006",
	"02/01/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02-Jan-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseTime tries the known layouts in order and returns the first match.
// Ambiguous day/month forms resolve month-first.
func ParseTime(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsMissingToken reports the spellings readers treat as "no value".
func IsMissingToken(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "#N/A":
		return true
	}
	return false
}
