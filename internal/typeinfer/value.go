package typeinfer

import (
	"math"
	"strconv"
	"time"
)

type valueKind uint8

const (
	kindMissing valueKind = iota
	kindNumber
	kindTime
	kindString
)

// Value is a single cell. The zero Value is the missing-value marker.
type Value struct {
	kind valueKind
	num  float64
	t    time.Time
	s    string
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Num wraps a number. NaN is treated as missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: kindNumber, num: f}
}

// Timestamp wraps a calendar timestamp, normalized to UTC.
func Timestamp(t time.Time) Value { return Value{kind: kindTime, t: t.UTC()} }

// Str wraps a string value.
func Str(s string) Value { return Value{kind: kindString, s: s} }

func (v Value) IsMissing() bool { return v.kind == kindMissing }

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) { return v.num, v.kind == kindNumber }

// Time returns the timestamp payload.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == kindTime }

// Text returns the string payload.
func (v Value) Text() (string, bool) { return v.s, v.kind == kindString }

// String renders the value for display and export. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format(time.RFC3339)
	case kindString:
		return v.s
	default:
		return ""
	}
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindNumber:
		return v.num == o.num
	case kindTime:
		return v.t.Equal(o.t)
	case kindString:
		return v.s == o.s
	default:
		return true
	}
}

// key identifies a value for distinct counting; values of different kinds
// never collide.
func (v Value) key() string {
	switch v.kind {
	case kindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case kindTime:
		return "t:" + strconv.FormatInt(v.t.UnixNano(), 10)
	case kindString:
		return "s:" + v.s
	default:
		return ""
	}
}
