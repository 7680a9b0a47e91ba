// Package epoch converts between wall-clock time and the native timestamp
// encodings used by Apple Core Data stores (Safari, iMessage, WhatsApp) and
// Chrome history databases.
package epoch

import (
	"math"
	"time"
)

// AppleOffset is the number of seconds from 1970-01-01 to 2001-01-01, the
// reference instant for Core Data timestamps.
const AppleOffset = 978307200

// ChromeOffset is the number of seconds from 1601-01-01 to 1970-01-01.
// Chrome stores visit times as microseconds since 1601.
const ChromeOffset = 11644473600

// Unit is the resolution a store records Apple-epoch timestamps in. Newer
// macOS versions switched iMessage from seconds to nanoseconds; the unit is
// detected at runtime, never assumed.
type Unit int

const (
	Seconds Unit = iota
	Nanoseconds
)

// nanosecondThreshold: any plausible seconds-since-2001 value is far below
// 1e12, and any nanosecond value far above it.
const nanosecondThreshold = 1e12

// DetectUnit classifies a store's timestamp resolution from the maximum
// absolute timestamp value present in its main table.
func DetectUnit(maxAbs float64) Unit {
	if maxAbs > nanosecondThreshold {
		return Nanoseconds
	}
	return Seconds
}

// AppleToTime converts an Apple-epoch timestamp in the given unit to local
// time. Zero timestamps convert to the zero time so callers can skip the row.
func AppleToTime(ts float64, u Unit) time.Time {
	if ts == 0 || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return time.Time{}
	}
	if u == Nanoseconds {
		ts /= 1e9
	}
	unix := ts + AppleOffset
	sec, frac := math.Modf(unix)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// TimeToApple converts wall-clock time to an Apple-epoch timestamp in the
// given unit, for use as a query bound.
func TimeToApple(t time.Time, u Unit) int64 {
	apple := t.Unix() - AppleOffset
	if u == Nanoseconds {
		return apple * 1e9
	}
	return apple
}

// ChromeToTime converts a Chrome visit_time (microseconds since 1601) to
// local time. Zero converts to the zero time.
func ChromeToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.UnixMicro(ts - ChromeOffset*1e6)
}

// TimeToChrome converts wall-clock time to a Chrome visit_time.
func TimeToChrome(t time.Time) int64 {
	return t.UnixMicro() + ChromeOffset*1e6
}
