package loader

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseNumber coerces a cell to a finite float. It trims space, drops a
// leading '+' (as in the simulator's effect columns) and accepts a comma
// decimal separator. Only decimal notation is read, with an optional
// exponent as spreadsheets write large values. Anything else is a missing
// cell.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if strings.IndexFunc(s, notDecimal) >= 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func notDecimal(r rune) bool {
	return !(r >= '0' && r <= '9') && !strings.ContainsRune(".-+eE", r)
}

// timestampLayouts are tried in order. Day-first layouts come before ISO.
var timestampLayouts = []string{
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/06 15:04",
}

// ParseTimestamp combines a date and a time cell, reading the date
// day-first. Both parts are required.
func ParseTimestamp(date, clock string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	value := date + " " + clock
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
