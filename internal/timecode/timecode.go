// Package timecode normalizes user-typed trim times (start offset and
// duration) into the forms the processing backend accepts.
package timecode

import (
	"regexp"
	"strings"
)

var (
	secondsPattern = regexp.MustCompile(`^\d+$`)
	minSecPattern  = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	hourMinSecPat  = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
)

// Normalize converts s into plain integer seconds or HH:MM:SS.
//
// Accepted shapes:
//   - "90"       -> "90" (raw seconds, unchanged)
//   - "1:30"     -> "00:01:30"; "12:05" -> "00:12:05"
//   - "1:02:03"  -> "1:02:03" (unchanged)
//
// Anything else, including the empty string, reports ok=false. Invalid
// input is dropped rather than rejected so a bad trim field never blocks
// a submission.
func Normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", false
	case secondsPattern.MatchString(s):
		return s, true
	case minSecPattern.MatchString(s):
		if len(s) == 4 {
			s = "0" + s
		}
		return "00:" + s, true
	case hourMinSecPat.MatchString(s):
		return s, true
	default:
		return "", false
	}
}

// Ptr is Normalize for optional request fields: nil when the input does
// not normalize.
func Ptr(s string) *string {
	v, ok := Normalize(s)
	if !ok {
		return nil
	}
	return &v
}
