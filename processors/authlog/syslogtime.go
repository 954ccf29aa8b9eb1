package authlog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the canonical form of Record.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	// ErrUnknownMonth indicates a month abbreviation outside the
	// twelve syslog month names.
	ErrUnknownMonth = errors.New("unknown month abbreviation")

	// ErrInvalidTimestamp indicates prefix parts that do not compose
	// into a real calendar date and time.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

var months = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// prefixRE matches the fixed syslog line prefix: a three-letter month
// abbreviation (case-sensitive), a one or two digit day that may be
// space-padded to two columns, and a HH:MM:SS time. Syslog does not
// include a year or a timezone in this prefix.
//
// Example:
//
//	Apr  3 15:48:03 localhost sshd[3894]: Invalid user oracle from 203.0.113.5
var prefixRE = regexp.MustCompile(
	`^(?P<Month>Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+` +
		`(?P<Day>[ 0-9]{1,2})\s+` +
		`(?P<Time>[0-9]{2}:[0-9]{2}:[0-9]{2})\s+` +
		`(?P<Rest>.*)$`)

// SyslogPrefix holds the pieces of a matched syslog line prefix.
type SyslogPrefix struct {
	Month string
	Day   string
	Time  string
	// Rest is everything after the timestamp, typically
	// "host process[pid]: message".
	Rest string
}

// SplitPrefix separates the syslog timestamp prefix from the remainder
// of line. The second return value is false when the line carries no
// recognizable prefix; such lines are not errors, they are simply not
// syslog content and callers should skip them.
func SplitPrefix(line string) (SyslogPrefix, bool) {
	matches := prefixRE.FindStringSubmatch(line)
	if matches == nil {
		return SyslogPrefix{}, false
	}

	return SyslogPrefix{
		Month: matches[prefixRE.SubexpIndex("Month")],
		Day:   matches[prefixRE.SubexpIndex("Day")],
		Time:  matches[prefixRE.SubexpIndex("Time")],
		Rest:  matches[prefixRE.SubexpIndex("Rest")],
	}, true
}

// ResolveTimestamp composes the month/day/time triple of a syslog prefix
// with a caller-supplied fallback year into the canonical
// "YYYY-MM-DD HH:MM:SS" form. Calendar validation is strict: "Feb 30"
// fails with ErrInvalidTimestamp.
//
// Syslog lines carry no year, so one fallback year applies to a whole
// file. Files that span a December to January boundary will be mis-dated
// past the rollover unless the caller splits them per segment.
func ResolveTimestamp(monthAbbr, dayStr, timeStr string, year int) (string, error) {
	month, ok := months[monthAbbr]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMonth, monthAbbr)
	}

	day, err := strconv.Atoi(strings.TrimSpace(dayStr))
	if err != nil {
		return "", fmt.Errorf("%w: bad day %q", ErrInvalidTimestamp, dayStr)
	}

	composed := fmt.Sprintf("%04d-%02d-%02d %s", year, int(month), day, timeStr)

	t, err := time.Parse(TimestampLayout, composed)
	if err != nil {
		return "", fmt.Errorf("%w: %q does not parse - %v", ErrInvalidTimestamp, composed, err)
	}

	return t.Format(TimestampLayout), nil
}
