package authlog

import (
	_ "embed"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/auth.log
var sampleAuthLog string

func TestParseLineInvalidUser(t *testing.T) {
	t.Parallel()

	p := NewProcessor(2024, nil, nil)

	rec, ok := p.ParseLine("Jan 15 10:24:00 server sshd[1234]: Invalid user test from 203.0.113.5")
	require.True(t, ok)

	assert.Equal(t, Record{
		Timestamp:   "2024-01-15 10:24:00",
		IPAddress:   "203.0.113.5",
		Username:    "test",
		EventType:   EventInvalidUser,
		Repetitions: 1,
		RawMessage:  "Jan 15 10:24:00 server sshd[1234]: Invalid user test from 203.0.113.5",
	}, rec)
}

func TestParseLinePAMAuthFailure(t *testing.T) {
	t.Parallel()

	p := NewProcessor(2024, nil, nil)

	rec, ok := p.ParseLine(
		"Jan 15 10:25:00 server sshd[1234]: pam_unix(sshd:auth): authentication failure; rhost=203.0.113.5 user=admin")
	require.True(t, ok)

	assert.Equal(t, EventPAMAuthFailure, rec.EventType)
	assert.Equal(t, "admin", rec.Username)
	assert.Equal(t, "203.0.113.5", rec.IPAddress)
	assert.Equal(t, "2024-01-15 10:25:00", rec.Timestamp)
}

func TestParseLineRepeatedWrapper(t *testing.T) {
	t.Parallel()

	p := NewProcessor(2024, nil, nil)

	line := "Jan 15 10:23:45 host sshd[88]: message repeated 5 times: [Failed password for invalid user admin from 10.0.0.9]\n"

	rec, ok := p.ParseLine(line)
	require.True(t, ok)

	assert.Equal(t, "2024-01-15 10:23:45", rec.Timestamp)
	assert.Equal(t, "10.0.0.9", rec.IPAddress)
	assert.Equal(t, "admin", rec.Username)
	assert.Equal(t, EventFailedLoginInvalidUser, rec.EventType)
	assert.Equal(t, 5, rec.Repetitions)
	assert.Equal(t, strings.TrimRight(line, "\n"), rec.RawMessage,
		"raw message must be the verbatim line, not the unwrapped inner message")
}

func TestParseLineDrops(t *testing.T) {
	t.Parallel()

	p := NewProcessor(2024, nil, nil)

	for name, line := range map[string]string{
		"Blank":              "",
		"NoPrefix":           "not a syslog line at all",
		"BadCalendarDate":    "Feb 30 10:00:00 server sshd[9]: Failed password for root from 198.51.100.7 port 22 ssh2",
		"NoClassifierMatch":  "Jan 15 10:27:00 server CRON[771]: (root) CMD (command -v debian-sa1 > /dev/null)",
		"AcceptedNotTracked": "Jan 15 10:28:00 server sshd[2]: Accepted publickey for core from 127.0.0.1 port 666 ssh2",
	} {
		_, ok := p.ParseLine(line)
		assert.False(t, ok, "expected drop for %s", name)
	}
}

func TestParseSampleLog(t *testing.T) {
	t.Parallel()

	p := NewProcessor(2024, nil, nil)

	var recs []Record
	for _, line := range strings.Split(sampleAuthLog, "\n") {
		if rec, ok := p.ParseLine(line); ok {
			recs = append(recs, rec)
		}
	}

	require.Len(t, recs, 4)

	byType := map[EventType]int{}
	for _, rec := range recs {
		byType[rec.EventType]++
	}

	assert.Equal(t, map[EventType]int{
		EventFailedLoginInvalidUser: 1,
		EventInvalidUser:            1,
		EventPAMAuthFailure:         1,
		EventFailedLogin:            1,
	}, byType)

	// File order is preserved.
	assert.Equal(t, "2024-01-15 10:23:45", recs[0].Timestamp)
	assert.Equal(t, 5, recs[0].Repetitions)
	assert.Equal(t, "2024-01-15 10:26:10", recs[3].Timestamp)
}

func TestNewProcessorDefaultsYearToWallClock(t *testing.T) {
	t.Parallel()

	p := NewProcessor(0, nil, nil)
	assert.NotZero(t, p.Year())
}
