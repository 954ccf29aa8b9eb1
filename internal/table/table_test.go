package table_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtally/authtab/internal/table"
	"github.com/logtally/authtab/processors/authlog"
)

func sampleRecords() []authlog.Record {
	return []authlog.Record{
		{
			Timestamp:   "2024-01-15 10:23:45",
			IPAddress:   "10.0.0.9",
			Username:    "admin",
			EventType:   authlog.EventFailedLoginInvalidUser,
			Repetitions: 5,
			RawMessage:  "Jan 15 10:23:45 host sshd[88]: message repeated 5 times: [Failed password for invalid user admin from 10.0.0.9]",
		},
		{
			Timestamp:   "2024-01-15 10:24:00",
			IPAddress:   "203.0.113.5",
			Username:    "test",
			EventType:   authlog.EventInvalidUser,
			Repetitions: 1,
			RawMessage:  "Jan 15 10:24:00 server sshd[1234]: Invalid user test from 203.0.113.5",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, table.WriteAll(&buf, want))

	got, err := table.ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRoundTripQuoting(t *testing.T) {
	t.Parallel()

	want := []authlog.Record{
		{
			Timestamp:   "2024-02-29 00:00:00",
			IPAddress:   "198.51.100.7",
			Username:    `we"ird,user`,
			EventType:   authlog.EventFailedLogin,
			Repetitions: 1,
			RawMessage:  "Feb 29 00:00:00 host sshd[1]: Failed password for \"quoted, and delimited\" stand-in",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, table.WriteAll(&buf, want))

	got, err := table.ReadAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEmptyTableIsHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, table.WriteAll(&buf, nil))
	assert.Equal(t, "timestamp,ip_address,username,event_type,repetition_count,raw_message\n", buf.String())

	got, err := table.ReadAll(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAllRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := table.ReadAll(strings.NewReader(""))
	assert.ErrorIs(t, err, table.ErrMissingHeader)

	_, err = table.ReadAll(strings.NewReader("a,b,c,d,e,f\n"))
	assert.ErrorIs(t, err, table.ErrBadHeader)

	_, err = table.ReadAll(strings.NewReader(
		"timestamp,ip_address,username,event_type,repetition_count,raw_message\n" +
			"2024-01-15 10:24:00,203.0.113.5,test,INVALID_USER,notanumber,raw\n"))
	assert.Error(t, err)
}

func TestWriterStreamsWithCRLFTolerance(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, table.WriteAll(&buf, sampleRecords()))

	// Consumers may hand back CRLF line endings; the reader must not care.
	crlf := strings.ReplaceAll(buf.String(), "\n", "\r\n")

	got, err := table.ReadAll(strings.NewReader(crlf))
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}
