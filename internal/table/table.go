// Package table serializes security event records to and from the
// fixed-schema CSV event table.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/logtally/authtab/processors/authlog"
)

// Header is the fixed column order of the event table.
var Header = []string{
	"timestamp",
	"ip_address",
	"username",
	"event_type",
	"repetition_count",
	"raw_message",
}

var (
	// ErrMissingHeader indicates an empty input with no header row.
	ErrMissingHeader = errors.New("missing header row")

	// ErrBadHeader indicates a header row that does not match Header.
	ErrBadHeader = errors.New("unexpected header row")
)

// Writer streams records as CSV rows, RFC-4180 quoted. The header row
// is written before the first record, or on Flush for an empty table,
// so entirely unparseable input still produces a valid header-only file.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Write appends one record row.
func (t *Writer) Write(rec authlog.Record) error {
	if err := t.writeHeader(); err != nil {
		return err
	}

	return t.cw.Write(row(rec))
}

// Flush writes any buffered rows (and the header, if nothing was
// written yet) and reports the first error encountered by the
// underlying writer. Callers must treat a Flush error as a failed
// write: the output must not be taken as a complete table.
func (t *Writer) Flush() error {
	if err := t.writeHeader(); err != nil {
		return err
	}

	t.cw.Flush()

	return t.cw.Error()
}

func (t *Writer) writeHeader() error {
	if t.wroteHeader {
		return nil
	}

	if err := t.cw.Write(Header); err != nil {
		return err
	}

	t.wroteHeader = true

	return nil
}

func row(rec authlog.Record) []string {
	return []string{
		rec.Timestamp,
		rec.IPAddress,
		rec.Username,
		string(rec.EventType),
		strconv.Itoa(rec.Repetitions),
		rec.RawMessage,
	}
}

// WriteAll serializes recs to w as a complete table in one call.
func WriteAll(w io.Writer, recs []authlog.Record) error {
	tw := NewWriter(w)

	for _, rec := range recs {
		if err := tw.Write(rec); err != nil {
			return err
		}
	}

	return tw.Flush()
}

// ReadAll deserializes a complete table from r, recovering every
// string field byte-for-byte and repetition counts as integers.
func ReadAll(r io.Reader) ([]authlog.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}

	var recs []authlog.Record

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record row: %w", err)
		}

		repetitions, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("bad repetition count %q: %w", fields[4], err)
		}

		recs = append(recs, authlog.Record{
			Timestamp:   fields[0],
			IPAddress:   fields[1],
			Username:    fields[2],
			EventType:   authlog.EventType(fields[3]),
			Repetitions: repetitions,
			RawMessage:  fields[5],
		})
	}
}
