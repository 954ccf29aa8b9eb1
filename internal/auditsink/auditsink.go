// Package auditsink mirrors the security event table into auditevent
// output, one audit event per record.
package auditsink

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/metal-toolbox/auditevent"

	"github.com/logtally/authtab/processors/authlog"
)

const (
	// actionFailedLogin is the audit event type for every record; all
	// four classified event kinds are authentication failures.
	actionFailedLogin = "UserLogin"

	component = "sshd"
)

// Sink writes records as auditevent.AuditEvent values.
type Sink struct {
	eventW *auditevent.EventWriter
}

// New returns a Sink writing through w.
func New(w *auditevent.EventWriter) *Sink {
	return &Sink{eventW: w}
}

// Write converts rec to an audit event and writes it. The source value
// is passed through verbatim; for PAM records it may be a hostname
// rather than an IP literal.
func (s *Sink) Write(rec authlog.Record) error {
	evt := auditevent.NewAuditEvent(
		actionFailedLogin,
		auditevent.EventSource{
			Type:  "IP",
			Value: rec.IPAddress,
		},
		auditevent.OutcomeFailed,
		map[string]string{
			"loggedAs": rec.Username,
		},
		component,
	)

	if ts, err := time.Parse(authlog.TimestampLayout, rec.Timestamp); err == nil {
		evt.LoggedAt = ts
	}

	ed, err := extraData(rec)
	if err != nil {
		return fmt.Errorf("failed to create extra data for event: %w", err)
	}

	evt = evt.WithData(ed)

	if err := s.eventW.Write(evt); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	return nil
}

func extraData(rec authlog.Record) (*json.RawMessage, error) {
	raw, err := json.Marshal(map[string]string{
		"eventType":       string(rec.EventType),
		"repetitionCount": strconv.Itoa(rec.Repetitions),
	})
	rawmsg := json.RawMessage(raw)
	return &rawmsg, err
}
