// Package authlog turns syslog-style SSH authentication log lines into
// structured security event records.
package authlog

// EventType identifies the authentication failure signature that matched
// a log message.
type EventType string

const (
	// EventFailedLogin is a failed password attempt for a known user.
	EventFailedLogin EventType = "FAILED_LOGIN"
	// EventFailedLoginInvalidUser is a failed password attempt for a
	// user that does not exist on the host.
	EventFailedLoginInvalidUser EventType = "FAILED_LOGIN_INVALID_USER"
	// EventInvalidUser is a connection attempt naming a nonexistent user.
	EventInvalidUser EventType = "INVALID_USER"
	// EventPAMAuthFailure is a PAM "authentication failure" message.
	EventPAMAuthFailure EventType = "PAM_AUTH_FAILURE"
)

// Record is one row of the security event table.
//
// IPAddress is a dotted-quad string for the password and invalid-user
// events. For PAM events it is whatever token occupied the rhost= slot,
// which may be a hostname rather than an address. Consumers must not
// assume it parses as an IP literal.
type Record struct {
	// Timestamp is the resolved event time, "YYYY-MM-DD HH:MM:SS".
	Timestamp string
	IPAddress string
	Username  string
	EventType EventType
	// Repetitions is at least 1. Values greater than 1 come from
	// syslog's "message repeated N times" wrapper on a single line.
	Repetitions int
	// RawMessage is the verbatim input line with the trailing
	// newline stripped, regardless of any unwrapping performed
	// during classification.
	RawMessage string
}
