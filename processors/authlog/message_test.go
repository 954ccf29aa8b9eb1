package authlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageBody(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"Invalid user test from 203.0.113.5",
		messageBody("server sshd[1234]: Invalid user test from 203.0.113.5"))

	// No separator degrades to the whole remainder.
	assert.Equal(t,
		"server kernel message without tag",
		messageBody("server kernel message without tag"))

	// Only the first ": " is the boundary.
	assert.Equal(t,
		"pam_unix(sshd:auth): authentication failure; rhost=203.0.113.5 user=admin",
		messageBody("server sshd[1234]: pam_unix(sshd:auth): authentication failure; rhost=203.0.113.5 user=admin"))
}

func TestUnwrapRepeated(t *testing.T) {
	t.Parallel()

	count, inner := unwrapRepeated(
		"message repeated 5 times: [Failed password for invalid user admin from 10.0.0.9]")
	assert.Equal(t, 5, count)
	assert.Equal(t, "Failed password for invalid user admin from 10.0.0.9", inner)

	count, inner = unwrapRepeated("Failed password for root from 10.0.0.9 port 22 ssh2")
	assert.Equal(t, 1, count)
	assert.Equal(t, "Failed password for root from 10.0.0.9 port 22 ssh2", inner)

	// The syslog variant with a leading "last" qualifier still matches.
	count, inner = unwrapRepeated(
		"last message repeated 2 times: [Invalid user oracle from 198.51.100.7]")
	assert.Equal(t, 2, count)
	assert.Equal(t, "Invalid user oracle from 198.51.100.7", inner)
}
