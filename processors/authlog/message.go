package authlog

import (
	"regexp"
	"strconv"
	"strings"
)

// repeatedRE matches syslog's de-duplication wrapper, which collapses
// consecutive identical lines into a single physical line:
//
//	last message repeated 5 times: [Failed password for root from 10.0.0.9 port 22 ssh2]
var repeatedRE = regexp.MustCompile(`message repeated (?P<Count>\d+) times: \[(?P<Inner>.+)\]`)

// messageBody strips the "host process[pid]" segment from the
// prefix-stripped remainder of a line, returning the human-readable
// message after the first ": " separator. When no separator is present
// the remainder is returned unchanged. This is a heuristic boundary,
// not a full syslog header parser.
func messageBody(rest string) string {
	if idx := strings.Index(rest, ": "); idx != -1 {
		return rest[idx+2:]
	}
	return rest
}

// unwrapRepeated detects the repetition wrapper and returns the inner
// message with its repetition count. Messages without the wrapper come
// back unchanged with a count of 1. A count that fails to parse also
// falls back to 1 rather than failing the line.
func unwrapRepeated(message string) (int, string) {
	matches := repeatedRE.FindStringSubmatch(message)
	if matches == nil {
		return 1, message
	}

	count, err := strconv.Atoi(matches[repeatedRE.SubexpIndex("Count")])
	if err != nil || count < 1 {
		count = 1
	}

	return count, matches[repeatedRE.SubexpIndex("Inner")]
}
