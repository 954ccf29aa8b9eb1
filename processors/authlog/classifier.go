package authlog

import "regexp"

// Classified carries the fields extracted by a classification rule.
type Classified struct {
	EventType EventType
	Username  string
	IPAddress string
}

// rule pairs a matcher with an extractor. Rules are independent and
// stateless; supporting a new authentication failure signature means
// appending a rule, not modifying existing ones.
type rule struct {
	re    *regexp.Regexp
	build func(matches []string) Classified
}

// rules are tried in order and the first match wins. The failed-password
// family must come before the invalid-user family: a "Failed password
// for invalid user" line satisfies both, and it must resolve via the
// former.
var rules = []rule{
	{
		re: failedPasswordRE,
		build: func(matches []string) Classified {
			eventType := EventFailedLogin
			if matches[failedPasswordRE.SubexpIndex(idxInvalid)] != "" {
				eventType = EventFailedLoginInvalidUser
			}

			return Classified{
				EventType: eventType,
				Username:  matches[failedPasswordRE.SubexpIndex(idxUsername)],
				IPAddress: matches[failedPasswordRE.SubexpIndex(idxSource)],
			}
		},
	},
	{
		re: invalidUserRE,
		build: func(matches []string) Classified {
			return Classified{
				EventType: EventInvalidUser,
				Username:  matches[invalidUserRE.SubexpIndex(idxUsername)],
				IPAddress: matches[invalidUserRE.SubexpIndex(idxSource)],
			}
		},
	},
	{
		re: pamAuthFailureRE,
		build: func(matches []string) Classified {
			return Classified{
				EventType: EventPAMAuthFailure,
				Username:  matches[pamAuthFailureRE.SubexpIndex(idxUsername)],
				IPAddress: matches[pamAuthFailureRE.SubexpIndex(idxSource)],
			}
		},
	},
}

// classify maps a message to a typed security event. The second return
// value is false when no rule matches; unmatched messages yield no
// record at all, never an "unknown" event.
func classify(message string) (Classified, bool) {
	for _, r := range rules {
		if matches := r.re.FindStringSubmatch(message); matches != nil {
			return r.build(matches), true
		}
	}

	return Classified{}, false
}
