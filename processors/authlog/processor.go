package authlog

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/logtally/authtab/internal/metrics"
)

// Drop reasons reported to metrics when a line yields no record.
const (
	dropNoPrefix     = "no_prefix"
	dropBadTimestamp = "bad_timestamp"
	dropNoMatch      = "no_match"
)

// Processor turns raw auth-log lines into Records. It is stateless
// across lines; the only inputs to a line's derivation are the line
// text and the fallback year supplied at construction.
type Processor struct {
	year    int
	logger  *zap.SugaredLogger
	metrics *metrics.Provider
}

// NewProcessor returns a Processor using year to date records. A year
// of zero means the current wall-clock year. logger may be nil, in
// which case diagnostics are discarded. m may be nil to disable
// counters.
func NewProcessor(year int, logger *zap.SugaredLogger, m *metrics.Provider) *Processor {
	if year == 0 {
		year = time.Now().Year()
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Processor{
		year:    year,
		logger:  logger,
		metrics: m,
	}
}

// Year returns the fallback year applied to every parsed line.
func (p *Processor) Year() int {
	return p.year
}

// ParseLine parses one log line into at most one Record. The second
// return value is false for lines that are inapplicable at any stage:
// no syslog prefix, an unresolvable timestamp, or a message matching
// no classification rule. Inapplicable lines are not errors.
func (p *Processor) ParseLine(line string) (Record, bool) {
	raw := strings.TrimRight(line, "\r\n")

	prefix, ok := SplitPrefix(raw)
	if !ok {
		p.drop(dropNoPrefix, raw, nil)
		return Record{}, false
	}

	timestamp, err := ResolveTimestamp(prefix.Month, prefix.Day, prefix.Time, p.year)
	if err != nil {
		p.drop(dropBadTimestamp, raw, err)
		return Record{}, false
	}

	repetitions, inner := unwrapRepeated(messageBody(prefix.Rest))

	classified, ok := classify(inner)
	if !ok {
		p.drop(dropNoMatch, raw, nil)
		return Record{}, false
	}

	if p.metrics != nil {
		p.metrics.IncRecords(string(classified.EventType))
	}

	return Record{
		Timestamp:   timestamp,
		IPAddress:   classified.IPAddress,
		Username:    classified.Username,
		EventType:   classified.EventType,
		Repetitions: repetitions,
		RawMessage:  raw,
	}, true
}

func (p *Processor) drop(reason, line string, err error) {
	if p.metrics != nil {
		p.metrics.IncDropped(reason)
	}

	if err != nil {
		p.logger.Debugw("line dropped", "reason", reason, "error", err, "line", preview(line))
		return
	}

	p.logger.Debugw("line dropped", "reason", reason, "line", preview(line))
}

// preview truncates long lines for debug logging.
func preview(line string) string {
	const max = 200
	if len(line) > max {
		return line[:max]
	}
	return line
}
