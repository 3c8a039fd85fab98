// Package scoring implements the pluggable contest scoring algorithms: how a
// contest's exchange is parsed and generated and how each QSO scores.
package scoring

import (
	"fmt"
	"sort"

	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/station"
)

// Algorithm is one contest scoring scheme. Implementations are immutable and
// shared by every session.
type Algorithm interface {
	// ID is the name contest definitions refer to the algorithm by.
	ID() string

	// ReceiveFields lists, in exchange order, the ADIF fields received from
	// the other station.
	ReceiveFields() []string

	// SendFields lists, in exchange order, the ADIF fields sent to the other
	// station.
	SendFields() []string

	// ParseExchange assigns the whitespace separated tokens of text to the
	// receive fields of rec.
	ParseExchange(rec logbook.Record, text string) error

	// GenerateExchange fills the station's own fields in rec and returns the
	// exchange to send.
	GenerateExchange(rec logbook.Record, home station.Profile) string

	// ScoreQSO returns what rec would add to the score given the multipliers
	// already worked. It must not modify mults.
	ScoreQSO(rec logbook.Record, home station.Profile, mults MultiplierView) Result

	UsesSerialNumber() bool
}

// Result is the increment a single QSO contributes. MultiplierKey is the key
// the caller records in its MultiplierSet when Multiplier is non-zero.
type Result struct {
	QSOPoints     int
	Multiplier    int
	MultiplierKey string
}

// MultiplierView is read-only access to the multipliers already worked.
type MultiplierView interface {
	Has(key string) bool
	Len() int
}

// MultiplierSet holds the multiplier keys worked so far.
type MultiplierSet map[string]struct{}

func (m MultiplierSet) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m MultiplierSet) Add(key string) {
	m[key] = struct{}{}
}

func (m MultiplierSet) Len() int {
	return len(m)
}

// Keys returns the worked keys sorted.
func (m MultiplierSet) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// newMultiplier scores a multiplier key: 1 the first time it is seen.
func newMultiplier(key string, mults MultiplierView) Result {
	r := Result{MultiplierKey: key}
	if !mults.Has(key) {
		r.Multiplier = 1
	}
	return r
}

// ParseError reports an exchange with fewer tokens than receive fields.
type ParseError struct {
	Text   string
	Fields []string
	Tokens int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("exchange %q has %d of %d fields (%v)", e.Text, e.Tokens, len(e.Fields), e.Fields)
}
