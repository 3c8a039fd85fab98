package scoring

import (
	"strings"

	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/station"
)

// exchange implements the field handling shared by all algorithms.
type exchange struct {
	receive []string
	send    []string
}

func (e exchange) ReceiveFields() []string {
	return append([]string(nil), e.receive...)
}

func (e exchange) SendFields() []string {
	return append([]string(nil), e.send...)
}

// ParseExchange writes nothing unless every receive field has a token.
// Surplus tokens are ignored.
func (e exchange) ParseExchange(rec logbook.Record, text string) error {
	tokens := strings.Fields(text)
	if len(tokens) < len(e.receive) {
		return &ParseError{Text: text, Fields: e.ReceiveFields(), Tokens: len(tokens)}
	}
	for i, field := range e.receive {
		rec.SetItem(field, tokens[i])
	}
	return nil
}

func (e exchange) GenerateExchange(rec logbook.Record, home station.Profile) string {
	if rec.Item(logbook.FieldRSTSent) == "" {
		rec.SetItem(logbook.FieldRSTSent, DefaultReport(rec.Item(logbook.FieldMode)))
	}
	rec.SetItem(logbook.FieldMyDXCC, home.DXCC)
	rec.SetItem(logbook.FieldMyITUZone, home.ITUZone)
	rec.SetItem(logbook.FieldMyContinent, home.Continent)

	values := make([]string, 0, len(e.send))
	for _, field := range e.send {
		values = append(values, rec.Item(field))
	}
	return strings.Join(values, " ")
}
