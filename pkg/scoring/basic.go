package scoring

import (
	"strings"

	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/station"
)

// BasicID is the algorithm id of Basic.
const BasicID = "Basic"

// Basic is a report plus serial number contest. Each DXCC entity is a
// multiplier once per band and every QSO outside the home entity scores one
// point.
type Basic struct {
	exchange
}

func NewBasic() *Basic {
	return &Basic{exchange{
		receive: []string{logbook.FieldRSTRcvd, logbook.FieldSRX},
		send:    []string{logbook.FieldRSTSent, logbook.FieldSTX},
	}}
}

func (*Basic) ID() string { return BasicID }

func (*Basic) UsesSerialNumber() bool { return true }

func (*Basic) ScoreQSO(rec logbook.Record, home station.Profile, mults MultiplierView) Result {
	dxcc := strings.TrimSpace(rec.Item(logbook.FieldDXCC))
	r := newMultiplier(dxcc+" "+bandKey(rec), mults)
	if dxcc != strings.TrimSpace(home.DXCC) {
		r.QSOPoints = 1
	}
	return r
}

func bandKey(rec logbook.Record) string {
	return strings.ToLower(strings.TrimSpace(rec.Item(logbook.FieldBand)))
}
