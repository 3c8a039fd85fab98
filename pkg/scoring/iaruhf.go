package scoring

import (
	"strconv"
	"strings"

	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/station"
)

// IaruHfID is the algorithm id of IaruHf.
const IaruHfID = "IARU-HF"

// IaruHf implements the IARU HF Championship: report plus ITU zone, ITU zones
// and HQ stations as multipliers per band.
type IaruHf struct {
	exchange
}

func NewIaruHf() *IaruHf {
	return &IaruHf{exchange{
		receive: []string{logbook.FieldRSTRcvd, logbook.FieldITUZ},
		send:    []string{logbook.FieldRSTSent, logbook.FieldMyITUZone},
	}}
}

func (*IaruHf) ID() string { return IaruHfID }

func (*IaruHf) UsesSerialNumber() bool { return false }

// ScoreQSO awards points by the first matching rule: own zone 1, HQ or
// official station (non-numeric zone) 1, own continent 3, elsewhere 5.
func (*IaruHf) ScoreQSO(rec logbook.Record, home station.Profile, mults MultiplierView) Result {
	zone, numeric := normalizeZone(rec.Item(logbook.FieldITUZ))
	homeZone, _ := normalizeZone(home.ITUZone)

	r := newMultiplier(zone+" "+bandKey(rec), mults)
	switch {
	case zone == homeZone:
		r.QSOPoints = 1
	case !numeric:
		r.QSOPoints = 1
	case strings.EqualFold(strings.TrimSpace(rec.Item(logbook.FieldCont)), strings.TrimSpace(home.Continent)):
		r.QSOPoints = 3
	default:
		r.QSOPoints = 5
	}
	return r
}

// normalizeZone strips leading zeros from numeric zones so "08" and "8"
// compare equal. HQ designators are upper-cased.
func normalizeZone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return strings.ToUpper(s), false
	}
	return strconv.Itoa(n), true
}
