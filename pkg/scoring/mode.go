package scoring

import "strings"

// ModeClass groups ADIF modes by the signal report format they use.
type ModeClass int

const (
	ModeCW ModeClass = iota
	ModeData
	ModePhone
)

var phoneModes = map[string]bool{
	"SSB":          true,
	"USB":          true,
	"LSB":          true,
	"AM":           true,
	"FM":           true,
	"DIGITALVOICE": true,
	"DSTAR":        true,
	"C4FM":         true,
	"DMR":          true,
	"FREEDV":       true,
}

// ClassifyMode maps an ADIF mode or submode to its class. Anything that is
// neither CW nor a voice mode is treated as data.
func ClassifyMode(mode string) ModeClass {
	m := strings.ToUpper(strings.TrimSpace(mode))
	switch {
	case m == "CW":
		return ModeCW
	case phoneModes[m]:
		return ModePhone
	default:
		return ModeData
	}
}

// DefaultReport is the customary contest signal report for mode: 599 for CW
// and data, 59 for phone.
func DefaultReport(mode string) string {
	if ClassifyMode(mode) == ModePhone {
		return "59"
	}
	return "599"
}
