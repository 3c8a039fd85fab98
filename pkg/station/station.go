// Package station holds the operator's home station reference data.
package station

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncomplete is returned when a profile lacks fields needed for scoring.
var ErrIncomplete = errors.New("incomplete station profile")

// Profile is the operator's home station: DXCC entity id, ITU zone and
// continent code.
type Profile struct {
	Callsign  string
	DXCC      string
	ITUZone   string
	Continent string
}

// Validate reports which of DXCC, ITU zone and continent are missing.
func (p Profile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.DXCC) == "" {
		missing = append(missing, "dxcc")
	}
	if strings.TrimSpace(p.ITUZone) == "" {
		missing = append(missing, "ituz")
	}
	if strings.TrimSpace(p.Continent) == "" {
		missing = append(missing, "cont")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}
