package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WindDirection selects which lamp layout a zone is lit with. The
// guidance arrows point away from the hazard, so the same zone lights
// a different lamp set depending on where the wind pushes the plume.
type WindDirection string

const (
	WindNS WindDirection = "N-S"
	WindSN WindDirection = "S-N"
	WindEW WindDirection = "E-W"
	WindWE WindDirection = "W-E"
)

var ErrInvalidWind = errors.New("wind direction must be one of N-S, S-N, E-W, W-E")

// ParseWind normalizes and validates a wind direction string.
func ParseWind(s string) (WindDirection, error) {
	switch w := WindDirection(strings.ToUpper(strings.TrimSpace(s))); w {
	case WindNS, WindSN, WindEW, WindWE:
		return w, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidWind, s)
	}
}

// ActiveZone is the registry's view of the single zone currently held
// asserted on the field. Lamps preserves the plan order the zone was
// activated with.
type ActiveZone struct {
	Zone         string
	Wind         WindDirection
	Lamps        []int
	LastAssertAt time.Time
}

// FlashLamp returns the lamp id that carries the flash flag for a
// lamp set: the highest id, which marks the assembly point.
func FlashLamp(lamps []int) int {
	max := 0
	for _, id := range lamps {
		if id > max {
			max = id
		}
	}
	return max
}

// SyncState is the activation snapshot shared with every UI client so
// that browsers opened mid-incident render the same picture.
type SyncState struct {
	Activated              bool          `json:"isActivated"`
	ZoneName               string        `json:"zoneName"`
	Wind                   WindDirection `json:"windDirection"`
	ActivatedAt            *time.Time    `json:"activationTime"`
	DeactivationInProgress bool          `json:"deactivationInProgress"`
}
