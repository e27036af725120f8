// Package zonemap holds the site evacuation plan: for every hazard
// zone and wind direction, the ordered set of guidance lamps that
// lights the escape route. The table is surveyed per site and ships
// compiled in; it is data, not configuration.
package zonemap

import (
	"strings"

	"github.com/tsimlabs/egs/internal/core/domain"
)

// Lamp ids are flat 1-126: ids 1-9 sit on device A (pole 1), 10-18 on
// device B (pole 2), up to 118-126 on device N (pole 14). Sequences
// preserve the surveyed walking order of the route, which is not
// always sorted.
var plans = map[string]map[domain.WindDirection][]int{
	"a": {
		domain.WindNS: {6, 105},
		domain.WindSN: {4, 13, 22, 31, 42, 52, 70, 79, 97},
		domain.WindEW: {6, 105},
		domain.WindWE: {4, 13, 22, 31, 42, 52, 70, 79, 97},
	},
	// Zone B pairs E-W with the S-N route and W-E with the N-S route;
	// the plume model for this zone crosses the road axis.
	"b": {
		domain.WindNS: {6, 104},
		domain.WindSN: {4, 15},
		domain.WindEW: {4, 15},
		domain.WindWE: {6, 104},
	},
	"c": {
		domain.WindNS: {4, 15},
		domain.WindSN: {4, 13, 22, 31, 42, 54, 58},
		domain.WindEW: {4, 13, 22, 31, 42, 54, 60},
		domain.WindWE: {4, 15},
	},
	"d": {
		domain.WindNS: {6, 103},
		domain.WindSN: {4, 13, 22, 31, 42, 52, 70, 81, 86},
		domain.WindEW: {6, 103},
		domain.WindWE: {4, 13, 22, 31, 42, 52, 70, 81, 86},
	},
	"e": {
		domain.WindNS: {5},
		domain.WindSN: {4, 14},
		domain.WindEW: {4, 14},
		domain.WindWE: {5},
	},
	"f": {
		domain.WindNS: {6, 92, 103},
		domain.WindSN: {4, 13, 22, 31, 42, 52, 70, 81, 83},
		domain.WindEW: {6, 92, 103},
		domain.WindWE: {4, 13, 22, 31, 42, 52, 70, 81, 86},
	},
	"g": {
		domain.WindNS: {6, 88, 92, 103},
		domain.WindSN: {4, 22, 13, 31, 42, 52, 72},
		domain.WindEW: {4, 22, 13, 31, 42, 52, 72},
		domain.WindWE: {6, 88, 92, 103},
	},
	"h": {
		domain.WindNS: {4, 13, 22, 32},
		domain.WindSN: {4, 13, 22, 32},
		domain.WindEW: {4, 13, 23, 114},
		domain.WindWE: {4, 13, 22, 32},
	},
	"k": {
		domain.WindNS: {4, 13, 23, 113},
		domain.WindSN: {4, 13, 23, 114, 119},
		domain.WindEW: {4, 13, 22, 31, 41, 126},
		domain.WindWE: {4, 13, 23, 112},
	},
}

// Normalize canonicalizes a zone name: "Zone A", "zone a" and "A" all
// map to "a".
func Normalize(zone string) string {
	z := strings.ToLower(strings.TrimSpace(zone))
	z = strings.TrimSpace(strings.TrimPrefix(z, "zone"))
	return z
}

// DisplayName returns the operator-facing form of a zone name.
func DisplayName(zone string) string {
	return "Zone " + strings.ToUpper(Normalize(zone))
}

// Lamps returns the planned lamp sequence for a zone and wind
// direction, or false if the plan does not cover the pair. The
// returned slice is a copy.
func Lamps(zone string, wind domain.WindDirection) ([]int, bool) {
	byWind, ok := plans[Normalize(zone)]
	if !ok {
		return nil, false
	}
	seq, ok := byWind[wind]
	if !ok {
		return nil, false
	}
	out := make([]int, len(seq))
	copy(out, seq)
	return out, true
}

// Zones lists the covered zone names in normalized form.
func Zones() []string {
	return []string{"a", "b", "c", "d", "e", "f", "g", "h", "k"}
}
