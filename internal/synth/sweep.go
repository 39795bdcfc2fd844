package synth

import "fmt"

// Direction orients sweeps, static scans and Shepard glides.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	DirBell Direction = "bell" // rise to the top of the band, then return
)

// SweepDirections lists the orientations a scan supports, in UI cycling
// order.
func SweepDirections() []Direction {
	return []Direction{DirUp, DirDown, DirBell}
}

// GlideDirections lists the orientations a Shepard glide supports.
func GlideDirections() []Direction {
	return []Direction{DirUp, DirDown}
}

// ParseDirection maps a config/wire name onto its direction. "fwd" and
// "rev" are legacy names carried by old config files.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "fwd":
		return DirUp, nil
	case "rev":
		return DirDown, nil
	}
	switch Direction(s) {
	case DirUp, DirDown, DirBell:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// SweepPos maps normalized progress u in [0, 1] through a direction
// shape: up is the identity, down mirrors, bell reaches the band top at
// the midpoint and comes back.
func SweepPos(dir Direction, u float64) float64 {
	u = clampFloat(u, 0, 1)
	switch dir {
	case DirDown:
		return 1 - u
	case DirBell:
		if u < 0.5 {
			return 2 * u
		}
		return 2 - 2*u
	default:
		return u
	}
}

// SweepFreq interpolates linearly between startHz and endHz at position
// v in [0, 1].
func SweepFreq(startHz, endHz, v float64) float64 {
	return startHz + (endHz-startHz)*clampFloat(v, 0, 1)
}
