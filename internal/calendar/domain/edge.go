package calendar

import "fmt"

// Edge selects which end of a booking a reschedule moves.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
	// EdgeBoth moves start and end to the same target day.
	EdgeBoth Edge = "same"
)

// ParseEdge validates an edge selector. "both" is accepted as an alias of "same".
func ParseEdge(value string) (Edge, error) {
	switch value {
	case string(EdgeStart):
		return EdgeStart, nil
	case string(EdgeEnd):
		return EdgeEnd, nil
	case string(EdgeBoth), "both":
		return EdgeBoth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEdge, value)
	}
}

// IsValid reports whether e is one of the known selectors.
func (e Edge) IsValid() bool {
	switch e {
	case EdgeStart, EdgeEnd, EdgeBoth:
		return true
	default:
		return false
	}
}

// String returns the raw selector.
func (e Edge) String() string { return string(e) }
