// Package fixture provides the fixture model, registry, per-type channel
// drivers, and the fixture-facing control service.
package fixture

// Type identifies how a fixture maps intensity and color onto channels.
type Type string

const (
	TypeDimmable   Type = "DIMMABLE"
	TypeRGB        Type = "RGB"
	TypeRGBW       Type = "RGBW"
	TypeMovingHead Type = "MOVING_HEAD"
	TypeCustom     Type = "CUSTOM"
)

// Fixture represents one physical or logical lighting device occupying a
// contiguous channel range within a single universe.
type Fixture struct {
	// ID is the process-unique virtual fixture ID (positive).
	ID int `json:"id"`
	// Name is an optional operator-facing label.
	Name string `json:"name"`
	Type Type   `json:"type"`
	// Universe the fixture is patched into.
	Universe int `json:"universe"`
	// StartChannel is 1-based (1..512).
	StartChannel int `json:"startChannel"`
	// ChannelCount is the width of the fixture's channel range. Zero means
	// "derive from the type" at registration time.
	ChannelCount int `json:"channelCount"`
	// CustomOffsets holds 1-based channel offsets (relative to StartChannel)
	// used by Custom fixtures for color mapping: index 0=R, 1=G, 2=B.
	CustomOffsets []int `json:"customOffsets,omitempty"`
	// RDMUID is the stable RDM hardware identity, when known.
	RDMUID string `json:"rdmUid,omitempty"`
	// RDMCapable marks fixtures that answer RDM on the wire.
	RDMCapable bool `json:"rdmCapable"`
}

// DefaultChannelCount returns the channel width implied by a fixture type.
func DefaultChannelCount(t Type, customOffsets []int) int {
	switch t {
	case TypeDimmable:
		return 1
	case TypeRGB:
		return 3
	case TypeRGBW:
		return 4
	case TypeMovingHead:
		return 8
	case TypeCustom:
		if len(customOffsets) > 1 {
			return len(customOffsets)
		}
		return 1
	default:
		return 1
	}
}

// EndChannel returns the last channel (1-based, inclusive) the fixture
// occupies.
func (f *Fixture) EndChannel() int {
	return f.StartChannel + f.ChannelCount - 1
}

// overlaps reports whether two fixtures in the same universe share channels.
func (f *Fixture) overlaps(other *Fixture) bool {
	if f.Universe != other.Universe {
		return false
	}
	return f.StartChannel <= other.EndChannel() && other.StartChannel <= f.EndChannel()
}

// ChangedEvent is published on every successful control operation.
type ChangedEvent struct {
	FixtureID int     `json:"fixtureId"`
	Universe  int     `json:"universe"`
	Kind      string  `json:"kind"` // "intensity", "color", "channel", "fade", "allOff"
	Intensity float64 `json:"intensity,omitempty"`
}
