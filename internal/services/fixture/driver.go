package fixture

import (
	"math"

	"github.com/bbernstein/stagelights-go/internal/services/universe"
)

// Driver translates intensity/color commands into channel writes for one
// fixture type. Drivers are stateless: all state lives in the fixture and
// the universe buffer.
type Driver interface {
	// ApplyIntensity writes the fixture's dim level into the buffer.
	ApplyIntensity(f *Fixture, buf *universe.Buffer, intensity float64)
	// ApplyColor writes an RGBW color into the buffer. It returns false
	// for fixture types that have no color channels.
	ApplyColor(f *Fixture, buf *universe.Buffer, r, g, b, w float64) bool
	// IntensityChannel returns the 1-based channel holding the fixture's
	// dim level.
	IntensityChannel(f *Fixture) int
}

// DriverFor selects the driver for a fixture type. The variant set is
// closed; unknown types fall back to the dimmable driver.
func DriverFor(t Type) Driver {
	switch t {
	case TypeRGB:
		return rgbDriver{}
	case TypeRGBW:
		return rgbwDriver{}
	case TypeMovingHead:
		return movingHeadDriver{}
	case TypeCustom:
		return customDriver{}
	case TypeDimmable:
		return dimmableDriver{}
	default:
		return dimmableDriver{}
	}
}

// Quantize converts a normalized 0.0-1.0 level to a DMX byte.
func Quantize(x float64) byte {
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	return byte(math.Round(x * 255))
}

// dimmableDriver drives a single-channel dimmer. Color is a no-op.
type dimmableDriver struct{}

func (dimmableDriver) ApplyIntensity(f *Fixture, buf *universe.Buffer, intensity float64) {
	buf.SetChannel(f.Universe, f.StartChannel, Quantize(intensity))
}

func (dimmableDriver) ApplyColor(*Fixture, *universe.Buffer, float64, float64, float64, float64) bool {
	return false
}

func (dimmableDriver) IntensityChannel(f *Fixture) int { return f.StartChannel }

// rgbDriver drives a 3-channel RGB lamp. The first channel doubles as the
// master dim in this layout.
type rgbDriver struct{}

func (rgbDriver) ApplyIntensity(f *Fixture, buf *universe.Buffer, intensity float64) {
	buf.SetChannel(f.Universe, f.StartChannel, Quantize(intensity))
}

func (rgbDriver) ApplyColor(f *Fixture, buf *universe.Buffer, r, g, b, _ float64) bool {
	buf.SetChannel(f.Universe, f.StartChannel, Quantize(r))
	buf.SetChannel(f.Universe, f.StartChannel+1, Quantize(g))
	buf.SetChannel(f.Universe, f.StartChannel+2, Quantize(b))
	return true
}

func (rgbDriver) IntensityChannel(f *Fixture) int { return f.StartChannel }

// rgbwDriver drives a 4-channel RGBW lamp.
type rgbwDriver struct{}

func (rgbwDriver) ApplyIntensity(f *Fixture, buf *universe.Buffer, intensity float64) {
	buf.SetChannel(f.Universe, f.StartChannel, Quantize(intensity))
}

func (rgbwDriver) ApplyColor(f *Fixture, buf *universe.Buffer, r, g, b, w float64) bool {
	buf.SetChannel(f.Universe, f.StartChannel, Quantize(r))
	buf.SetChannel(f.Universe, f.StartChannel+1, Quantize(g))
	buf.SetChannel(f.Universe, f.StartChannel+2, Quantize(b))
	buf.SetChannel(f.Universe, f.StartChannel+3, Quantize(w))
	return true
}

func (rgbwDriver) IntensityChannel(f *Fixture) int { return f.StartChannel }

// movingHeadDriver assumes a fixed 8-channel layout with the dimmer at
// offset 2 and RGB at offsets 3-5. Heads with other personalities should
// be patched as Custom fixtures with explicit offsets.
type movingHeadDriver struct{}

func (movingHeadDriver) ApplyIntensity(f *Fixture, buf *universe.Buffer, intensity float64) {
	buf.SetChannel(f.Universe, f.StartChannel+2, Quantize(intensity))
}

func (movingHeadDriver) ApplyColor(f *Fixture, buf *universe.Buffer, r, g, b, _ float64) bool {
	buf.SetChannel(f.Universe, f.StartChannel+3, Quantize(r))
	buf.SetChannel(f.Universe, f.StartChannel+4, Quantize(g))
	buf.SetChannel(f.Universe, f.StartChannel+5, Quantize(b))
	return true
}

func (movingHeadDriver) IntensityChannel(f *Fixture) int { return f.StartChannel + 2 }

// customDriver uses the fixture's explicit 1-based offset list for color.
type customDriver struct{}

func (customDriver) ApplyIntensity(f *Fixture, buf *universe.Buffer, intensity float64) {
	buf.SetChannel(f.Universe, f.StartChannel, Quantize(intensity))
}

func (customDriver) ApplyColor(f *Fixture, buf *universe.Buffer, r, g, b, _ float64) bool {
	if len(f.CustomOffsets) < 3 {
		return false
	}
	values := []float64{r, g, b}
	for i, offset := range f.CustomOffsets[:3] {
		// Offsets are 1-based in configuration.
		buf.SetChannel(f.Universe, f.StartChannel+offset-1, Quantize(values[i]))
	}
	return true
}

func (customDriver) IntensityChannel(f *Fixture) int { return f.StartChannel }
