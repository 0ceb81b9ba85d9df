package dmx

import (
	"fmt"
	"math"
)

// UniverseSize is the number of channel slots in one DMX universe.
const UniverseSize = 512

// Universe is one frame of DMX channel data. Channels are 1-based in the API,
// matching how addresses are set on fixtures.
type Universe [UniverseSize]byte

// Set writes v to channel ch (1..512).
func (u *Universe) Set(ch int, v byte) error {
	if ch < 1 || ch > UniverseSize {
		return fmt.Errorf("dmx channel %d out of range 1-%d", ch, UniverseSize)
	}
	u[ch-1] = v
	return nil
}

// Get returns the value of channel ch (1..512), or 0 when out of range.
func (u *Universe) Get(ch int) byte {
	if ch < 1 || ch > UniverseSize {
		return 0
	}
	return u[ch-1]
}

// Reset zeroes every channel.
func (u *Universe) Reset() {
	*u = Universe{}
}

// Byte maps a fraction in 0..1 linearly onto 0..255. Values outside the range
// are clamped; NaN maps to 0.
func Byte(fr float64) byte {
	if math.IsNaN(fr) {
		return 0
	}
	fr = math.Min(math.Max(fr, 0), 1)
	return byte(fr * 255)
}

// Word maps a fraction in 0..1 onto a 16-bit coarse/fine channel pair.
func Word(fr float64) (coarse, fine byte) {
	if math.IsNaN(fr) {
		return 0, 0
	}
	fr = math.Min(math.Max(fr, 0), 1)
	w := uint16(fr * 65535)
	return byte(w >> 8), byte(w)
}
