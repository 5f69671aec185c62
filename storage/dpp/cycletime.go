package dpp

import "fmt"

// cycleBase selects the time unit encoded in the top two bits of a
// MinCycleTime/MasterCycleTime octet, per spec.md §4.10.
type cycleBase byte

const (
	base01ms cycleBase = 0b00 // 0.1ms units, multiplier 4..63
	base04ms cycleBase = 0b01 // 0.4ms units, multiplier 0..63
	base16ms cycleBase = 0b10 // 1.6ms units, multiplier 0..63
)

// unitMs returns the per-multiplier step size, in milliseconds, for b.
func (b cycleBase) unitMs() float64 {
	switch b {
	case base01ms:
		return 0.1
	case base04ms:
		return 0.4
	case base16ms:
		return 1.6
	default:
		return 0
	}
}

// offsetMs returns the fixed offset added before the multiplier term, per
// the additive encoding in spec.md §4.10 (bases 0b01/0b10 don't start at
// zero: multiplier 0 on base04ms is 6.4ms, not 0ms).
func (b cycleBase) offsetMs() float64 {
	switch b {
	case base04ms:
		return 6.4
	case base16ms:
		return 32.0
	default:
		return 0
	}
}

// EncodeCycleTime packs ms into the 8-bit MinCycleTime/MasterCycleTime wire
// representation, rounding ms to the nearest multiplier of the
// finest-grained base whose multiplier range holds it, per the table in
// spec.md §4.10. Values
// outside all three ranges are a configuration error (fail-fast at init,
// spec.md §6.3).
func EncodeCycleTime(ms float64) (byte, error) {
	type candidate struct {
		base   cycleBase
		minMul int
		maxMul int
	}
	candidates := []candidate{
		{base01ms, 4, 63},
		{base04ms, 0, 63},
		{base16ms, 0, 63},
	}
	for _, c := range candidates {
		unit := c.base.unitMs()
		offset := c.base.offsetMs()
		mul := (ms - offset) / unit
		rounded := int(mul + 0.5)
		if rounded < c.minMul || rounded > c.maxMul {
			continue
		}
		// Accept the rounded multiplier when it lies within half a unit of
		// ms; bases are tried finest first, so the finest base that fits
		// wins.
		if diffMs(offset+float64(rounded)*unit, ms) > unit/2 {
			continue
		}
		return byte(c.base)<<6 | byte(rounded), nil
	}
	return 0, fmt.Errorf("config: min_cycle_time_ms %.3f outside valid ranges [0.4,6.3]/[6.4,31.6]/[32.0,132.8]", ms)
}

func diffMs(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// DecodeCycleTime unpacks the wire representation of a cycle-time octet
// back into milliseconds.
func DecodeCycleTime(raw byte) float64 {
	base := cycleBase(raw >> 6)
	mul := raw & 0b0011_1111
	return base.offsetMs() + float64(mul)*base.unitMs()
}
