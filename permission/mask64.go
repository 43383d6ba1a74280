package permission

import "math/bits"

// Mask64 is a 64-bit permission bitmask indexed by Registry bit positions.
type Mask64 uint64

// Has reports whether bit is set. Bits outside 0..63 are never set.
func (m Mask64) Has(bit int) bool {
	if bit < 0 || bit >= 64 {
		return false
	}
	return m&(1<<bit) != 0
}

// Set turns bit on. Bits outside 0..63 are ignored.
func (m *Mask64) Set(bit int) {
	if bit < 0 || bit >= 64 {
		return
	}
	*m |= 1 << bit
}

// Contains reports whether every bit of other is set in m.
func (m Mask64) Contains(other Mask64) bool {
	return m&other == other
}

// Count returns the number of set bits.
func (m Mask64) Count() int {
	return bits.OnesCount64(uint64(m))
}
