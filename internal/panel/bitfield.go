package panel

// Bitfield layout constants fixed by the Keybus status format.
const (
	// ZoneGroups is the number of 8-bit groups in a zone bitfield.
	ZoneGroups = 8

	// ZonesPerGroup is the number of zones packed into each group.
	ZonesPerGroup = 8

	// MaxZones is the highest addressable zone number.
	MaxZones = ZoneGroups * ZonesPerGroup
)

// Bitfield is a fixed-size set of 64 zone slots, grouped as 8 groups of
// 8 bits to match the panel's status format. Zone numbers are 1-based:
// zone = group*8 + bit + 1.
//
// The named accessors preserve the group/bit addressing contract without
// callers touching raw bytes.
type Bitfield [ZoneGroups]uint8

// Get reports whether the bit for the given zone (1..64) is set.
// Out-of-range zones report false.
func (b *Bitfield) Get(zone int) bool {
	if zone < 1 || zone > MaxZones {
		return false
	}
	group, bit := groupBit(zone)
	return b[group]&(1<<bit) != 0
}

// Set sets the bit for the given zone (1..64). Out-of-range zones are ignored.
func (b *Bitfield) Set(zone int) {
	if zone < 1 || zone > MaxZones {
		return
	}
	group, bit := groupBit(zone)
	b[group] |= 1 << bit
}

// Clear clears the bit for the given zone (1..64). Out-of-range zones are ignored.
func (b *Bitfield) Clear(zone int) {
	if zone < 1 || zone > MaxZones {
		return
	}
	group, bit := groupBit(zone)
	b[group] &^= 1 << bit
}

// SetAll sets every zone bit. Used by the reconnect resync to force
// re-publication of the full zone state.
func (b *Bitfield) SetAll() {
	for i := range b {
		b[i] = 0xFF
	}
}

// ClearAll clears every zone bit.
func (b *Bitfield) ClearAll() {
	for i := range b {
		b[i] = 0
	}
}

// Any reports whether any zone bit is set.
func (b *Bitfield) Any() bool {
	for _, g := range b {
		if g != 0 {
			return true
		}
	}
	return false
}

// ZoneNumber converts a (group, bit) pair to the 1-based zone number.
func ZoneNumber(group, bit int) int {
	return group*ZonesPerGroup + bit + 1
}

// groupBit converts a 1-based zone number to its (group, bit) pair.
func groupBit(zone int) (group, bit int) {
	return (zone - 1) / ZonesPerGroup, (zone - 1) % ZonesPerGroup
}
