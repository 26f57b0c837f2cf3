// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package v202

// Base hopping rows used by v202 transmitters.
// A transmitter uses one row, selected by its id, with a small id-dependent offset added.
var hopRows = [4][NumHops]byte{
	{0x27, 0x1B, 0x39, 0x28, 0x24, 0x22, 0x2E, 0x36,
		0x19, 0x21, 0x29, 0x14, 0x1E, 0x12, 0x2D, 0x18},
	{0x2E, 0x33, 0x25, 0x38, 0x19, 0x12, 0x18, 0x16,
		0x2A, 0x1C, 0x1F, 0x37, 0x2F, 0x23, 0x34, 0x10},
	{0x11, 0x1A, 0x35, 0x24, 0x28, 0x18, 0x25, 0x2A,
		0x32, 0x2C, 0x14, 0x27, 0x36, 0x34, 0x1C, 0x17},
	{0x22, 0x27, 0x17, 0x39, 0x34, 0x28, 0x2B, 0x1D,
		0x18, 0x2A, 0x21, 0x38, 0x10, 0x26, 0x20, 0x1F},
}

const (
	NumHops   = 16 // entries in a hop table
	NumProbes = 8  // entries in the bind probe table

	probeBase = 0x18 // present in all four rows
)

// HopTable is the sequence of RF channels a bound transmitter cycles through.
type HopTable [NumHops]byte

// ProbeTable is the sequence of RF channels listened on while waiting for a bind frame.
type ProbeTable [NumProbes]byte

// avoid16 skips channels that are a multiple of 16, transmitters do the same.
func avoid16(ch byte) byte {
	if ch&0x0F != 0 {
		return ch
	}
	return ch - 3
}

// DeriveHopTable computes the hop table of a transmitter. The low 2 bits of the byte sum of the
// id select the row, bits 1..4 shifted right by 2 give an increment of 0..7 added to each entry.
func DeriveHopTable(id TxID) HopTable {
	sum := id[0] + id[1] + id[2]
	row := &hopRows[sum&0x03]
	increment := (sum & 0x1E) >> 2
	var t HopTable
	for i := range t {
		t[i] = avoid16(row[i] + increment)
	}
	return t
}

// BindProbeTable returns the channels to probe for bind frames. Channel 0x18 appears in every
// row, so probing 0x18 plus each of the 8 possible increments (in steps of 8) eventually lands
// on a channel the transmitter uses.
func BindProbeTable() ProbeTable {
	var t ProbeTable
	for i := range t {
		t[i] = avoid16(probeBase + byte(i<<3))
	}
	return t
}
