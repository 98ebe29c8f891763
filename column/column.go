// Package column implements the column aggregation and hashing described in spec.md §3/§4.3:
// the odd, even, and full label sets at a fixed node position across all encoding layers.
package column

import "github.com/storageproofs/zigzag/hasher"

// Kind identifies which subset of layers a Column aggregates.
type Kind int

const (
	// Odd columns hold labels from odd layers {1, 3, 5, …} at the column's own position.
	Odd Kind = iota
	// Even columns hold labels from even layers {2, 4, …} at the inverse-indexed position.
	Even
	// Full columns interleave odd and even rows in layer order.
	Full
)

// Column is the vector of labels at a fixed node position across the layers its Kind selects,
// plus enough metadata to recover which layer each row belongs to.
type Column struct {
	Position uint32          `cbor:"position"`
	Kind     Kind            `cbor:"kind"`
	Rows     []hasher.Domain `cbor:"rows"`
}

// NewOdd constructs an odd column at the given position from labels E_1[x], E_3[x], ….
func NewOdd(position uint32, rows []hasher.Domain) Column {
	return Column{Position: position, Kind: Odd, Rows: rows}
}

// NewEven constructs an even column at the given position from labels E_2[inv(x)], E_4[inv(x)], ….
func NewEven(position uint32, rows []hasher.Domain) Column {
	return Column{Position: position, Kind: Even, Rows: rows}
}

// NewFull constructs a full column by interleaving odd and even rows in layer order:
// E_1[x], E_2[inv(x)], E_3[x], E_4[inv(x)], ….
func NewFull(position uint32, odd, even Column) Column {
	rows := make([]hasher.Domain, 0, len(odd.Rows)+len(even.Rows))
	for i := 0; i < len(odd.Rows) || i < len(even.Rows); i++ {
		if i < len(odd.Rows) {
			rows = append(rows, odd.Rows[i])
		}
		if i < len(even.Rows) {
			rows = append(rows, even.Rows[i])
		}
	}
	return Column{Position: position, Kind: Full, Rows: rows}
}

// Hash concatenates the column's rows and applies h.Hash once, giving O_i for an odd column and
// E_i for an even column. It does the same for any Kind, so for a Full column it does not give
// C_i; C_i comes from HashFull, or from Commitment, which de-interleaves a Full column first.
func (c Column) Hash(h hasher.Hasher) hasher.Domain {
	buf := make([]byte, 0, 32*len(c.Rows))
	for _, row := range c.Rows {
		buf = append(buf, row[:]...)
	}
	return h.Hash(buf)
}

// HashFull computes C_i = H2(O_i, E_i) from the already-hashed odd and even columns, matching
// P5's second equality without needing a Full column's interleaved rows.
func HashFull(h hasher.Hasher, oddHash, evenHash hasher.Domain) hasher.Domain {
	return h.Hash2(oddHash, evenHash)
}

// Commitment computes C_i for any Kind: Odd and Even columns hash directly; a Full column
// de-interleaves its rows back into odd/even order (even positions 0,2,4,... are odd-layer
// rows, odd positions 1,3,5,... are even-layer rows, per NewFull's interleaving) and delegates
// to HashFull. This lets a verifier, which only ever receives a column's Rows over the wire,
// recompute C from a Full column without separately transmitting O_i and E_i.
func (c Column) Commitment(h hasher.Hasher) hasher.Domain {
	if c.Kind != Full {
		return c.Hash(h)
	}
	var oddRows, evenRows []hasher.Domain
	for i, row := range c.Rows {
		if i%2 == 0 {
			oddRows = append(oddRows, row)
		} else {
			evenRows = append(evenRows, row)
		}
	}
	odd := Column{Position: c.Position, Kind: Odd, Rows: oddRows}
	even := Column{Position: c.Position, Kind: Even, Rows: evenRows}
	return HashFull(h, odd.Hash(h), even.Hash(h))
}

// LabelAtLayer returns the row corresponding to the given 1-based layer index within this
// column, and whether that layer is represented in this column's Kind. Odd columns hold odd
// layers 1,3,5,…; even columns hold even layers 2,4,…; a Full column holds every layer in order
// (its Rows are already E_1, E_2, E_3, … by construction — see NewFull), so layer indexes
// directly into Rows.
func (c Column) LabelAtLayer(layer int) (hasher.Domain, bool) {
	var idx int
	switch c.Kind {
	case Odd:
		if layer < 1 || layer%2 == 0 {
			return hasher.Domain{}, false
		}
		idx = (layer - 1) / 2
	case Even:
		if layer < 2 || layer%2 != 0 {
			return hasher.Domain{}, false
		}
		idx = layer/2 - 1
	case Full:
		if layer < 1 {
			return hasher.Domain{}, false
		}
		idx = layer - 1
	default:
		return hasher.Domain{}, false
	}
	if idx < 0 || idx >= len(c.Rows) {
		return hasher.Domain{}, false
	}
	return c.Rows[idx], true
}
