// Package graph implements the depth-robust dependency graph underneath the layered encoding
// pipeline: a deterministic base DRG, a deterministic expansion-parent bipartite map, and the
// zigzag transform that inverts expansion edges between layers while leaving base-DRG edges to
// be regenerated independently from the same seed.
package graph

import "math/bits"

// Graph exposes the per-node parent relations a single encoding layer needs, plus the
// bookkeeping (layer index, inverse-index involution, and the zigzag transform) that ties
// successive layers together.
type Graph interface {
	// Size returns the node count N.
	Size() uint32
	// Degree returns d_base + d_exp.
	Degree() int
	// Layer returns the layer index this graph instance represents.
	Layer() int
	// BaseParents writes the d_base base-DRG parents of x into dst, which must have length
	// equal to the base degree. Every written index is strictly less than x, except for the
	// edge case x == 0 (no ancestors exist; see Graph.BaseParents doc on *graph).
	BaseParents(x uint32, dst []uint32) error
	// ExpansionParents invokes fn with a borrowed slice of the d_exp expansion parents of x.
	// The slice is only valid for the duration of the call.
	ExpansionParents(x uint32, fn func(parents []uint32) error) error
	// InvIndex returns the involution inv_index(x): InvIndex(InvIndex(x)) == x.
	InvIndex(x uint32) uint32
	// Zigzag returns a new graph for layer+1 with expansion edges inverted. It never mutates
	// the receiver.
	Zigzag() Graph
}

// graph is the concrete Graph implementation. Values are immutable once constructed; Zigzag
// always returns a new value, never mutating the receiver, per spec.md's "plain value type"
// design note.
type graph struct {
	seed       [32]byte
	n          uint32
	bitWidth   uint
	degreeBase int
	degreeExp  int
	layer      int
}

// New constructs the layer-0 graph for a given seed, node count, and base/expansion degrees.
// N must be a power of two.
func New(seed [32]byte, n uint32, degreeBase, degreeExp int) (Graph, error) {
	if n == 0 || n&(n-1) != 0 {
		return nil, ErrInvalidInput
	}
	return &graph{
		seed:       seed,
		n:          n,
		bitWidth:   uint(bits.Len32(n - 1)),
		degreeBase: degreeBase,
		degreeExp:  degreeExp,
		layer:      0,
	}, nil
}

func (g *graph) Size() uint32 { return g.n }
func (g *graph) Degree() int  { return g.degreeBase + g.degreeExp }
func (g *graph) Layer() int   { return g.layer }

// InvIndex is bit-reversal of x within [0, N), N a power of two — a fixed involution chosen at
// setup, per spec.md §4.1.
func (g *graph) InvIndex(x uint32) uint32 {
	return bits.Reverse32(x) >> (32 - g.bitWidth)
}

// Zigzag returns a new graph for layer+1. Expansion edges are computed lazily in
// ExpansionParents based on the parity of layer, so no eager transformation happens here — see
// rawExpansionParents and the doc comment on (*graph).ExpansionParents for the derivation.
func (g *graph) Zigzag() Graph {
	return &graph{
		seed:       g.seed,
		n:          g.n,
		bitWidth:   g.bitWidth,
		degreeBase: g.degreeBase,
		degreeExp:  g.degreeExp,
		layer:      g.layer + 1,
	}
}
