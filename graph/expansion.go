package graph

import (
	"encoding/binary"

	"github.com/storageproofs/zigzag/internal/transcript"
)

// ExpansionParents invokes fn with the d_exp expansion parents of x.
//
// The raw bipartite map P0 is a pure function of (seed, x) alone — independent of layer — and
// zigzag() composes an inv_index-wrap onto it once per layer transition:
//
//	P_ℓ(x) = P0(x)                               if ℓ is even
//	P_ℓ(x) = { inv_index(p) : p ∈ P0(inv_index(x)) }  if ℓ is odd
//
// This definition is equivalent to the spec's recursive "P(x) ↦ {inv_index(p): p ∈
// P(inv_index(x))}" applied ℓ times starting from P0: since inv_index is an involution, the
// wraps telescope and cancel in pairs, leaving exactly one residual wrap when ℓ is odd and none
// when ℓ is even. That telescoping is also why graph.zigzag().zigzag() reproduces the original
// graph's expansion edges exactly (not just distributionally), satisfying P4.
func (g *graph) ExpansionParents(x uint32, fn func(parents []uint32) error) error {
	if g.layer%2 == 0 {
		return g.rawExpansionParents(x, fn)
	}

	ix := g.InvIndex(x)
	return g.rawExpansionParents(ix, func(parents []uint32) error {
		transformed := make([]uint32, len(parents))
		for i, p := range parents {
			transformed[i] = g.InvIndex(p)
		}
		return fn(transformed)
	})
}

// rawExpansionParents derives the degree-regular bipartite map P0(x): degreeExp distinct
// indices in [0, N), rejection-sampled from a transcript seeded with (seed, x, attempt).
// Unlike base-DRG parents, expansion parents are not required to be strictly less than x (they
// are the edges that make the graph depth-robust across the whole node range).
func (g *graph) rawExpansionParents(x uint32, fn func(parents []uint32) error) error {
	if g.degreeExp == 0 {
		return fn(nil)
	}
	if uint32(g.degreeExp) > g.n {
		return ErrInvalidInput
	}

	parents := make([]uint32, 0, g.degreeExp)
	seen := make(map[uint32]struct{}, g.degreeExp)
	attempt := 0

	for len(parents) < g.degreeExp {
		t := transcript.New("zigzag.graph.expansion-parent")
		t.Mix("seed", g.seed[:])
		t.Mix("x", binary.AppendUvarint(nil, uint64(x)))
		t.Mix("attempt", binary.AppendUvarint(nil, uint64(attempt)))
		attempt++

		raw := binary.LittleEndian.Uint32(t.Derive("index", nil, 4))
		p := raw % g.n
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		parents = append(parents, p)
	}

	return fn(parents)
}
