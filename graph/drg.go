package graph

import (
	"encoding/binary"
	"math/bits"

	"github.com/storageproofs/zigzag/internal/transcript"
)

// BaseParents writes the degreeBase bucket-sampled DRG parents of x into dst. dst must have
// length equal to Degree()'s base-degree component.
//
// Sampling follows the geometric-bucket construction: pick a level j uniformly from
// {1, …, ⌊log2(x-1)⌋+1}, then a parent uniformly from [x-2^j, x-2^(j-1)), giving
// Pr[parent=u] ≥ 1/((x-u)·log x) as required of a bucket-sampling DRG. Distinct parents are
// produced by rejection-sampling additional (level, offset) draws from a per-attempt-indexed
// transcript branch until degreeBase distinct indices are collected.
//
// Edge case: for x == 0 there are no ancestors, so dst is filled with 0 (a harmless
// self-reference — the encoder treats node 0 as a source and the repeated label contributes no
// real entropy to its own key derivation, but keeps the Graph interface's fixed-width contract).
// The sampler only reaches [0, x-2], so for 0 < x <= degreeBase fewer than degreeBase distinct
// parents exist; the available distinct parents fill the low indices of dst and the last
// distinct parent found is repeated into the remaining slots, rather than padding with a value
// that would violate "parents < x".
func (g *graph) BaseParents(x uint32, dst []uint32) error {
	if len(dst) != g.degreeBase {
		return ErrInvalidInput
	}

	if x == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	seen := make(map[uint32]struct{}, g.degreeBase)
	count := 0
	attempt := 0

	for count < g.degreeBase && uint32(count)+1 < x {
		p := g.drsParent(x, attempt)
		attempt++
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		dst[count] = p
		count++
	}

	for i := count; i < g.degreeBase; i++ {
		if count == 0 {
			dst[i] = 0
		} else {
			dst[i] = dst[count-1]
		}
	}
	return nil
}

// drsParent draws the attempt-th candidate parent of x under the bucket-sampling distribution,
// grounded on the DRSample geometric-bucket derivation in schemes/basic/mhf/mhf.go's
// drsParent: randomness is pulled from a transcript seeded with (seed, x, attempt) rather than
// a shared mutable protocol instance, since base-parent derivation here must be reproducible
// from nothing but (seed, N, degreeBase, x) per spec.md §4.1.
func (g *graph) drsParent(x uint32, attempt int) uint32 {
	t := transcript.New("zigzag.drg.base-parent")
	t.Mix("seed", g.seed[:])
	t.Mix("x", binary.AppendUvarint(nil, uint64(x)))
	t.Mix("attempt", binary.AppendUvarint(nil, uint64(attempt)))

	level := binary.LittleEndian.Uint64(t.Derive("level", nil, 8))
	offset := binary.LittleEndian.Uint64(t.Derive("offset", nil, 8))

	if x < 2 {
		return 0
	}

	maxLevel := max(bits.Len(uint(x-1)), 1)
	j := int(level%uint64(maxLevel)) + 1 // j in [1, maxLevel]

	hi := 1 << j
	lo := 1 << (j - 1)
	rangeSize := max(hi-lo, 1)

	parent := int(x) - hi + int(offset%uint64(rangeSize))
	return uint32(max(parent, 0))
}
