// Package merkletree implements the array-based binary Merkle tree collaborator specified at
// the interface level in spec.md §6: build(leaves) -> Tree, Tree.root(), Tree.gen_proof(idx),
// Proof.verify(root, leaf, idx).
//
// Grounded on tommytim0515-go-merkletree's level-order []byte node array and odd-length
// padding-by-duplication; this module replaces that repo's bespoke gool worker pool with
// golang.org/x/sync/errgroup for parallel level hashing.
package merkletree

import (
	"context"
	"fmt"
	"math/bits"

	"golang.org/x/sync/errgroup"

	"github.com/storageproofs/zigzag/hasher"
)

// Tree is an array-based binary Merkle tree over hasher.Domain leaves. Leaves are padded to the
// next power of two by duplicating the last leaf, a documented simplification over the
// reference's general-arity handling.
type Tree struct {
	h     hasher.Hasher
	nodes [][]hasher.Domain // nodes[0] is the padded leaf level; nodes[depth] is [root]
	depth int
	n     int // original, unpadded leaf count
}

// Build constructs a Tree over leaves, hashing levels bottom-up. The leaves are used as given
// (they are not hashed first); each level's combination runs in parallel batches via
// errgroup.Group, matching the teacher's "worker pool over independent work units" pattern with
// an ecosystem library instead of a bespoke pool.
func Build(ctx context.Context, h hasher.Hasher, leaves []hasher.Domain) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("merkletree: build requires at least one leaf")
	}

	padded := padToPowerOfTwo(leaves)
	depth := bits.Len(uint(len(padded) - 1))

	t := &Tree{
		h:     h,
		nodes: make([][]hasher.Domain, depth+1),
		depth: depth,
		n:     len(leaves),
	}
	t.nodes[0] = padded

	for level := 0; level < depth; level++ {
		cur := t.nodes[level]
		next := make([]hasher.Domain, len(cur)/2)
		if err := hashLevel(ctx, h, cur, next); err != nil {
			return nil, err
		}
		t.nodes[level+1] = next
	}

	return t, nil
}

func hashLevel(ctx context.Context, h hasher.Hasher, cur, next []hasher.Domain) error {
	g, ctx := errgroup.WithContext(ctx)
	const batchSize = 256

	for start := 0; start < len(next); start += batchSize {
		start := start
		end := min(start+batchSize, len(next))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				next[i] = h.Hash2(cur[2*i], cur[2*i+1])
			}
			return nil
		})
	}
	return g.Wait()
}

func padToPowerOfTwo(leaves []hasher.Domain) []hasher.Domain {
	n := len(leaves)
	if n == 1 {
		// A single leaf is its own root with no combination step; depth 0.
		return leaves
	}
	target := 1 << bits.Len(uint(n-1))
	if target == n {
		out := make([]hasher.Domain, n)
		copy(out, leaves)
		return out
	}
	out := make([]hasher.Domain, target)
	copy(out, leaves)
	last := leaves[n-1]
	for i := n; i < target; i++ {
		out[i] = last
	}
	return out
}

// Root returns the tree's root commitment.
func (t *Tree) Root() hasher.Domain {
	return t.nodes[t.depth][0]
}

// Leaf returns the (unpadded) leaf at index i.
func (t *Tree) Leaf(i int) hasher.Domain {
	return t.nodes[0][i]
}

// NumLeaves returns the number of leaves Build was called with, before power-of-two padding.
func (t *Tree) NumLeaves() int {
	return t.n
}

// Proof is an inclusion proof for one leaf: the leaf value, its index, and the sibling hash at
// each level from the leaves up to the root.
type Proof struct {
	Leaf     hasher.Domain   `cbor:"leaf"`
	Index    int             `cbor:"index"`
	Siblings []hasher.Domain `cbor:"siblings"`
}

// GenProof builds the inclusion proof for leaf index i.
func (t *Tree) GenProof(i int) (Proof, error) {
	if i < 0 || i >= len(t.nodes[0]) {
		return Proof{}, fmt.Errorf("merkletree: index %d out of range [0, %d)", i, len(t.nodes[0]))
	}

	siblings := make([]hasher.Domain, t.depth)
	idx := i
	for level := 0; level < t.depth; level++ {
		if idx%2 == 0 {
			siblings[level] = t.nodes[level][idx+1]
		} else {
			siblings[level] = t.nodes[level][idx-1]
		}
		idx /= 2
	}

	return Proof{Leaf: t.nodes[0][i], Index: i, Siblings: siblings}, nil
}

// Root recombines p's leaf and siblings up to the implied root, without comparing it against
// any asserted root. Verifiers that need to check several proofs agree on one root (rather
// than each independently matching a root they already trust) use this directly.
func (p Proof) Root(h hasher.Hasher) hasher.Domain {
	cur := p.Leaf
	idx := p.Index
	for _, sib := range p.Siblings {
		if idx%2 == 0 {
			cur = h.Hash2(cur, sib)
		} else {
			cur = h.Hash2(sib, cur)
		}
		idx /= 2
	}
	return cur
}

// Verify checks that p proves its Leaf at its Index against root, using h to recombine sibling
// pairs up the tree.
func (p Proof) Verify(h hasher.Hasher, root hasher.Domain) bool {
	return p.Root(h) == root
}
