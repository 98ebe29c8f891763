package merkletree_test

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/storageproofs/zigzag/hasher"
	"github.com/storageproofs/zigzag/merkletree"
)

func leavesOf(n int, h hasher.Hasher) []hasher.Domain {
	out := make([]hasher.Domain, n)
	for i := range out {
		out[i] = h.Hash([]byte{byte(i)})
	}
	return out
}

func TestBuild_GenProof_Verify_RoundTrip(t *testing.T) {
	h := hasher.BLAKE2s{}
	leaves := leavesOf(13, h) // deliberately not a power of two, exercises padding

	tree, err := merkletree.Build(context.Background(), h, leaves)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.NumLeaves() != 13 {
		t.Fatalf("NumLeaves() = %d, want 13", tree.NumLeaves())
	}

	for i := 0; i < 13; i++ {
		proof, err := tree.GenProof(i)
		if err != nil {
			t.Fatalf("GenProof(%d): %v", i, err)
		}
		if !proof.Verify(h, tree.Root()) {
			t.Errorf("proof for leaf %d does not verify against the tree root", i)
		}
		if proof.Leaf != leaves[i] {
			t.Errorf("proof.Leaf = %x, want %x", proof.Leaf, leaves[i])
		}
	}
}

func TestProof_Root_MatchesVerify(t *testing.T) {
	h := hasher.SHA256{}
	leaves := leavesOf(8, h)

	tree, err := merkletree.Build(context.Background(), h, leaves)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	proof, err := tree.GenProof(5)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}
	if got, want := proof.Root(h), tree.Root(); got != want {
		t.Errorf("proof.Root(h) = %x, want %x", got, want)
	}
}

func TestProof_Verify_RejectsTamperedLeaf(t *testing.T) {
	h := hasher.SHA256{}
	leaves := leavesOf(8, h)

	tree, err := merkletree.Build(context.Background(), h, leaves)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	proof, err := tree.GenProof(5)
	if err != nil {
		t.Fatalf("GenProof: %v", err)
	}
	proof.Leaf[0] ^= 0xFF

	if proof.Verify(h, tree.Root()) {
		t.Error("Verify accepted a tampered leaf")
	}
}

func TestBuild_RejectsEmptyLeaves(t *testing.T) {
	if _, err := merkletree.Build(context.Background(), hasher.SHA256{}, nil); err == nil {
		t.Error("Build(nil leaves) = nil error, want rejection")
	}
}

// TestGenProof_RoundTrip_Property is a property test over random leaf counts: every generated proof
// verifies against the tree it came from.
func TestGenProof_RoundTrip_Property(t *testing.T) {
	h := hasher.BLAKE2s{}
	props := gopter.NewProperties(nil)

	props.Property("every leaf's proof verifies against the tree root", prop.ForAll(
		func(n int) bool {
			leaves := leavesOf(n, h)
			tree, err := merkletree.Build(context.Background(), h, leaves)
			if err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				proof, err := tree.GenProof(i)
				if err != nil || !proof.Verify(h, tree.Root()) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
	))

	props.TestingRun(t)
}
