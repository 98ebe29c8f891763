package graph_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/storageproofs/zigzag/graph"
)

func newGraph(t *testing.T, n uint32, degreeBase, degreeExp int) graph.Graph {
	t.Helper()
	var seed [32]byte
	seed[0] = 0x42
	g, err := graph.New(seed, n, degreeBase, degreeExp)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

// TestInvIndex_Involution is P4's first half: inv_index(inv_index(x)) == x for all x.
func TestInvIndex_Involution(t *testing.T) {
	props := gopter.NewProperties(nil)

	g := newGraph(t, 256, 2, 2)
	props.Property("inv_index is an involution", prop.ForAll(
		func(x uint32) bool {
			ix := x % 256
			return g.InvIndex(g.InvIndex(ix)) == ix
		},
		gen.UInt32Range(0, 255),
	))

	props.TestingRun(t)
}

// TestZigzagZigzag_Involution is P4's second half: zigzag().zigzag() reproduces the original
// graph's base and expansion parents exactly.
func TestZigzagZigzag_Involution(t *testing.T) {
	const n = 64
	g0 := newGraph(t, n, 3, 4)
	g2 := g0.Zigzag().Zigzag()

	props := gopter.NewProperties(nil)
	props.Property("base parents survive zigzag().zigzag()", prop.ForAll(
		func(x uint32) bool {
			a := make([]uint32, g0.Degree()-4)
			b := make([]uint32, g2.Degree()-4)
			if err := g0.BaseParents(x, a); err != nil {
				return false
			}
			if err := g2.BaseParents(x, b); err != nil {
				return false
			}
			return slicesEqual(a, b)
		},
		gen.UInt32Range(0, n-1),
	))
	props.Property("expansion parents survive zigzag().zigzag()", prop.ForAll(
		func(x uint32) bool {
			var a, b []uint32
			if err := g0.ExpansionParents(x, func(p []uint32) error {
				a = append(a, p...)
				return nil
			}); err != nil {
				return false
			}
			if err := g2.ExpansionParents(x, func(p []uint32) error {
				b = append(b, p...)
				return nil
			}); err != nil {
				return false
			}
			return slicesEqual(a, b)
		},
		gen.UInt32Range(0, n-1),
	))

	props.TestingRun(t)
}

func slicesEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBaseParents_StrictlyLessThanX(t *testing.T) {
	const n = 128
	g := newGraph(t, n, 3, 0)
	dst := make([]uint32, 3)
	for x := uint32(1); x < n; x++ {
		if err := g.BaseParents(x, dst); err != nil {
			t.Fatalf("BaseParents(%d): %v", x, err)
		}
		for _, p := range dst {
			if p >= x {
				t.Errorf("BaseParents(%d) produced parent %d, want < %d", x, p, x)
			}
		}
	}
}

func TestBaseParents_WrongLengthRejected(t *testing.T) {
	g := newGraph(t, 64, 3, 2)
	if err := g.BaseParents(10, make([]uint32, 2)); err == nil {
		t.Error("BaseParents with wrong-length dst = nil error, want ErrInvalidInput")
	}
}

func TestNew_RejectsNonPowerOfTwo(t *testing.T) {
	var seed [32]byte
	if _, err := graph.New(seed, 3, 2, 2); err == nil {
		t.Error("New(n=3, ...) = nil error, want rejection of non-power-of-two N")
	}
}

func TestBaseParents_Deterministic(t *testing.T) {
	g := newGraph(t, 64, 3, 2)
	a := make([]uint32, 3)
	b := make([]uint32, 3)
	if err := g.BaseParents(50, a); err != nil {
		t.Fatalf("BaseParents: %v", err)
	}
	if err := g.BaseParents(50, b); err != nil {
		t.Fatalf("BaseParents: %v", err)
	}
	if !slicesEqual(a, b) {
		t.Errorf("BaseParents(50) not deterministic: %v != %v", a, b)
	}
}

func TestLayer_IncrementsAcrossZigzag(t *testing.T) {
	g0 := newGraph(t, 16, 2, 2)
	if g0.Layer() != 0 {
		t.Fatalf("g0.Layer() = %d, want 0", g0.Layer())
	}
	g1 := g0.Zigzag()
	if g1.Layer() != 1 {
		t.Fatalf("g1.Layer() = %d, want 1", g1.Layer())
	}
	if g0.Layer() != 0 {
		t.Error("Zigzag() mutated the receiver's Layer()")
	}
}
