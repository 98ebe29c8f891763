package encode_test

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/storageproofs/zigzag/encode"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
)

func newGraph(t *testing.T, n uint32) graph.Graph {
	t.Helper()
	var seed [32]byte
	seed[0] = 0x07
	g, err := graph.New(seed, n, 2, 2)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	const n = 16
	g := newGraph(t, n)

	var replicaID hasher.Domain
	replicaID[0] = 0x99

	original := make([]byte, 32*n)
	for i := range original {
		original[i] = byte(i)
	}

	buf := make([]byte, len(original))
	copy(buf, original)

	if err := encode.Encode(g, replicaID, buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if bytes.Equal(buf, original) {
		t.Fatal("Encode did not change the buffer")
	}

	if err := encode.Decode(g, replicaID, buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(buf, original) {
		t.Errorf("Decode(Encode(data)) != data")
	}
}

func TestEncode_Deterministic(t *testing.T) {
	const n = 8
	g := newGraph(t, n)

	var replicaID hasher.Domain
	replicaID[0] = 0x01

	data := make([]byte, 32*n)
	for i := range data {
		data[i] = byte(i * 7)
	}

	a := make([]byte, len(data))
	b := make([]byte, len(data))
	copy(a, data)
	copy(b, data)

	if err := encode.Encode(g, replicaID, a); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := encode.Encode(g, replicaID, b); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two Encode calls over identical inputs produced different output")
	}
}

func TestEncode_RejectsWrongBufferLength(t *testing.T) {
	g := newGraph(t, 8)
	var replicaID hasher.Domain
	if err := encode.Encode(g, replicaID, make([]byte, 10)); err == nil {
		t.Error("Encode with wrong buffer length = nil error, want rejection")
	}
}

// TestEncodeDecode_RoundTrip_Property exercises P1/P2 at the single-layer level across random
// node counts and replica IDs.
func TestEncodeDecode_RoundTrip_Property(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("Decode(Encode(data)) == data for any power-of-two N", prop.ForAll(
		func(logN int, seedByte byte) bool {
			n := uint32(1) << uint(logN)
			var seed [32]byte
			seed[0] = seedByte
			g, err := graph.New(seed, n, 2, 2)
			if err != nil {
				return false
			}

			var replicaID hasher.Domain
			replicaID[1] = seedByte

			original := make([]byte, 32*n)
			for i := range original {
				original[i] = byte(i + int(seedByte))
			}
			buf := make([]byte, len(original))
			copy(buf, original)

			if err := encode.Encode(g, replicaID, buf); err != nil {
				return false
			}
			if err := encode.Decode(g, replicaID, buf); err != nil {
				return false
			}
			return bytes.Equal(buf, original)
		},
		gen.IntRange(2, 6),
		gen.UInt8Range(0, 255),
	))

	props.TestingRun(t)
}

func TestDeriveKey_ApplyCombine_MatchesEncode(t *testing.T) {
	const n = 8
	g := newGraph(t, n)

	var replicaID hasher.Domain
	replicaID[0] = 0x55

	data := make([]byte, 32*n)
	for i := range data {
		data[i] = byte(i * 3)
	}

	// Node 0 is the first node Encode touches, so its parent labels (base parents are all a
	// self-reference to 0 per BaseParents' x==0 edge case; expansion parents may be >= 0 but
	// are still untouched at this point) are still exactly the original data — letting this
	// test read parents straight out of the unmodified buffer instead of replaying Encode's
	// in-place mutation up to this node.
	const x = 0
	baseParents := make([]uint32, 2)
	if err := g.BaseParents(x, baseParents); err != nil {
		t.Fatalf("BaseParents: %v", err)
	}
	var parents []hasher.Domain
	for _, p := range baseParents {
		var d hasher.Domain
		copy(d[:], data[32*p:32*p+32])
		parents = append(parents, d)
	}
	if err := g.ExpansionParents(x, func(ps []uint32) error {
		for _, p := range ps {
			var d hasher.Domain
			copy(d[:], data[32*p:32*p+32])
			parents = append(parents, d)
		}
		return nil
	}); err != nil {
		t.Fatalf("ExpansionParents: %v", err)
	}

	var decoded hasher.Domain
	copy(decoded[:], data[32*x:32*x+32])

	key := encode.DeriveKey(replicaID, g.Layer(), x, parents)
	want := encode.ApplyCombine(decoded, key)

	buf := make([]byte, len(data))
	copy(buf, data)
	if err := encode.Encode(g, replicaID, buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var got hasher.Domain
	copy(got[:], buf[32*x:32*x+32])

	if got != want {
		t.Errorf("DeriveKey/ApplyCombine reconstruction = %x, want %x", want, got)
	}
}
