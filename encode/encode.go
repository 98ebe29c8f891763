// Package encode implements the Verifiable Delay Encoder (VDE): the per-node sequential
// relabeling pass that turns a raw data buffer into one encoding layer, and its inverse.
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
)

// Encode relabels buf in place for one layer: for each node x in index order, it derives
// key(x) from replicaID, the graph's layer, x, and the labels of x's parents, then combines
// key(x) with buf[x] via field addition. Parents are collected into a reused scratch buffer
// rather than reallocated per node, grounded on schemes/basic/mhf/mhf.go's sequential
// "for v := range nodes" node-labeling loop generalized from one or two fixed parents to
// g.Degree() distinct parents.
func Encode(g graph.Graph, replicaID hasher.Domain, buf []byte) error {
	return run(g, replicaID, buf, hasher.Domain.AddField)
}

// Decode is the additive inverse of Encode.
func Decode(g graph.Graph, replicaID hasher.Domain, buf []byte) error {
	return run(g, replicaID, buf, hasher.Domain.SubField)
}

func run(g graph.Graph, replicaID hasher.Domain, buf []byte, combine func(hasher.Domain, hasher.Domain) hasher.Domain) error {
	n := g.Size()
	if uint64(len(buf)) != 32*uint64(n) {
		return fmt.Errorf("encode: buffer length %d does not match 32*N=%d", len(buf), 32*n)
	}

	baseDegree := g.Degree() - expansionDegree(g)
	baseParents := make([]uint32, baseDegree)
	scratch := make([]byte, 0, 32*g.Degree())

	for x := uint32(0); x < n; x++ {
		if err := g.BaseParents(x, baseParents); err != nil {
			return fmt.Errorf("encode: base parents of node %d: %w", x, err)
		}

		scratch = scratch[:0]
		for _, p := range baseParents {
			off := 32 * uint64(p)
			scratch = append(scratch, buf[off:off+32]...)
		}

		var expErr error
		if err := g.ExpansionParents(x, func(parents []uint32) error {
			for _, p := range parents {
				off := 32 * uint64(p)
				scratch = append(scratch, buf[off:off+32]...)
			}
			return nil
		}); err != nil {
			expErr = err
		}
		if expErr != nil {
			return fmt.Errorf("encode: expansion parents of node %d: %w", x, expErr)
		}

		key := derivationKey(replicaID, g.Layer(), x, scratch)

		xOff := 32 * uint64(x)
		var label hasher.Domain
		if err := label.SetBytes(buf[xOff : xOff+32]); err != nil {
			return fmt.Errorf("encode: decoding label at node %d: %w", x, err)
		}

		result := combine(label, key)
		copy(buf[xOff:xOff+32], result[:])
	}

	return nil
}

// derivationKey computes key(x) = KDF(replica_id || layer || x || concat(parents)): the
// replica_id, then the layer as a little-endian uint64, then the little-endian uint32 node
// index, then the concatenated parent labels. This follows storage-proofs/src/crypto/kdf.rs's
// ordering (replica_id, node index, parent labels) with the layer field added.
func derivationKey(replicaID hasher.Domain, layer int, x uint32, parents []byte) hasher.Domain {
	buf := make([]byte, 0, 32+8+4+len(parents))
	buf = append(buf, replicaID[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(layer))
	buf = binary.LittleEndian.AppendUint32(buf, x)
	buf = append(buf, parents...)
	return hasher.KDFBytes(buf)
}

// DeriveKey is the exported form of derivationKey used by an EncodingProof's verification step,
// which must recompute the same key from parent labels gathered out of the proof rather than
// out of a live buffer.
func DeriveKey(replicaID hasher.Domain, layer int, x uint32, parents []hasher.Domain) hasher.Domain {
	buf := make([]byte, 0, 32*len(parents))
	for _, p := range parents {
		buf = append(buf, p[:]...)
	}
	return derivationKey(replicaID, layer, x, buf)
}

// ApplyCombine reapplies the encode step given an already-derived key, so an EncodingProof can
// check recomputed == encoded without re-deriving parent labels from a live buffer.
func ApplyCombine(decoded, key hasher.Domain) hasher.Domain {
	return decoded.AddField(key)
}

// expansionDegree recovers d_exp so run can size the base-parent scratch buffer; it relies on
// ExpansionParents reporting its own parent count via the callback (len(parents) for node 0)
// rather than exposing a separate accessor on Graph. run calls it once per Encode/Decode call,
// not per node.
func expansionDegree(g graph.Graph) int {
	var count int
	_ = g.ExpansionParents(0, func(parents []uint32) error {
		count = len(parents)
		return nil
	})
	return count
}
