// Package transcript implements a small domain-separated transcript engine used to derive
// deterministic, pseudorandom values (challenge indices, DRG and expansion parent sets) from a
// handful of public values.
//
// It is a trimmed adaptation of the thyrse protocol framework: the AEAD operations (Mask,
// Seal, Ratchet) are not needed by ZigZag — nothing here ever needs to hide data from a
// verifier, only to derive the same pseudorandom stream twice from the same public inputs —
// so only Mix, Fork and Derive survive. The underlying sponge is still TurboSHAKE128 over
// Keccak-p[1600,12].
package transcript

import (
	"github.com/storageproofs/zigzag/hazmat/kt128"
	"github.com/storageproofs/zigzag/hazmat/turboshake"
	"github.com/storageproofs/zigzag/internal/mem"
)

const (
	dsChain  = 0x20
	dsDerive = 0x21

	opInit   = 0x10
	opMix    = 0x11
	opFork   = 0x13
	opDerive = 0x14
	opChain  = 0x18
)

// Transcript is a transcript-based derivation instance. Operations append labeled frames to an
// internal transcript; Derive evaluates TurboSHAKE128 over the transcript and resets it with a
// chain value, so subsequent Derive calls on the same Transcript produce an independent stream.
type Transcript struct {
	h     turboshake.Hasher
	label string
}

// New creates a new Transcript for the given domain label. Two transcripts started with
// different labels are cryptographically independent even if fed the identical sequence of
// Mix/Derive calls afterwards.
func New(label string) *Transcript {
	var t Transcript
	t.h = turboshake.New(dsChain)
	t.label = label
	t.writeOpLabel(opInit, label)
	return &t
}

// Mix absorbs a labeled value into the transcript.
func (t *Transcript) Mix(label string, data []byte) {
	t.writeOpLabel(opMix, label)
	t.writeLengthEncode(data)
}

// MixStream absorbs a large byte slice by pre-hashing it through KT128 first, so the cost of
// mixing is independent of how large data is once pre-hashed.
func (t *Transcript) MixStream(label string, data []byte) {
	kh := kt128.NewCustom([]byte(t.label))
	_, _ = kh.Write(data)
	digest := kh.Sum(nil)

	t.writeOpLabel(opMix, label)
	t.writeLengthEncode(digest)
}

// Fork clones the transcript into n independent branches, each seeded with a distinct ordinal
// and an associated value; the receiver is also mutated (ordinal 0, empty value) so it can no
// longer be confused with any of the branches it produced.
func (t *Transcript) Fork(label string, values ...[]byte) []*Transcript {
	n := len(values)

	t.writeOpLabel(opFork, label)
	t.writeLeftEncode(uint64(n))

	branches := make([]*Transcript, n)
	for i := range n {
		clone := t.Clone()
		clone.writeLeftEncode(uint64(i + 1))
		clone.writeLengthEncode(values[i])
		branches[i] = clone
	}

	t.writeLeftEncode(0)
	t.writeLengthEncode(nil)

	return branches
}

// Derive produces outputLen pseudorandom bytes appended to dst, deterministic in the full
// transcript so far, and resets the transcript so a subsequent Derive call yields an
// independent stream.
func (t *Transcript) Derive(label string, dst []byte, outputLen int) []byte {
	ret, out := mem.SliceForAppend(dst, outputLen)

	t.writeOpLabel(opDerive, label)
	t.writeLeftEncode(uint64(outputLen))

	var cv [32]byte
	oh := t.h
	turboshake.Chain(&t.h, &oh, dsDerive)
	_, _ = t.h.Read(cv[:])
	_, _ = oh.Read(out)

	t.resetChain(cv[:])
	return ret
}

// Clone returns an independent copy of the transcript state.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{h: t.h, label: t.label}
}

func (t *Transcript) resetChain(chainValue []byte) {
	t.h.Reset(dsChain)
	_, _ = t.h.Write([]byte{opChain})
	t.writeLeftEncode(1)
	t.writeLengthEncode(chainValue)
}

func (t *Transcript) writeOpLabel(op byte, label string) {
	_, _ = t.h.Write([]byte{op})
	t.writeLengthEncode([]byte(label))
}

func (t *Transcript) writeLeftEncode(x uint64) {
	var buf [9]byte
	if x == 0 {
		buf[0] = 1
		_, _ = t.h.Write(buf[:2])
		return
	}
	i := 8
	v := x
	for v > 0 {
		buf[i] = byte(v)
		v >>= 8
		i--
	}
	buf[i] = byte(8 - i)
	_, _ = t.h.Write(buf[i:9])
}

func (t *Transcript) writeLengthEncode(data []byte) {
	t.writeLeftEncode(uint64(len(data)))
	if len(data) > 0 {
		_, _ = t.h.Write(data)
	}
}
