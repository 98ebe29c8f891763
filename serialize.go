package zigzag

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// canonicalEncMode is the deterministic CBOR encoding mode (RFC 8949 §4.2.1 core deterministic
// encoding: sorted map keys, shortest-form integers) used for Proof.Bytes, so two honest calls
// to ProveAllPartitions with identical inputs serialize to byte-identical wire output — an
// extension of P2 (determinism) to the wire format, resolving spec.md §9 Open Question 3
// ("Proof::serialize is not specified").
var canonicalEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic("zigzag: building canonical CBOR encode mode: " + err.Error())
	}
	return mode
}()

// Bytes serializes p into its canonical CBOR wire form.
func (p Proof) Bytes() ([]byte, error) {
	b, err := canonicalEncMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("zigzag: marshaling proof: %w", err)
	}
	return b, nil
}

// ProofFromBytes parses the canonical CBOR wire form produced by Proof.Bytes.
func ProofFromBytes(b []byte) (Proof, error) {
	var p Proof
	if err := cbor.Unmarshal(b, &p); err != nil {
		return Proof{}, fmt.Errorf("zigzag: unmarshaling proof: %w", err)
	}
	return p, nil
}

// Bytes serializes tau into its canonical CBOR wire form.
func (t Tau) Bytes() ([]byte, error) {
	b, err := canonicalEncMode.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("zigzag: marshaling tau: %w", err)
	}
	return b, nil
}

// TauFromBytes parses the canonical CBOR wire form produced by Tau.Bytes.
func TauFromBytes(b []byte) (Tau, error) {
	var t Tau
	if err := cbor.Unmarshal(b, &t); err != nil {
		return Tau{}, fmt.Errorf("zigzag: unmarshaling tau: %w", err)
	}
	return t, nil
}

// Bytes serializes p into its canonical CBOR wire form.
func (p PersistentAux) Bytes() ([]byte, error) {
	b, err := canonicalEncMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("zigzag: marshaling persistent aux: %w", err)
	}
	return b, nil
}

// PersistentAuxFromBytes parses the canonical CBOR wire form produced by PersistentAux.Bytes.
func PersistentAuxFromBytes(b []byte) (PersistentAux, error) {
	var p PersistentAux
	if err := cbor.Unmarshal(b, &p); err != nil {
		return PersistentAux{}, fmt.Errorf("zigzag: unmarshaling persistent aux: %w", err)
	}
	return p, nil
}
