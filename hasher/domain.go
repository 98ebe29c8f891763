// Package hasher defines the Domain element and the Hasher family used throughout the
// replication, proving and verification core: a collision-resistant hash H, a 2-to-1 hash H2,
// and the fixed 32-byte KDF used for verifiable-delay-encoding key derivation.
package hasher

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Domain is an opaque 32-byte digest that also embeds into the BLS12-377 scalar field. It is
// never treated as a class hierarchy — just a fixed-size byte string with two conversions.
type Domain [32]byte

// Bytes returns the domain element's big-endian byte representation.
func (d Domain) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, d[:])
	return out
}

// SetBytes copies b into d, left-padding with zeros if b is shorter than 32 bytes.
// It returns ErrDomainDecode if b is longer than 32 bytes.
func (d *Domain) SetBytes(b []byte) error {
	if len(b) > 32 {
		return fmt.Errorf("hasher: %d-byte input exceeds domain width: %w", len(b), ErrDomainDecode)
	}
	var buf [32]byte
	copy(buf[32-len(b):], b)
	*d = buf
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler, so CBOR (and any other encoding.Binary*
// aware codec) encodes a Domain as a 32-byte string rather than as an array of 32 integers.
func (d Domain) MarshalBinary() ([]byte, error) {
	return d.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Domain) UnmarshalBinary(b []byte) error {
	if len(b) != 32 {
		return fmt.Errorf("hasher: domain must unmarshal from exactly 32 bytes, got %d: %w", len(b), ErrDomainDecode)
	}
	copy(d[:], b)
	return nil
}

// FieldElement reduces d modulo the BLS12-377 scalar field order and returns the result. This
// is "bytes_into_fr_repr_safe": any 32-byte string is accepted, with silent reduction above the
// field modulus, matching the reference's "safe" (non-panicking) conversion.
func (d Domain) FieldElement() fr.Element {
	var e fr.Element
	e.SetBytes(d[:])
	return e
}

// DomainFromFieldElement is "fr_into_bytes": the canonical byte encoding of a field element.
func DomainFromFieldElement(e fr.Element) Domain {
	b := e.Bytes()
	return Domain(b)
}

// AddField returns the Domain produced by adding d and other as field elements — this is
// "Encode": field addition modulo the group order, standing in for XOR-in-field.
func (d Domain) AddField(other Domain) Domain {
	a, b := d.FieldElement(), other.FieldElement()
	var sum fr.Element
	sum.Add(&a, &b)
	return DomainFromFieldElement(sum)
}

// SubField returns the Domain produced by subtracting other from d as field elements — this is
// "Decode", the additive inverse of AddField.
func (d Domain) SubField(other Domain) Domain {
	a, b := d.FieldElement(), other.FieldElement()
	var diff fr.Element
	diff.Sub(&a, &b)
	return DomainFromFieldElement(diff)
}
