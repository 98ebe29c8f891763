package hasher

import "golang.org/x/crypto/blake2s"

// Hasher is the hash family consumed by the column, encoding, and commitment layers: a
// collision-resistant hash H, a 2-to-1 hash H2, and a name for logging/testing. The KDF used
// for verifiable-delay-encoding key derivation is fixed to BLAKE2s-256 regardless of which
// Hasher is selected here (see KDFBytes) — "the hash family" is configurable, "the KDF" is not.
type Hasher interface {
	// Hash is the collision-resistant hash H over an arbitrary-length input.
	Hash(data []byte) Domain
	// Hash2 is the 2-to-1 collision-resistant hash H2.
	Hash2(a, b Domain) Domain
	// Name identifies the hasher variant, for logging and test fixtures.
	Name() string
}

// KDFBytes computes the fixed key-derivation function: BLAKE2s-256 over data, interpreted as a
// Domain (and, when needed, reduced into a field element via Domain.FieldElement).
func KDFBytes(data []byte) Domain {
	sum := blake2s.Sum256(data)
	return Domain(sum)
}
