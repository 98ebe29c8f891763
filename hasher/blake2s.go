package hasher

import "golang.org/x/crypto/blake2s"

// BLAKE2s is the golang.org/x/crypto/blake2s Hasher variant. It is also, unconditionally, the
// fixed KDF used for verifiable-delay-encoding key derivation (see KDFBytes) regardless of
// which Hasher variant is selected for H/H2.
type BLAKE2s struct{}

// Name implements Hasher.
func (BLAKE2s) Name() string { return "blake2s" }

// Hash implements Hasher.
func (BLAKE2s) Hash(data []byte) Domain {
	return Domain(blake2s.Sum256(data))
}

// Hash2 implements Hasher.
func (h BLAKE2s) Hash2(a, b Domain) Domain {
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return h.Hash(buf)
}
