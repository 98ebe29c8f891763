package hasher

import "github.com/storageproofs/zigzag/hazmat/kt128"

// KT128 is a SIMD-accelerated Hasher variant built on KangarooTwelve (RFC 9861), useful when H
// is on the hot path of a large replication run and the Pedersen variant's group operations
// would dominate. It is not a production default (Pedersen remains that: zigzag.Setup selects
// it when no Hasher is given) but gives replication a fast, non-algebraic hash option the way the reference
// corpus's own hazmat tree is built to support.
type KT128 struct{}

// Name implements Hasher.
func (KT128) Name() string { return "kt128" }

// Hash implements Hasher.
func (KT128) Hash(data []byte) Domain {
	h := kt128.New()
	_, _ = h.Write(data)
	var out [32]byte
	_, _ = h.Read(out[:])
	return Domain(out)
}

// Hash2 implements Hasher.
func (h KT128) Hash2(a, b Domain) Domain {
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return h.Hash(buf)
}
