package hasher

import (
	"fmt"
	"math/big"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

const (
	pedersenChunkSize = 32
	pedersenDST       = "zigzag-pedersen-v1"
)

// Pedersen is the production-default Hasher: a windowed Pedersen hash over the BLS12-377 group,
// matching the curve used by the companion arithmetic-circuit encoding of the verifier. The
// input is split into fixed-size chunks; each chunk scalar-multiplies a distinct,
// deterministically-derived generator, the products are summed, and the resulting point's
// affine x-coordinate (reduced into the scalar field) is the digest.
type Pedersen struct{}

// Name implements Hasher.
func (Pedersen) Name() string { return "pedersen" }

// Hash implements Hasher.
func (Pedersen) Hash(data []byte) Domain {
	return pedersenDigest(data)
}

// Hash2 implements Hasher.
func (h Pedersen) Hash2(a, b Domain) Domain {
	buf := make([]byte, 0, 64)
	buf = append(buf, a[:]...)
	buf = append(buf, b[:]...)
	return pedersenDigest(buf)
}

func pedersenDigest(data []byte) Domain {
	var acc bls12377.G1Jac

	for i, chunk := range chunkify(data, pedersenChunkSize) {
		gen := pedersenGenerator(i)
		scalar := new(big.Int).SetBytes(chunk)

		var term bls12377.G1Jac
		term.ScalarMultiplication(&gen, scalar)
		acc.AddAssign(&term)
	}

	var affine bls12377.G1Affine
	affine.FromJacobian(&acc)

	var x big.Int
	affine.X.BigInt(&x)
	return domainFromBigInt(&x)
}

// pedersenGenerator deterministically derives the index-th chunk generator by hashing a
// position label to the curve, so (seed-free) Pedersen digests are reproducible across
// processes without a trusted setup.
func pedersenGenerator(index int) bls12377.G1Affine {
	label := []byte(fmt.Sprintf("%s/generator/%d", pedersenDST, index))
	g, err := bls12377.HashToG1(label, []byte(pedersenDST))
	if err != nil {
		panic("hasher: pedersen generator derivation failed: " + err.Error())
	}
	return g
}

func chunkify(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return [][]byte{nil}
	}
	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for i := 0; i < len(data); i += size {
		end := min(i+size, len(data))
		chunks = append(chunks, data[i:end])
	}
	return chunks
}

func domainFromBigInt(v *big.Int) Domain {
	var e fr.Element
	e.SetBigInt(v)
	return DomainFromFieldElement(e)
}
