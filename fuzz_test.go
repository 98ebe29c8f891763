package zigzag_test

import (
	"context"
	"testing"

	fuzz "github.com/trailofbits/go-fuzz-utils"

	zigzag "github.com/storageproofs/zigzag"
	"github.com/storageproofs/zigzag/challenge"
	"github.com/storageproofs/zigzag/hasher"
	"github.com/storageproofs/zigzag/internal/testdata"
)

// FuzzEncodingProofTamper is P6's second half: mutating any parent byte of an honestly produced
// proof must make verification reject it. Grounded on fuzz_transcripts_test.go's
// go-fuzz-utils-driven byte-stream pattern, adapted from "replay a sequence of operations" to
// "pick a tamper location and value, then re-run the full verifier".
func FuzzEncodingProofTamper(f *testing.F) {
	drbg := testdata.New("zigzag encoding-proof tamper")
	for range 10 {
		f.Add(drbg.Data(64))
	}

	const n, layers = 8, 6
	pp, err := zigzag.Setup(zigzag.SetupParams{
		DRG: zigzag.DrgParams{
			Nodes:           n,
			Degree:          2,
			ExpansionDegree: 2,
			Seed:            testdata.New("fuzz-tamper-setup").Domain(),
		},
		LayerChallenges: challenge.LayerChallenges{Layers: layers, Count: 4},
		Hasher:          hasher.BLAKE2s{},
	})
	if err != nil {
		f.Fatalf("Setup: %v", err)
	}

	fixtureDRBG := testdata.New("fuzz-tamper-data")
	replicaID := fixtureDRBG.Domain()
	data := fixtureDRBG.Data(32 * n)

	ctx := context.Background()
	tau, pAux, tAux, err := zigzag.Replicate(ctx, pp, replicaID, data, nil)
	if err != nil {
		f.Fatalf("Replicate: %v", err)
	}

	pub := zigzag.PublicInputs{ReplicaID: replicaID, Tau: tau}
	priv := zigzag.PrivateInputs{PAux: pAux, TAux: &tAux}

	fixtureProofs, err := zigzag.ProveAllPartitions(ctx, pp, pub, priv, 1)
	if err != nil {
		f.Fatalf("ProveAllPartitions: %v", err)
	}
	if len(fixtureProofs[0].EncodingProofs) == 0 || len(fixtureProofs[0].EncodingProofs[0]) == 0 {
		f.Fatal("fixture proof has no encoding_proofs to tamper with")
	}
	if !zigzag.VerifyAllPartitions(ctx, pp, pub, fixtureProofs) {
		f.Fatal("fixture proof does not verify before any tampering")
	}

	f.Fuzz(func(t *testing.T, seed []byte) {
		tp, err := fuzz.NewTypeProvider(seed)
		if err != nil {
			t.Skip(err)
		}
		layerIdx, err := tp.GetUint16()
		if err != nil {
			t.Skip(err)
		}
		byteIdx, err := tp.GetUint16()
		if err != nil {
			t.Skip(err)
		}
		flip, err := tp.GetByte()
		if err != nil || flip == 0 {
			t.Skip(err)
		}

		// Deep-copy the fixture proof so each fuzz input tampers its own independent snapshot.
		proof := cloneProof(fixtureProofs[0])

		layerProofs := proof.EncodingProofs[0]
		epIdx := mod(int(layerIdx), len(layerProofs))
		ep := &layerProofs[epIdx]
		if len(ep.ParentsData) == 0 {
			t.Skip("no parents_data to tamper with")
		}
		parentIdx := mod(int(byteIdx)/32, len(ep.ParentsData))
		byteOff := mod(int(byteIdx), 32)
		ep.ParentsData[parentIdx][byteOff] ^= flip

		tampered := []zigzag.Proof{proof}
		if zigzag.VerifyAllPartitions(ctx, pp, pub, tampered) {
			t.Errorf("tampering byte %d of encoding_proofs[0][%d].parents_data[%d] (xor %#x) did not make verification fail", byteOff, epIdx, parentIdx, flip)
		}
	})
}

func cloneProof(p zigzag.Proof) zigzag.Proof {
	out := p
	out.EncodingProofs = make([][]zigzag.EncodingProof, len(p.EncodingProofs))
	for i, layerProofs := range p.EncodingProofs {
		cloned := make([]zigzag.EncodingProof, len(layerProofs))
		for j, ep := range layerProofs {
			cloned[j] = zigzag.EncodingProof{
				Encoded:     ep.Encoded,
				Decoded:     ep.Decoded,
				ParentsData: append([]hasher.Domain(nil), ep.ParentsData...),
			}
		}
		out.EncodingProofs[i] = cloned
	}
	return out
}

func mod(x, n int) int {
	if n <= 0 {
		return 0
	}
	if x < 0 {
		x = -x
	}
	return x % n
}
