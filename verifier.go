package zigzag

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/storageproofs/zigzag/column"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
)

// VerifyAllPartitions implements spec.md §4.5's six checks, plus the three soundness checks
// spec.md §9 Design Note 1 flags as required-but-omitted in the reference: (1) every column
// proof in a challenge agrees on a single comm_c root, (2) every final-layer proof agrees on a
// single comm_r_last root, and (3) H(comm_c || comm_r_last) == tau.comm_r. All three are
// implemented here, not left as TODOs.
//
// VerifyAllPartitions never panics on adversarial input: every index, length, or decode
// mismatch is treated as a failed check, and a recover() backstop in verifyOnePartition
// converts any unexpected index-out-of-range into a verification failure rather than a crash.
func VerifyAllPartitions(ctx context.Context, pp PublicParams, pub PublicInputs, proofs []Proof) bool {
	logger := log.Ctx(ctx).With().Str("component", "verifier").Logger()

	h := pp.Hasher
	if h == nil {
		h = hasher.Pedersen{}
	}
	graph0, err := pp.graph0()
	if err != nil {
		logger.Warn().Err(err).Msg("reconstructing layer-0 graph failed")
		return false
	}
	graph1 := graph0.Zigzag()
	graph2 := graph1.Zigzag()
	baseDegree := graph0.Degree() - expansionDegreeOf(graph0)
	layers := pp.LayerChallenges.Layers

	results := make([]bool, len(proofs))
	g, gctx := errgroup.WithContext(ctx)
	for k, proof := range proofs {
		k, proof := k, proof
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			challenges := pp.LayerChallenges.Derive(pp.DRG.Nodes, pub.ReplicaID, pub.seedOrCommR(), k)
			results[k] = verifyOnePartition(h, graph0, graph1, graph2, pp, pub, proof, challenges, layers, baseDegree)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("verification aborted")
		return false
	}

	for _, ok := range results {
		if !ok {
			logger.Warn().Msg("partition failed verification")
			return false
		}
	}
	logger.Info().Int("partitions", len(proofs)).Msg("verification succeeded")
	return true
}

func verifyOnePartition(h hasher.Hasher, graph0, graph1, graph2 graph.Graph, pp PublicParams, pub PublicInputs, proof Proof, challenges []uint32, layers, baseDegree int) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	n := len(challenges)
	if len(proof.CommDProofs) != n || len(proof.ReplicaColumnProofs) != n ||
		len(proof.CommRLastProofs) != n || len(proof.EncodingProof1) != n || len(proof.EncodingProofs) != n {
		return false
	}

	for i, rawChallenge := range challenges {
		challenge := rawChallenge % pp.DRG.Nodes

		if uint32(proof.CommDProofs[i].Index) != challenge || !proof.CommDProofs[i].Verify(h, pub.Tau.CommD) {
			return false
		}

		commC, commCOK := verifyColumnProofSet(h, graph0, graph1, graph2, challenge, proof.ReplicaColumnProofs[i], baseDegree)
		if !commCOK {
			return false
		}

		commRLast, commRLastOK := verifyCommRLastProof(h, graph0, graph1, challenge, proof.CommRLastProofs[i])
		if !commRLastOK {
			return false
		}

		if h.Hash2(commC, commRLast) != pub.Tau.CommR {
			return false
		}

		// Bind the encoding proofs to the opened columns and the opened data leaf.
		cX, cInvX := proof.ReplicaColumnProofs[i].CX.Column, proof.ReplicaColumnProofs[i].CInvX.Column
		ep1 := proof.EncodingProof1[i]
		if e1, ok := cX.LabelAtLayer(1); !ok || ep1.Encoded != e1 || ep1.Decoded != proof.CommDProofs[i].Leaf {
			return false
		}
		// encodeLayer 0: E_1 was produced by the layer-0 graph.
		if !ep1.Verify(pub.ReplicaID, 0, challenge) {
			return false
		}

		ix := graph0.InvIndex(challenge)
		if len(proof.EncodingProofs[i]) != layers-2 {
			return false
		}
		for j, ep := range proof.EncodingProofs[i] {
			label := j + 2 // ℓ, the 1-indexed label produced by this encoding step
			pos := challenge
			if label%2 == 0 {
				pos = ix
			}
			enc, encOK := cX.LabelAtLayer(label)
			dec, decOK := cInvX.LabelAtLayer(label - 1)
			if !encOK || !decOK || ep.Encoded != enc || ep.Decoded != dec {
				return false
			}
			// encodeLayer = ℓ-1: E_ℓ was produced by the layer-(ℓ-1) graph.
			if !ep.Verify(pub.ReplicaID, label-1, pos) {
				return false
			}
		}
	}

	return true
}

// verifyColumnProofSet checks every column proof in one challenge's ReplicaColumnProofSet:
// each reconstructs C = H2(O, E) from its column data and verifies its Merkle path, and (per
// Design Note 1's first TODO) all of them are checked for agreement on a single comm_c root.
func verifyColumnProofSet(h hasher.Hasher, graph0, graph1, graph2 graph.Graph, x uint32, rcp ReplicaColumnProofSet, baseDegree int) (hasher.Domain, bool) {
	var root hasher.Domain
	haveRoot := false

	agree := func(r hasher.Domain) bool {
		if !haveRoot {
			root, haveRoot = r, true
			return true
		}
		return root == r
	}

	ix := graph0.InvIndex(x)

	if !checkColumnProof(h, rcp.CX, x) || !agree(rcp.CX.InclusionProof.Root(h)) {
		return hasher.Domain{}, false
	}
	if !checkColumnProof(h, rcp.CInvX, ix) || !agree(rcp.CInvX.InclusionProof.Root(h)) {
		return hasher.Domain{}, false
	}

	baseParents := make([]uint32, baseDegree)
	if err := graph0.BaseParents(x, baseParents); err != nil {
		return hasher.Domain{}, false
	}
	if len(rcp.DrgParents) != baseDegree {
		return hasher.Domain{}, false
	}
	for i, p := range baseParents {
		cp := rcp.DrgParents[i]
		if uint32(cp.InclusionProof.Index) != p || !checkColumnProof(h, cp, p) || !agree(cp.InclusionProof.Root(h)) {
			return hasher.Domain{}, false
		}
	}

	expG2Degree := expansionDegreeOf(graph2)
	if len(rcp.ExpParentsG2) != expG2Degree {
		return hasher.Domain{}, false
	}
	g2Parents := make([]uint32, 0, expG2Degree)
	if err := graph2.ExpansionParents(x, func(parents []uint32) error {
		g2Parents = append(g2Parents, parents...)
		return nil
	}); err != nil {
		return hasher.Domain{}, false
	}
	for i, p := range g2Parents {
		ocp := rcp.ExpParentsG2[i]
		if uint32(ocp.InclusionProof.Index) != p {
			return hasher.Domain{}, false
		}
		c := column.HashFull(h, ocp.Column.Hash(h), ocp.EvenHash)
		if ocp.InclusionProof.Leaf != c || !agree(ocp.InclusionProof.Root(h)) {
			return hasher.Domain{}, false
		}
	}

	expG1Degree := expansionDegreeOf(graph1)
	if len(rcp.ExpParentsG1) != expG1Degree {
		return hasher.Domain{}, false
	}
	g1Parents := make([]uint32, 0, expG1Degree)
	if err := graph1.ExpansionParents(ix, func(parents []uint32) error {
		g1Parents = append(g1Parents, parents...)
		return nil
	}); err != nil {
		return hasher.Domain{}, false
	}
	for i, p := range g1Parents {
		ecp := rcp.ExpParentsG1[i]
		invP := graph0.InvIndex(p)
		if uint32(ecp.InclusionProof.Index) != invP {
			return hasher.Domain{}, false
		}
		c := column.HashFull(h, ecp.OddHash, ecp.Column.Hash(h))
		if ecp.InclusionProof.Leaf != c || !agree(ecp.InclusionProof.Root(h)) {
			return hasher.Domain{}, false
		}
	}

	if !haveRoot {
		return hasher.Domain{}, false
	}
	return root, true
}

func checkColumnProof(h hasher.Hasher, cp ColumnProof, wantIndex uint32) bool {
	if uint32(cp.InclusionProof.Index) != wantIndex {
		return false
	}
	c := cp.Column.Commitment(h)
	return cp.InclusionProof.Leaf == c
}

// verifyCommRLastProof checks the final-replica opening (spec.md §4.5 step 4): the self proof
// at inv_index(x), and every parent proof — both base-DRG and expansion parents of
// parents_{graph_1}(inv_index(x)) — all sharing a single root.
func verifyCommRLastProof(h hasher.Hasher, graph0, graph1 graph.Graph, x uint32, crp CommRLastProof) (hasher.Domain, bool) {
	ix := graph0.InvIndex(x)
	if uint32(crp.Self.Index) != ix {
		return hasher.Domain{}, false
	}
	root := crp.Self.Root(h)

	baseDegree := graph1.Degree() - expansionDegreeOf(graph1)
	if len(crp.Parents) != graph1.Degree() {
		return hasher.Domain{}, false
	}

	parents := make([]uint32, baseDegree)
	if err := graph1.BaseParents(ix, parents); err != nil {
		return hasher.Domain{}, false
	}
	if err := graph1.ExpansionParents(ix, func(ps []uint32) error {
		parents = append(parents, ps...)
		return nil
	}); err != nil {
		return hasher.Domain{}, false
	}
	for i, p := range parents {
		pf := crp.Parents[i]
		if uint32(pf.Index) != p || pf.Root(h) != root {
			return hasher.Domain{}, false
		}
	}

	return root, true
}
