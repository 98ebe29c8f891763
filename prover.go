package zigzag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/storageproofs/zigzag/column"
	"github.com/storageproofs/zigzag/encode"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
	"github.com/storageproofs/zigzag/merkletree"
)

// ProveAllPartitions implements spec.md §4.4: derive K independent challenge sets and, for
// each challenge, assemble the data opening, replica-column openings, final-replica opening,
// and the L-1 encoding-consistency proofs. Partitions are proven concurrently via
// errgroup.Group, grounded on the domain-separated construction/verification pairing of
// schemes/complex/vrf/vrf.go's Prove/Verify.
func ProveAllPartitions(ctx context.Context, pp PublicParams, pub PublicInputs, priv PrivateInputs, partitions int) ([]Proof, error) {
	logger := log.Ctx(ctx).With().Str("component", "prover").Logger()

	graph0, err := pp.graph0()
	if err != nil {
		return nil, fmt.Errorf("prove_all_partitions: reconstructing layer-0 graph: %w", err)
	}
	graph1 := graph0.Zigzag()
	graph2 := graph1.Zigzag()

	if priv.TAux == nil {
		return nil, fmt.Errorf("prove_all_partitions: temporary aux: %w", ErrAssignmentMissing)
	}
	tAux := priv.TAux
	layers := pp.LayerChallenges.Layers

	proofs := make([]Proof, partitions)
	g, gctx := errgroup.WithContext(ctx)
	for k := 0; k < partitions; k++ {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			challenges := pp.LayerChallenges.Derive(pp.DRG.Nodes, pub.ReplicaID, pub.seedOrCommR(), k)
			proof, err := proveOnePartition(pub.ReplicaID, graph0, graph1, graph2, tAux, layers, challenges)
			if err != nil {
				return fmt.Errorf("partition %d: %w", k, err)
			}
			proofs[k] = proof
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("proving failed")
		return nil, err
	}

	logger.Info().Int("partitions", partitions).Msg("proving complete")
	return proofs, nil
}

func proveOnePartition(replicaID hasher.Domain, graph0, graph1, graph2 graph.Graph, tAux *TemporaryAux, layers int, challenges []uint32) (Proof, error) {
	proof := Proof{
		CommDProofs:         make([]merkletree.Proof, len(challenges)),
		ReplicaColumnProofs: make([]ReplicaColumnProofSet, len(challenges)),
		CommRLastProofs:     make([]CommRLastProof, len(challenges)),
		EncodingProof1:      make([]EncodingProof, len(challenges)),
		EncodingProofs:      make([][]EncodingProof, len(challenges)),
	}

	baseDegree := graph0.Degree() - expansionDegreeOf(graph0)

	for i, x := range challenges {
		// 1. Data opening.
		dProof, err := tAux.TreeD.GenProof(int(x))
		if err != nil {
			return Proof{}, fmt.Errorf("challenge %d: data opening: %w", x, err)
		}
		proof.CommDProofs[i] = dProof

		// 2. Replica-column openings.
		rcp, err := replicaColumnProofSet(graph0, graph1, graph2, tAux, layers, baseDegree, x)
		if err != nil {
			return Proof{}, fmt.Errorf("challenge %d: replica column proofs: %w", x, err)
		}
		proof.ReplicaColumnProofs[i] = rcp

		// 3. Final-replica opening.
		ix := graph0.InvIndex(x)
		selfProof, err := tAux.TreeRLast.GenProof(int(ix))
		if err != nil {
			return Proof{}, fmt.Errorf("challenge %d: comm_r_last self opening: %w", x, err)
		}
		parentProofs := make([]merkletree.Proof, 0, graph1.Degree())
		rLastBaseParents := make([]uint32, baseDegree)
		if err := graph1.BaseParents(ix, rLastBaseParents); err != nil {
			return Proof{}, fmt.Errorf("challenge %d: comm_r_last base parents: %w", x, err)
		}
		for _, p := range rLastBaseParents {
			pf, err := tAux.TreeRLast.GenProof(int(p))
			if err != nil {
				return Proof{}, fmt.Errorf("challenge %d: comm_r_last parent openings: %w", x, err)
			}
			parentProofs = append(parentProofs, pf)
		}
		if err := graph1.ExpansionParents(ix, func(parents []uint32) error {
			for _, p := range parents {
				pf, err := tAux.TreeRLast.GenProof(int(p))
				if err != nil {
					return err
				}
				parentProofs = append(parentProofs, pf)
			}
			return nil
		}); err != nil {
			return Proof{}, fmt.Errorf("challenge %d: comm_r_last parent openings: %w", x, err)
		}
		proof.CommRLastProofs[i] = CommRLastProof{Self: selfProof, Parents: parentProofs}

		// 4. Encoding proof, layer 1.
		cX := tAux.fullColumnAt(graph0, x, layers)
		encodedLayer1, ok := cX.LabelAtLayer(1)
		if !ok {
			return Proof{}, &FatalError{Msg: fmt.Sprintf("column at %d missing layer 1", x)}
		}
		baseParents := make([]uint32, baseDegree)
		if err := graph0.BaseParents(x, baseParents); err != nil {
			return Proof{}, fmt.Errorf("challenge %d: layer-1 base parents: %w", x, err)
		}
		parentsData0 := make([]hasher.Domain, 0, len(baseParents)+expansionDegreeOf(graph0))
		for _, p := range baseParents {
			parentsData0 = append(parentsData0, tAux.TreeD.Leaf(int(p)))
		}
		if err := graph0.ExpansionParents(x, func(parents []uint32) error {
			for _, p := range parents {
				parentsData0 = append(parentsData0, tAux.TreeD.Leaf(int(p)))
			}
			return nil
		}); err != nil {
			return Proof{}, fmt.Errorf("challenge %d: layer-1 expansion parents: %w", x, err)
		}
		proof.EncodingProof1[i] = EncodingProof{
			Encoded:     encodedLayer1,
			Decoded:     dProof.Leaf,
			ParentsData: parentsData0,
		}

		// 5. Encoding proofs, layers 2..L-1.
		cInvX := tAux.fullColumnAt(graph0, ix, layers)
		layerProofs := make([]EncodingProof, 0, layers-2)
		for layer := 2; layer <= layers-1; layer++ {
			ep, err := encodingProofAtLayer(graph0, graph1, graph2, tAux, x, ix, layer, cX, cInvX, baseDegree)
			if err != nil {
				return Proof{}, fmt.Errorf("challenge %d: encoding proof layer %d: %w", x, layer, err)
			}
			layerProofs = append(layerProofs, ep)
		}
		proof.EncodingProofs[i] = layerProofs
	}

	return proof, nil
}

// replicaColumnProofSet assembles the five-part replica-column-openings bundle of spec.md
// §4.4 step 2, preserving the acknowledged c_inv_x inefficiency verbatim: a full column is
// opened at inv_index(x) even though only its odd-layer labels are strictly needed by any
// verifier check (spec.md §9 Design Note 2 — not silently fixed here).
func replicaColumnProofSet(graph0, graph1, graph2 graph.Graph, tAux *TemporaryAux, layers, baseDegree int, x uint32) (ReplicaColumnProofSet, error) {
	ix := graph0.InvIndex(x)

	cX, err := columnProofAt(tAux.fullColumnAt(graph0, x, layers), tAux.TreeC, x)
	if err != nil {
		return ReplicaColumnProofSet{}, err
	}
	// known inefficiency, see spec §9 note 2: full column instead of odd-only.
	cInvX, err := columnProofAt(tAux.fullColumnAt(graph0, ix, layers), tAux.TreeC, ix)
	if err != nil {
		return ReplicaColumnProofSet{}, err
	}

	baseParents := make([]uint32, baseDegree)
	if err := graph0.BaseParents(x, baseParents); err != nil {
		return ReplicaColumnProofSet{}, err
	}
	drgProofs := make([]ColumnProof, len(baseParents))
	for i, p := range baseParents {
		cp, err := columnProofAt(tAux.fullColumnAt(graph0, p, layers), tAux.TreeC, p)
		if err != nil {
			return ReplicaColumnProofSet{}, err
		}
		drgProofs[i] = cp
	}

	var expG2 []OddColumnProof
	if err := graph2.ExpansionParents(x, func(parents []uint32) error {
		expG2 = make([]OddColumnProof, len(parents))
		for i, p := range parents {
			odd := tAux.oddColumnAt(p, layers)
			incl, err := tAux.TreeC.GenProof(int(p))
			if err != nil {
				return err
			}
			expG2[i] = OddColumnProof{Column: odd, InclusionProof: incl, EvenHash: tAux.Es[p]}
		}
		return nil
	}); err != nil {
		return ReplicaColumnProofSet{}, err
	}

	var expG1 []EvenColumnProof
	if err := graph1.ExpansionParents(ix, func(parents []uint32) error {
		expG1 = make([]EvenColumnProof, len(parents))
		for i, p := range parents {
			even := tAux.evenColumnAt(graph0, p, layers)
			invP := graph0.InvIndex(p)
			incl, err := tAux.TreeC.GenProof(int(invP))
			if err != nil {
				return err
			}
			expG1[i] = EvenColumnProof{Column: even, InclusionProof: incl, OddHash: tAux.Os[invP]}
		}
		return nil
	}); err != nil {
		return ReplicaColumnProofSet{}, err
	}

	return ReplicaColumnProofSet{
		CX:           cX,
		CInvX:        cInvX,
		DrgParents:   drgProofs,
		ExpParentsG2: expG2,
		ExpParentsG1: expG1,
	}, nil
}

func columnProofAt(col column.Column, tree *merkletree.Tree, pos uint32) (ColumnProof, error) {
	incl, err := tree.GenProof(int(pos))
	if err != nil {
		return ColumnProof{}, err
	}
	return ColumnProof{Column: col, InclusionProof: incl}, nil
}

// encodingProofAtLayer builds the layer-ℓ EncodingProof per spec.md §4.4 step 5: layer parity
// picks graph_1/inv_index(x) (even ℓ) or graph_2/x (odd ℓ), with parents_data drawn from
// encodings[ℓ-1].
func encodingProofAtLayer(graph0, graph1, graph2 graph.Graph, tAux *TemporaryAux, x, ix uint32, layer int, cX, cInvX column.Column, baseDegree int) (EncodingProof, error) {
	var g graph.Graph
	var pos uint32
	if layer%2 == 0 {
		g, pos = graph1, ix
	} else {
		g, pos = graph2, x
	}

	encoded, ok := cX.LabelAtLayer(layer)
	if !ok {
		return EncodingProof{}, &FatalError{Msg: fmt.Sprintf("column missing layer %d", layer)}
	}
	decoded, ok := cInvX.LabelAtLayer(layer - 1)
	if !ok {
		return EncodingProof{}, &FatalError{Msg: fmt.Sprintf("column missing layer %d", layer-1)}
	}

	baseParents := make([]uint32, baseDegree)
	if err := g.BaseParents(pos, baseParents); err != nil {
		return EncodingProof{}, err
	}
	prevEncoding := tAux.Encodings[layer-2] // encodings[layer-2] holds E_{layer-1}
	parentsData := make([]hasher.Domain, 0, len(baseParents)+expansionDegreeOf(g))
	for _, p := range baseParents {
		parentsData = append(parentsData, labelAt(prevEncoding, p))
	}
	if err := g.ExpansionParents(pos, func(parents []uint32) error {
		for _, p := range parents {
			parentsData = append(parentsData, labelAt(prevEncoding, p))
		}
		return nil
	}); err != nil {
		return EncodingProof{}, err
	}

	return EncodingProof{Encoded: encoded, Decoded: decoded, ParentsData: parentsData}, nil
}

func expansionDegreeOf(g graph.Graph) int {
	var count int
	_ = g.ExpansionParents(0, func(parents []uint32) error {
		count = len(parents)
		return nil
	})
	return count
}

// Verify implements the EncodingProof check of spec.md §4.5's final paragraph: reapply
// Encode's KDF-and-add step and accept iff the result matches Encoded.
//
// encodeLayer is the 0-indexed layer value the original Encode call used (graph.Graph.Layer()
// at the time E_ℓ was produced from E_{ℓ-1}), not the 1-indexed label ℓ itself: producing E_1
// uses a layer-0 graph, E_2 a layer-1 graph, and so on, since Replicate's loop variable and the
// graph's own Layer() both start at 0 while labels are conventionally numbered from 1.
func (ep EncodingProof) Verify(replicaID hasher.Domain, encodeLayer int, x uint32) bool {
	key := encode.DeriveKey(replicaID, encodeLayer, x, ep.ParentsData)
	recomputed := encode.ApplyCombine(ep.Decoded, key)
	return recomputed == ep.Encoded
}
