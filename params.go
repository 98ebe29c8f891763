// Package zigzag implements the replication, proving and verification core of a layered
// Proof-of-Replication scheme: an L-layer graph-based encoding pipeline, column commitments
// binding labels across layers, and a challenge-and-open protocol with its verifier.
package zigzag

import (
	"github.com/blang/semver/v4"

	"github.com/storageproofs/zigzag/challenge"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
)

// version is the on-disk PublicParams format version. It is bumped whenever a change to
// PublicParams' serialized shape would make an old replica unreadable by a newer build.
var version = semver.MustParse("1.0.0")

// DrgParams configures the base DRG and expansion degree of the layer-0 graph.
type DrgParams struct {
	Nodes           uint32
	Degree          int
	ExpansionDegree int
	Seed            [32]byte
}

// SetupParams is the caller-facing request passed to Setup. Hasher selects the H/H2 family
// (hasher.Pedersen, hasher.SHA256, hasher.BLAKE2s, or hasher.KT128); it defaults to hasher.Pedersen when nil,
// matching spec.md §9 Design Note 2's "the Pedersen variant is the default in production".
type SetupParams struct {
	DRG             DrgParams
	LayerChallenges challenge.LayerChallenges
	Hasher          hasher.Hasher
}

// PublicParams is what Setup derives from a SetupParams: the degree parameters, a fixed
// NodeSize, and a Version so replica formats can evolve without breaking old replicas — the
// SetupParams/PublicParams split mirrors
// original_source/storage-proofs/src/zigzag/proof.rs's PublicParams, which additionally records
// degree parameters alongside a tree-building configuration.
type PublicParams struct {
	DRG             DrgParams
	LayerChallenges challenge.LayerChallenges
	Hasher          hasher.Hasher
	NodeSize        int
	Version         semver.Version
}

// NodeSizeBytes is the fixed width of one node's label.
const NodeSizeBytes = 32

// Setup constructs PublicParams from a SetupParams request. It performs no encoding work; it
// only validates and records the parameters that Replicate, ProveAllPartitions, and
// VerifyAllPartitions will later need.
func Setup(sp SetupParams) (PublicParams, error) {
	if sp.DRG.Nodes == 0 || sp.DRG.Nodes&(sp.DRG.Nodes-1) != 0 {
		return PublicParams{}, ErrInvalidInput
	}
	if sp.LayerChallenges.Layers < 2 {
		return PublicParams{}, ErrInvalidInput
	}

	h := sp.Hasher
	if h == nil {
		h = hasher.Pedersen{}
	}

	return PublicParams{
		DRG:             sp.DRG,
		LayerChallenges: sp.LayerChallenges,
		Hasher:          h,
		NodeSize:        NodeSizeBytes,
		Version:         version,
	}, nil
}

// graph0 reconstructs the layer-0 graph from pp.DRG, the sole source of truth every operation
// (Replicate, ExtractAll, ProveAllPartitions, VerifyAllPartitions) uses to rebuild it.
func (pp PublicParams) graph0() (graph.Graph, error) {
	return graph.New(pp.DRG.Seed, pp.DRG.Nodes, pp.DRG.Degree, pp.DRG.ExpansionDegree)
}

// SatisfiesRequirements implements P7 at the PublicParams level, delegating to the configured
// LayerChallenges.
func (pp PublicParams) SatisfiesRequirements(req challenge.Requirements, partitions int) bool {
	return pp.LayerChallenges.SatisfiesRequirements(req, partitions)
}
