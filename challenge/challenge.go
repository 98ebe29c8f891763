// Package challenge implements deterministic per-partition challenge index derivation, per
// spec.md §4.4: "challenges = layer_challenges.derive(N, replica_id, seed_or_comm_r, k)".
package challenge

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"

	"github.com/storageproofs/zigzag/hasher"
	"github.com/storageproofs/zigzag/internal/transcript"
)

// LayerChallenges configures how many challenges are derived per partition, and over how many
// layers the resulting proofs must range (used by SatisfiesRequirements).
type LayerChallenges struct {
	Layers int
	Count  int
}

// Requirements is the minimum-challenges policy SatisfiesRequirements checks against, mirroring
// storage-proofs' layered_drgporep::Layers::satisfies_requirements.
type Requirements struct {
	MinimumChallenges int
}

// SatisfiesRequirements implements P7: satisfies_requirements(pp, req, K) == (c*K >= req.minimum_challenges).
func (lc LayerChallenges) SatisfiesRequirements(req Requirements, partitions int) bool {
	return lc.Count*partitions >= req.MinimumChallenges
}

// Derive mixes replicaID, seedOrCommR, and the partition index k into a transcript, then
// derives Count big-endian uint32s reduced mod n. Unlike the reference implementation (which
// allows duplicate challenges within a partition — confirmed in
// original_source/storage-proofs/src/zigzag/proof.rs's derive_internal), this module treats a
// repeat as wasting a challenge slot while distinct positions remain: a bitset.BitSet tracks
// which positions have already been emitted in this partition, and a repeat triggers one more
// Derive call on the same transcript (each Derive re-chains it, so the next draw is fresh)
// instead of being accepted. Once every position in
// [0, n) has been emitted once, the distinct pool is exhausted and Derive falls back to the
// reference's permissive behavior (repeats accepted) for any remaining slots — required so a
// Count exceeding n (as in spec.md §8 scenario 4's N=4, c=5) terminates instead of looping
// forever searching for a distinct index that cannot exist. See DESIGN.md for why the
// distinctness preference, not the fallback, is the deliberate strengthening.
func (lc LayerChallenges) Derive(n uint32, replicaID hasher.Domain, seedOrCommR hasher.Domain, k int) []uint32 {
	t := transcript.New("zigzag.challenge")
	t.Mix("replica-id", replicaID[:])
	t.Mix("seed-or-comm-r", seedOrCommR[:])
	t.Mix("partition", binary.AppendUvarint(nil, uint64(k)))

	challenges := make([]uint32, 0, lc.Count)
	seen := bitset.New(uint(n))
	distinctCount := uint(0)

	for len(challenges) < lc.Count {
		raw := binary.BigEndian.Uint32(t.Derive("index", nil, 4))
		idx := raw % n
		if seen.Test(uint(idx)) && distinctCount < uint(n) {
			continue
		}
		if !seen.Test(uint(idx)) {
			seen.Set(uint(idx))
			distinctCount++
		}
		challenges = append(challenges, idx)
	}

	return challenges
}
