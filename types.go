package zigzag

import (
	"github.com/storageproofs/zigzag/column"
	"github.com/storageproofs/zigzag/hasher"
	"github.com/storageproofs/zigzag/merkletree"
)

// Tau publicly identifies a replication: the data-tree root and the combined replica root.
type Tau struct {
	CommD hasher.Domain `cbor:"comm_d"`
	CommR hasher.Domain `cbor:"comm_r"`
}

// PersistentAux outlives the replicator alongside Tau: the column-tree root and the final
// layer's tree root, both needed by the prover and recomputable (and checked) by the verifier.
type PersistentAux struct {
	CommC     hasher.Domain `cbor:"comm_c"`
	CommRLast hasher.Domain `cbor:"comm_r_last"`
}

// TemporaryAux holds every intermediate buffer and tree the prover needs and the verifier
// does not: encodings of layers 1..L-1, the per-position odd/even column hashes, and all three
// trees. It is owned exclusively by the replicator until handed to the prover, which also holds
// it exclusively; nothing ever writes to it while another reader is active.
type TemporaryAux struct {
	Encodings [][]byte // encodings[i] is E_{i+1}, for i in [0, L-2]
	Os        []hasher.Domain
	Es        []hasher.Domain
	TreeD     *merkletree.Tree
	TreeC     *merkletree.Tree
	TreeRLast *merkletree.Tree
}

// PublicInputs is the challenge-derivation and verification context shared by prover and
// verifier.
type PublicInputs struct {
	ReplicaID hasher.Domain
	// Seed overrides CommR when non-nil, for circuit soundness analyses per spec.md §4.4.
	Seed *hasher.Domain
	Tau  Tau
}

// seedOrCommR resolves the challenge-derivation seed per spec.md §4.4: "seed overrides comm_r
// when present".
func (pi PublicInputs) seedOrCommR() hasher.Domain {
	if pi.Seed != nil {
		return *pi.Seed
	}
	return pi.Tau.CommR
}

// PrivateInputs is everything the prover needs beyond PublicInputs: the persistent and
// temporary aux state produced by Replicate.
type PrivateInputs struct {
	PAux PersistentAux
	TAux *TemporaryAux
}

// ColumnProof pairs a column with its tree_c inclusion proof.
type ColumnProof struct {
	Column         column.Column    `cbor:"column"`
	InclusionProof merkletree.Proof `cbor:"inclusion_proof"`
}

// OddColumnProof is an odd-column proof plus the precomputed even-column hash needed to
// reconstruct C_p = H2(O_p, EvenHash) without re-deriving the even column itself.
type OddColumnProof struct {
	Column         column.Column    `cbor:"column"`
	InclusionProof merkletree.Proof `cbor:"inclusion_proof"`
	EvenHash       hasher.Domain    `cbor:"even_hash"`
}

// EvenColumnProof is the symmetric counterpart of OddColumnProof.
type EvenColumnProof struct {
	Column         column.Column    `cbor:"column"`
	InclusionProof merkletree.Proof `cbor:"inclusion_proof"`
	OddHash        hasher.Domain    `cbor:"odd_hash"`
}

// ReplicaColumnProofSet is the full replica-column-openings bundle for one challenge, per
// spec.md §4.4 step 2.
type ReplicaColumnProofSet struct {
	CX           ColumnProof       `cbor:"c_x"`
	CInvX        ColumnProof       `cbor:"c_inv_x"` // known inefficiency, see spec §9 note 2
	DrgParents   []ColumnProof     `cbor:"drg_parents"`
	ExpParentsG2 []OddColumnProof  `cbor:"exp_parents_g2"`
	ExpParentsG1 []EvenColumnProof `cbor:"exp_parents_g1"`
}

// CommRLastProof is the final-replica opening for one challenge, per spec.md §4.4 step 3.
type CommRLastProof struct {
	Self    merkletree.Proof   `cbor:"self"`
	Parents []merkletree.Proof `cbor:"parents"`
}

// EncodingProof is one encoding-consistency proof: the encoded and decoded labels at a
// position, and the parent labels needed to recompute the KDF-and-add step.
type EncodingProof struct {
	Encoded     hasher.Domain   `cbor:"encoded"`
	Decoded     hasher.Domain   `cbor:"decoded"`
	ParentsData []hasher.Domain `cbor:"parents_data"`
}

// Proof is one partition's worth of per-challenge proofs, per spec.md §4.4's return value.
type Proof struct {
	CommDProofs         []merkletree.Proof      `cbor:"comm_d_proofs"`
	ReplicaColumnProofs []ReplicaColumnProofSet `cbor:"replica_column_proofs"`
	CommRLastProofs     []CommRLastProof        `cbor:"comm_r_last_proofs"`
	EncodingProof1      []EncodingProof         `cbor:"encoding_proof_1"`
	// EncodingProofs[i][j] is the layer-(j+2) encoding proof for challenge i.
	EncodingProofs [][]EncodingProof `cbor:"encoding_proofs"`
}
