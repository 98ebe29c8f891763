package zigzag

import (
	"github.com/storageproofs/zigzag/column"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
)

// labelAtLayer fetches E_layer[x] out of TemporaryAux: the stored encodings for layers 1..L-1,
// or tree_r_last's leaves for the final layer L (the replica itself is not duplicated in
// TemporaryAux — tree_r_last already holds it).
func (t *TemporaryAux) labelAtLayer(x uint32, layer, layers int) hasher.Domain {
	if layer == layers {
		return t.TreeRLast.Leaf(int(x))
	}
	return labelAt(t.Encodings[layer-1], x)
}

// oddColumnAt rebuilds odd(x) = { E_1[x], E_3[x], ... } from TemporaryAux, for use by the
// prover when assembling a challenge's column proofs.
func (t *TemporaryAux) oddColumnAt(x uint32, layers int) column.Column {
	rows := make([]hasher.Domain, 0, (layers+1)/2)
	for layer := 1; layer <= layers; layer += 2 {
		rows = append(rows, t.labelAtLayer(x, layer, layers))
	}
	return column.NewOdd(x, rows)
}

// evenColumnAt rebuilds even(x) = { E_2[inv(x)], E_4[inv(x)], ... }, capped at L-1: E_L is the
// replica, not part of even(x) even when L is itself even.
func (t *TemporaryAux) evenColumnAt(g graph.Graph, x uint32, layers int) column.Column {
	ix := g.InvIndex(x)
	rows := make([]hasher.Domain, 0, (layers-1)/2)
	for layer := 2; layer < layers; layer += 2 {
		rows = append(rows, t.labelAtLayer(ix, layer, layers))
	}
	return column.NewEven(x, rows)
}

// fullColumnAt rebuilds all(x), the interleaving of odd(x) and even(x) in layer order.
func (t *TemporaryAux) fullColumnAt(g graph.Graph, x uint32, layers int) column.Column {
	odd := t.oddColumnAt(x, layers)
	even := t.evenColumnAt(g, x, layers)
	return column.NewFull(x, odd, even)
}
