package zigzag

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/storageproofs/zigzag/column"
	"github.com/storageproofs/zigzag/encode"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
	"github.com/storageproofs/zigzag/merkletree"
)

// Replicate implements spec.md §4.3's ten-step algorithm: run the Encoder L times with the
// graph zigzagged between layers, commit to the raw data, the per-position column hashes, and
// the final layer, and return the public Tau alongside the persistent and temporary aux state.
//
// data is encoded in place and becomes the replica on return (step 5). If precomputedTreeD is
// nil, a tree over the original data is built before encoding destroys it (step 1). The graph
// and hasher are derived from pp (pp.DRG and pp.Hasher respectively), never passed separately,
// so a PublicParams value alone is enough to reproduce a replication.
func Replicate(ctx context.Context, pp PublicParams, replicaID hasher.Domain, data []byte, precomputedTreeD *merkletree.Tree) (Tau, PersistentAux, TemporaryAux, error) {
	h := pp.Hasher
	if h == nil {
		h = hasher.Pedersen{}
	}
	var logger zerolog.Logger = log.Ctx(ctx).With().Str("component", "replicator").Str("hasher", h.Name()).Logger()

	graph0, err := pp.graph0()
	if err != nil {
		return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: reconstructing layer-0 graph: %w", err)
	}

	n := graph0.Size()
	if uint64(len(data)) != 32*uint64(n) {
		return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: data length %d does not match 32*N=%d: %w", len(data), 32*n, ErrInvalidInput)
	}
	layers := pp.LayerChallenges.Layers
	if layers < 2 {
		return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: layer count %d: %w", layers, ErrInvalidInput)
	}

	treeD := precomputedTreeD
	if treeD == nil {
		leaves, err := domainsFromBytes(data)
		if err != nil {
			return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: decoding raw data leaves: %w", err)
		}
		treeD, err = merkletree.Build(ctx, h, leaves)
		if err != nil {
			return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: building tree_d: %w", err)
		}
	}

	encodings := make([][]byte, 0, layers-1)
	buf := make([]byte, len(data))
	copy(buf, data)

	current := graph0
	for layer := 0; layer < layers; layer++ {
		if err := ctx.Err(); err != nil {
			return Tau{}, PersistentAux{}, TemporaryAux{}, err
		}
		if err := encode.Encode(current, replicaID, buf); err != nil {
			return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: encoding layer %d: %w", layer, err)
		}
		logger.Debug().Int("layer", layer+1).Int("of", layers).Msg("encoded layer")

		current = current.Zigzag()
		if layer < layers-1 {
			layerBuf := make([]byte, len(buf))
			copy(layerBuf, buf)
			encodings = append(encodings, layerBuf)
		}
	}

	if len(encodings) != layers-1 {
		return Tau{}, PersistentAux{}, TemporaryAux{}, &FatalError{Msg: fmt.Sprintf("encodings length %d != layers-1=%d", len(encodings), layers-1)}
	}

	copy(data, buf)

	os := make([]hasher.Domain, n)
	es := make([]hasher.Domain, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := uint32(0); i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			odd := oddColumnAt(i, encodings, buf, layers)
			even := evenColumnAt(graph0, i, encodings, buf, layers)
			os[i] = odd.Hash(h)
			es[i] = even.Hash(h)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: computing column hashes: %w", err)
	}

	cs := make([]hasher.Domain, n)
	for i := uint32(0); i < n; i++ {
		cs[i] = column.HashFull(h, os[i], es[i])
	}

	var treeC, treeRLast *merkletree.Tree
	bg, bctx := errgroup.WithContext(ctx)
	bg.Go(func() error {
		var err error
		treeC, err = merkletree.Build(bctx, h, cs)
		return err
	})
	bg.Go(func() error {
		leaves, err := domainsFromBytes(buf)
		if err != nil {
			return fmt.Errorf("decoding replica leaves: %w", err)
		}
		treeRLast, err = merkletree.Build(bctx, h, leaves)
		return err
	})
	if err := bg.Wait(); err != nil {
		return Tau{}, PersistentAux{}, TemporaryAux{}, fmt.Errorf("replicate: building tree_c/tree_r_last: %w", err)
	}

	commD := treeD.Root()
	commC := treeC.Root()
	commRLast := treeRLast.Root()
	commR := h.Hash2(commC, commRLast)

	logger.Info().
		Str("comm_d", fmt.Sprintf("%x", commD.Bytes())).
		Str("comm_r", fmt.Sprintf("%x", commR.Bytes())).
		Msg("replication complete")

	tau := Tau{CommD: commD, CommR: commR}
	pAux := PersistentAux{CommC: commC, CommRLast: commRLast}
	tAux := TemporaryAux{
		Encodings: encodings,
		Os:        os,
		Es:        es,
		TreeD:     treeD,
		TreeC:     treeC,
		TreeRLast: treeRLast,
	}
	return tau, pAux, tAux, nil
}

// domainsFromBytes reinterprets a 32*N byte buffer as N Domain leaves.
func domainsFromBytes(buf []byte) ([]hasher.Domain, error) {
	if len(buf)%32 != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of 32: %w", len(buf), ErrInvalidInput)
	}
	n := len(buf) / 32
	out := make([]hasher.Domain, n)
	for i := 0; i < n; i++ {
		if err := out[i].SetBytes(buf[32*i : 32*i+32]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func labelAt(buf []byte, x uint32) hasher.Domain {
	var d hasher.Domain
	off := 32 * uint64(x)
	copy(d[:], buf[off:off+32])
	return d
}

// oddColumnAt assembles odd(x) = { E_1[x], E_3[x], E_5[x], ... } from the stored encodings and
// the final replica buffer (which holds E_L, the last available layer).
func oddColumnAt(x uint32, encodings [][]byte, replica []byte, layers int) column.Column {
	rows := make([]hasher.Domain, 0, (layers+1)/2)
	for layer := 1; layer <= layers; layer += 2 {
		rows = append(rows, labelAtLayer(x, layer, encodings, replica, layers))
	}
	return column.NewOdd(x, rows)
}

// evenColumnAt assembles even(x) = { E_2[inv(x)], E_4[inv(x)], ... }, capped at L-1: E_L is the
// replica, not part of even(x) even when L is itself even.
func evenColumnAt(g graph.Graph, x uint32, encodings [][]byte, replica []byte, layers int) column.Column {
	ix := g.InvIndex(x)
	rows := make([]hasher.Domain, 0, (layers-1)/2)
	for layer := 2; layer < layers; layer += 2 {
		rows = append(rows, labelAtLayer(ix, layer, encodings, replica, layers))
	}
	return column.NewEven(x, rows)
}

// labelAtLayer fetches E_layer[x]: encodings[layer-1] for layer < layers (1-indexed storage of
// E_1..E_{L-1}), or the final replica buffer for layer == layers (E_L).
func labelAtLayer(x uint32, layer int, encodings [][]byte, replica []byte, layers int) hasher.Domain {
	if layer == layers {
		return labelAt(replica, x)
	}
	return labelAt(encodings[layer-1], x)
}
