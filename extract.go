package zigzag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/storageproofs/zigzag/encode"
	"github.com/storageproofs/zigzag/graph"
	"github.com/storageproofs/zigzag/hasher"
)

// ExtractAll is the inverse of Replicate: it runs the Decoder L times against a copy of data,
// transforming the graph forward exactly as Replicate did (so layer ℓ's graph matches the one
// Encode used at layer ℓ) and undoing each layer's relabeling, recovering the original raw
// data.
//
// Single-node extraction is intentionally not supported, per spec.md §9 Design Note 4's own
// suggested resolution ("leave as not-implemented or implement via full extract_all") — callers
// needing one node's original label must call ExtractAll and index into the result.
func ExtractAll(ctx context.Context, pp PublicParams, replicaID hasher.Domain, data []byte) ([]byte, error) {
	h := pp.Hasher
	if h == nil {
		h = hasher.Pedersen{}
	}
	logger := log.Ctx(ctx).With().Str("component", "extract").Str("hasher", h.Name()).Logger()

	graph0, err := pp.graph0()
	if err != nil {
		return nil, fmt.Errorf("extract_all: reconstructing layer-0 graph: %w", err)
	}

	n := graph0.Size()
	if uint64(len(data)) != 32*uint64(n) {
		return nil, fmt.Errorf("extract_all: data length %d does not match 32*N=%d: %w", len(data), 32*n, ErrInvalidInput)
	}
	layers := pp.LayerChallenges.Layers
	if layers < 2 {
		return nil, fmt.Errorf("extract_all: layer count %d: %w", layers, ErrInvalidInput)
	}

	// Walk forward through the same graph sequence Replicate used, to collect graph_0..graph_{L-1}.
	graphs := make([]graph.Graph, layers)
	cur := graph0
	for layer := 0; layer < layers; layer++ {
		graphs[layer] = cur
		cur = cur.Zigzag()
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	for layer := layers - 1; layer >= 0; layer-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := encode.Decode(graphs[layer], replicaID, buf); err != nil {
			return nil, fmt.Errorf("extract_all: decoding layer %d: %w", layer, err)
		}
		logger.Debug().Int("layer", layer+1).Int("of", layers).Msg("decoded layer")
	}

	return buf, nil
}
