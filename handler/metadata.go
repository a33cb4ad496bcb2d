package handler

import (
	"math/rand/v2"

	mdata "github.com/go-gost/core/metadata"
	mdutil "github.com/go-gost/core/metadata/util"
)

type metadata struct {
	nodes int
	seed  int
}

func (h *Handler) parseMetadata(md mdata.Metadata) (err error) {
	const (
		dropProbability = "dropProbability"
		nodes           = "nodes"
		seed            = "seed"
	)

	if md == nil {
		return
	}

	if md.IsExists(dropProbability) {
		// an invalid value keeps the current probability.
		if err = h.SetDropProbability(mdutil.GetFloat(md, dropProbability)); err != nil {
			return
		}
	}

	h.md.nodes = mdutil.GetInt(md, nodes)
	if h.ledger != nil && h.md.nodes > 0 {
		h.ledger.Init(h.md.nodes)
	}

	if h.md.seed = mdutil.GetInt(md, seed); h.md.seed != 0 && h.options.Rand == nil {
		h.rand = rand.New(rand.NewPCG(uint64(h.md.seed), uint64(h.options.ID))).Float64
	}

	return
}
