package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-gost/blackhole/config"
	"github.com/go-gost/blackhole/handler"
	"github.com/go-gost/blackhole/observer/stats"
	"github.com/go-gost/blackhole/registry"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/blackhole/trust"
)

type nodeProtocol interface {
	Mode() handler.Mode
	DropProbability() float64
	SetDropProbability(p float64) error
	Stats() *stats.Stats
	Snapshot() trust.Snapshot
}

type nodeInfo struct {
	Name            string           `json:"name"`
	Node            int              `json:"node"`
	Handler         string           `json:"handler"`
	DropProbability float64          `json:"dropProbability"`
	Forwarded       uint64           `json:"forwarded"`
	Dropped         uint64           `json:"dropped"`
	Blacklist       []routing.NodeID `json:"blacklist,omitempty"`
}

type nodeList struct {
	Count int         `json:"count"`
	List  []*nodeInfo `json:"list"`
}

func newNodeInfo(name string, p nodeProtocol) *nodeInfo {
	info := &nodeInfo{
		Name:            name,
		Node:            -1,
		Handler:         p.Mode().String(),
		DropProbability: p.DropProbability(),
		Blacklist:       p.Snapshot().Blacklist,
	}
	if st := p.Stats(); st != nil {
		info.Forwarded = st.Get(stats.KindForwarded)
		info.Dropped = st.Get(stats.KindDropped)
	}
	for _, pc := range config.Global().Protocols {
		if pc != nil && pc.Name == name {
			info.Node = pc.Node
			break
		}
	}
	return info
}

func lookupNode(ctx *gin.Context) (string, nodeProtocol, bool) {
	name := strings.TrimSpace(ctx.Param("node"))
	p, ok := registry.NodeRegistry().Get(name).(nodeProtocol)
	if !ok {
		writeError(ctx, NewError(http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("node %s not found", name)))
		return name, nil, false
	}
	return name, p, true
}

func getNodeList(ctx *gin.Context) {
	list := nodeList{List: []*nodeInfo{}}
	for _, name := range registry.NodeRegistry().Names() {
		if p, ok := registry.NodeRegistry().Get(name).(nodeProtocol); ok {
			list.List = append(list.List, newNodeInfo(name, p))
		}
	}
	list.Count = len(list.List)

	ctx.JSON(http.StatusOK, Response{
		Data: list,
	})
}

func getNode(ctx *gin.Context) {
	name, p, ok := lookupNode(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, Response{
		Data: newNodeInfo(name, p),
	})
}

func getNodeTrust(ctx *gin.Context) {
	name, p, ok := lookupNode(ctx)
	if !ok {
		return
	}
	if p.Mode() != handler.ModeTrust {
		writeError(ctx, NewError(http.StatusBadRequest, ErrCodeUnsupported, fmt.Sprintf("node %s keeps no trust ledger", name)))
		return
	}
	ctx.JSON(http.StatusOK, Response{
		Data: p.Snapshot(),
	})
}

type updateDropProbabilityRequest struct {
	Value *float64 `json:"value"`
}

func updateDropProbability(ctx *gin.Context) {
	name, p, ok := lookupNode(ctx)
	if !ok {
		return
	}

	var req updateDropProbabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Value == nil {
		writeError(ctx, ErrInvalid)
		return
	}
	if err := p.SetDropProbability(*req.Value); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, routing.ErrInvalidConfiguration) {
			code = http.StatusBadRequest
		}
		writeError(ctx, NewError(code, ErrCodeInvalid, err.Error()))
		return
	}

	config.OnUpdate(func(c *config.Config) error {
		for _, pc := range c.Protocols {
			if pc == nil || pc.Name != name {
				continue
			}
			if pc.Metadata == nil {
				pc.Metadata = make(map[string]any)
			}
			pc.Metadata["dropprobability"] = *req.Value
		}
		return nil
	})

	ctx.JSON(http.StatusOK, Response{
		Msg: "OK",
	})
}
