package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-gost/blackhole/trust"
	"github.com/patrickmn/go-cache"
)

const trustCacheKey = "trust"

type trustList struct {
	Count int           `json:"count"`
	List  []trust.Entry `json:"list"`
}

type trustHandler struct {
	view  TrustView
	cache *cache.Cache
}

func (h *trustHandler) getTrust(ctx *gin.Context) {
	if h.view == nil {
		writeError(ctx, NewError(http.StatusServiceUnavailable, ErrCodeUnavailable, "trust view unavailable"))
		return
	}

	var list trustList
	if v, ok := h.cache.Get(trustCacheKey); ok {
		list = v.(trustList)
	} else {
		list.List = h.view.Scores()
		if list.List == nil {
			list.List = []trust.Entry{}
		}
		list.Count = len(list.List)
		h.cache.SetDefault(trustCacheKey, list)
	}

	ctx.JSON(http.StatusOK, Response{
		Data: list,
	})
}
