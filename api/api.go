package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-gost/blackhole/trust"
	"github.com/patrickmn/go-cache"
)

type Response struct {
	Code int    `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

// TrustView is the global trust view merged from every node.
type TrustView interface {
	Scores() []trust.Entry
}

type Options struct {
	AccessLog  bool
	PathPrefix string
	Trust      TrustView
	// CacheTTL bounds how stale the global trust view may be. Default 1s.
	CacheTTL time.Duration
}

func Register(r *gin.Engine, opts *Options) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Second
	}

	r.Use(
		cors.New((cors.Config{
			AllowAllOrigins:     true,
			AllowMethods:        []string{"GET", "PUT", "OPTIONS"},
			AllowHeaders:        []string{"*"},
			AllowPrivateNetwork: true,
		})),
		gin.Recovery(),
	)
	if opts.AccessLog {
		r.Use(mwLogger())
	}

	router := r.Group("")
	if opts.PathPrefix != "" {
		router = router.Group(opts.PathPrefix)
	}

	router.GET("/config", getConfig)

	nodes := router.Group("/nodes")
	nodes.GET("", getNodeList)
	nodes.GET("/:node", getNode)
	nodes.GET("/:node/trust", getNodeTrust)
	nodes.PUT("/:node/drop-probability", updateDropProbability)

	th := &trustHandler{
		view:  opts.Trust,
		cache: cache.New(opts.CacheTTL, 10*opts.CacheTTL),
	}
	router.GET("/trust", th.getTrust)
}
