package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-gost/blackhole/config"
)

type getConfigRequest struct {
	// output format, one of yaml|json, default is json.
	Format string `form:"format" json:"format"`
}

func getConfig(ctx *gin.Context) {
	var req getConfigRequest
	ctx.ShouldBindQuery(&req)

	if req.Format != "yaml" {
		req.Format = "json"
	}

	buf := &bytes.Buffer{}
	if err := config.WriteGlobal(buf, req.Format); err != nil {
		writeError(ctx, NewError(http.StatusInternalServerError, ErrCodeUnavailable, err.Error()))
		return
	}

	contentType := "application/json"
	if req.Format == "yaml" {
		contentType = "text/x-yaml"
	}
	ctx.Data(http.StatusOK, contentType, buf.Bytes())
}
