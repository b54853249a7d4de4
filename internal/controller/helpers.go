package controller

import (
	"aims_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// parseIDParam 解析路径中的数字 ID，非法时写入 400 并返回 false
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseUintQuery 解析查询参数中的数字，缺省或非法返回 0
func parseUintQuery(ctx *gin.Context, name string) uint {
	return util.MustParseUint(ctx.Query(name))
}
