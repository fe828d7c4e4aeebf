package controller

import (
	"memodeck_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// idParam 先取路径参数 :id，旧接口则从查询参数读取
func idParam(ctx *gin.Context, queryKey string) uint {
	if v := ctx.Param("id"); v != "" {
		return util.MustParseUint(v)
	}
	return util.MustParseUint(ctx.Query(queryKey))
}

// currentUserID 认证中间件之后调用，未登录时已写入 401
func currentUserID(ctx *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return claims.UserID, true
}

func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		util.BadRequest(ctx, "Invalid JSON data")
		return false
	}
	return true
}
