package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/middleware"
)

// Response 成功响应结构
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
	})
}

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// currentUser 已认证玩家ID，RequireAuth之后必然存在
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, apperrors.New(apperrors.ErrAuthentication))
	}
	return userID, ok
}

// pathID 解析路径中的正整数ID
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Newf(apperrors.ErrInvalidParam, "%s=%s", name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

func bindError(err error) error {
	return apperrors.Wrap(err, apperrors.ErrInvalidParam, err.Error())
}
