package middleware

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
)

// AbortWithError 以统一的错误结构结束请求，非AppError按未知错误处理
func AbortWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr, GetRequestID(c)))
}
