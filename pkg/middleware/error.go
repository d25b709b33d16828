package middleware

import (
	"errors"

	"nearbyu-loyalty/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last handler error. errutil errors keep their status,
// anything else becomes a 500 without leaking the cause.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var be errutil.BaseError
		if errors.As(last.Err, &be) {
			if be.Code.HTTPStatus() >= 500 {
				zap.L().Error("request failed",
					zap.String("request_id", GetRequestID(c.Request.Context())),
					zap.Error(last.Err))
			}
			c.JSON(be.Code.HTTPStatus(), be.JSON())
			return
		}

		zap.L().Error("unhandled error",
			zap.String("request_id", GetRequestID(c.Request.Context())),
			zap.Error(last.Err))
		internal := errutil.BaseError{Code: errutil.StatusInternal, Message: "internal error"}
		c.JSON(internal.Code.HTTPStatus(), internal.JSON())
	}
}
