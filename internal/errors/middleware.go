package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrorHandlerMiddleware 为每个请求分配请求 ID，并把 handler 通过
// c.Error 上报的第一个错误转换为统一的 JSON 响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("RequestID", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		Err(c, c.Errors[0].Err)
		c.Abort()
	}
}

// RecoveryMiddleware 捕获 handler 中的 panic，记录日志并返回 500
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			requestID := c.GetString("RequestID")

			var err *AppError
			if cause, ok := r.(error); ok {
				err = Internal("panic recovered", cause).WithRequestID(requestID)
			} else {
				err = Internal(fmt.Sprintf("panic recovered: %v", r), nil).WithRequestID(requestID)
			}

			log.Error().Str("request_id", requestID).Msg(err.Error())

			c.JSON(http.StatusInternalServerError, err)
			c.Abort()
		}()

		c.Next()
	}
}
