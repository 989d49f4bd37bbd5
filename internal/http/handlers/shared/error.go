package shared

import (
	"github.com/storecase-identity/internal/http/response"
	"github.com/storecase-identity/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按消息键返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithData(c, code, key, nil, err)
}

// RespondErrorWithData 返回带数据的错误响应（如锁定截止时间）。
func RespondErrorWithData(c *gin.Context, code int, key string, data interface{}, err error) {
	appErr := response.NewAppError(code, key, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"key", appErr.Key,
			"error", err,
		)
	}
	if data == nil {
		response.Error(c, appErr.Code, appErr.Message())
		return
	}
	response.ErrorWithData(c, appErr.Code, appErr.Message(), data)
}
