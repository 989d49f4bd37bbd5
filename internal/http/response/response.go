package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const requestIDKey = "request_id"

// Response 统一响应结构，HTTP 状态码固定为 200，业务结果看 status_code
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

func write(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{StatusCode: code, Msg: msg, Data: data})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, CodeOK, msg, data)
}

// Error 错误响应，data 中附带 request_id 便于排查
func Error(c *gin.Context, code int, msg string) {
	write(c, code, msg, withRequestID(c, nil))
}

// ErrorWithData 错误响应（带数据，如 retry_at）
func ErrorWithData(c *gin.Context, code int, msg string, data interface{}) {
	write(c, code, msg, withRequestID(c, data))
}

// Unauthorized 401 响应
func Unauthorized(c *gin.Context, msg string) {
	Error(c, CodeUnauthorized, msg)
}

// TooManyRequests 429 响应
func TooManyRequests(c *gin.Context, msg string) {
	Error(c, CodeTooManyRequests, msg)
}

func withRequestID(c *gin.Context, data interface{}) interface{} {
	requestID := ""
	if c != nil {
		requestID = c.GetString(requestIDKey)
	}
	if requestID == "" {
		return data
	}

	var fields map[string]interface{}
	switch v := data.(type) {
	case nil:
		return gin.H{requestIDKey: requestID}
	case gin.H:
		fields = v
	case map[string]interface{}:
		fields = v
	default:
		return gin.H{requestIDKey: requestID, "data": data}
	}
	if _, exists := fields[requestIDKey]; !exists {
		fields[requestIDKey] = requestID
	}
	return fields
}
