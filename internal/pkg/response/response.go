package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误类别
const (
	KindParamError  = "param"
	KindBadRequest  = "bad_request"
	KindTooLarge    = "too_large"
	KindServerError = "server"
)

// 错误类别对应的默认消息
var kindMessages = map[string]string{
	KindParamError:  "参数错误",
	KindBadRequest:  "请求格式错误",
	KindTooLarge:    "文件过大",
	KindServerError: "服务器内部错误",
}

// 错误类别对应的 HTTP 状态码，未列出的为 200
var kindStatus = map[string]int{
	KindBadRequest: http.StatusBadRequest,
	KindTooLarge:   http.StatusRequestEntityTooLarge,
}

// Response 失败响应结构
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Success 成功响应，data 的字段与 success 平铺在同一层
func Success(c *gin.Context, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// JSON 原样输出，不附加 success 字段
func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// ErrorOnly 只包含 error 字段的响应（诊断接口使用）
func ErrorOnly(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"error": message})
}

// Error 错误响应
func Error(c *gin.Context, kind string, message string) {
	if message == "" {
		message = kindMessages[kind]
	}
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusOK
	}
	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}

// ParamError 参数校验失败
func ParamError(c *gin.Context, message string) {
	Error(c, KindParamError, message)
}

// BadRequest 请求体无法解析（400）
func BadRequest(c *gin.Context, message string) {
	Error(c, KindBadRequest, message)
}

// TooLarge 请求体超过上限（413）
func TooLarge(c *gin.Context, message string) {
	Error(c, KindTooLarge, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, KindServerError, message)
}
