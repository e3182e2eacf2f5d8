// Package response 提供统一的 HTTP JSON 响应封装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// ErrorWithStatus 返回带 HTTP 状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, message string, detail string) {
	body := Body{
		Code:    status,
		Message: message,
	}
	if detail != "" {
		body.Data = gin.H{"detail": detail}
	}
	c.JSON(status, body)
}

// BadRequest 返回 400 错误响应
func BadRequest(c *gin.Context, message string) {
	ErrorWithStatus(c, http.StatusBadRequest, message, "")
}

// InternalError 返回 500 错误响应
func InternalError(c *gin.Context, message string) {
	ErrorWithStatus(c, http.StatusInternalServerError, message, "")
}
