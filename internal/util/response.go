package util

import (
	"errors"
	"memodeck_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构，业务数据与 success 平铺在同一层
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func write(c *gin.Context, code int, success bool, message string, data gin.H) {
	body := gin.H{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(code, body)
}

func Success(c *gin.Context, data gin.H) {
	write(c, http.StatusOK, true, "", data)
}

func SuccessMessage(c *gin.Context, message string, data gin.H) {
	write(c, http.StatusOK, true, message, data)
}

func Created(c *gin.Context, message string, data gin.H) {
	write(c, http.StatusCreated, true, message, data)
}

func Error(c *gin.Context, code int, message string) {
	write(c, code, false, message, nil)
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	InternalServerError(c)
}

// HandleError 将 service 层错误映射为响应
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		LogInternalError(c, err)
		return
	}

	switch appErr.Kind {
	case KindValidation, KindNotFound, KindConflict:
		BadRequest(c, appErr.Message)
	case KindUnauthorized:
		Error(c, http.StatusUnauthorized, appErr.Message)
	case KindTooManyRequests:
		write(c, http.StatusTooManyRequests, false, appErr.Message, appErr.Details)
	default:
		logger.Log.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		Error(c, http.StatusInternalServerError, appErr.Message)
	}
}
