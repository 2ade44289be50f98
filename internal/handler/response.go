package handler

import (
	"github.com/boundless/grants-service/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination 分页信息结构
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// ErrorResponse 错误响应，状态码按错误分类映射
func ErrorResponse(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), Response{
		Success: false,
		Message: err.Error(),
	})
}
