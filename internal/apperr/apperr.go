package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// 业务错误分类，handler 层据此映射HTTP状态码
var (
	ErrValidation      = errors.New("validation error")       // 参数错误 -> 400
	ErrForbidden       = errors.New("forbidden")              // 权限不足 -> 403
	ErrNotFound        = errors.New("not found")              // 资源不存在 -> 404
	ErrConflict        = errors.New("conflict")               // 并发冲突 -> 409
	ErrExternalService = errors.New("external service error") // 外部服务失败 -> 502
)

// Wrap 在分类错误上附加具体描述
func Wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// HTTPStatus 错误分类到HTTP状态码的映射
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
