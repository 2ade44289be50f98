package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 允许的图片类型
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type UploadHandler struct {
	cfg config.UploadConfig
}

func NewUploadHandler(cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

// UploadImage 横幅/Logo上传。只接受 JPEG/PNG，大小受配置限制。
func (h *UploadHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "缺少上传文件"))
		return
	}

	if file.Size > h.cfg.MaxImageSize {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation,
			"文件大小超过限制(%d字节)", h.cfg.MaxImageSize))
		return
	}

	contentType := file.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation,
			"不支持的文件类型: %s，仅支持JPEG/PNG", contentType))
		return
	}

	// 嗅探真实文件头，防止伪造 Content-Type
	src, err := file.Open()
	if err != nil {
		ErrorResponse(c, fmt.Errorf("读取上传文件失败: %w", err))
		return
	}
	head := make([]byte, 512)
	n, _ := src.Read(head)
	src.Close()
	detected := http.DetectContentType(head[:n])
	if !strings.HasPrefix(detected, "image/") {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "文件内容不是有效图片"))
		return
	}

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		ErrorResponse(c, fmt.Errorf("创建上传目录失败: %w", err))
		return
	}

	fileName := uuid.NewString() + ext
	dst := filepath.Join(h.cfg.Dir, fileName)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		ErrorResponse(c, fmt.Errorf("保存文件失败: %w", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"file_name": fileName,
		"file_url":  "/uploads/" + fileName,
		"file_size": file.Size,
		"file_type": contentType,
	})
}
