package handler

import (
	"net/http"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/boundless/grants-service/internal/middleware"
	"github.com/boundless/grants-service/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentHandler struct {
	commentLogic *logic.CommentLogic
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{
		commentLogic: logic.NewCommentLogic(db),
	}
}

// GetComments 获取项目评论
func (h *CommentHandler) GetComments(c *gin.Context) {
	projectId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	comments, err := h.commentLogic.GetProjectComments(projectId)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddComment 发表评论或回复
func (h *CommentHandler) AddComment(c *gin.Context) {
	projectId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required"`
		ParentId *int64 `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	comment, err := h.commentLogic.AddComment(projectId, middleware.UserId(c), req.Content, req.ParentId)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// UpdateComment 编辑评论
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentId, err := parseId(c, "comment_id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	if err := h.commentLogic.UpdateComment(commentId, middleware.UserId(c), req.Content); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "评论已更新"})
}

// DeleteComment 删除评论
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentId, err := parseId(c, "comment_id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if err := h.commentLogic.DeleteComment(commentId, middleware.UserId(c)); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "评论已删除"})
}

// ReactToComment 点赞/点踩
func (h *CommentHandler) ReactToComment(c *gin.Context) {
	commentId, err := parseId(c, "comment_id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	result, err := h.commentLogic.ReactToComment(commentId, middleware.UserId(c), model.ReactionType(req.Type))
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
