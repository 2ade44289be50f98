package handler

import (
	"net/http"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/boundless/grants-service/internal/middleware"
	"github.com/boundless/grants-service/internal/model"
	"github.com/gin-gonic/gin"
)

type MilestoneHandler struct {
	milestoneLogic *logic.MilestoneLogic
}

func NewMilestoneHandler(milestoneLogic *logic.MilestoneLogic) *MilestoneHandler {
	return &MilestoneHandler{milestoneLogic: milestoneLogic}
}

// GetProjectMilestones 获取项目里程碑
func (h *MilestoneHandler) GetProjectMilestones(c *gin.Context) {
	projectId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	milestones, err := h.milestoneLogic.GetProjectMilestones(projectId)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// CreateMilestone 追加里程碑（管理端）
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	var milestone model.MilestoneModel
	if err := c.ShouldBindJSON(&milestone); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	if err := h.milestoneLogic.CreateMilestone(&milestone); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"milestone": milestone})
}

// UpdateStatus 里程碑评审（管理端）
func (h *MilestoneHandler) UpdateStatus(c *gin.Context) {
	milestoneId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	err = h.milestoneLogic.UpdateStatus(milestoneId,
		model.MilestoneStatus(req.Status), middleware.UserId(c), req.Reason)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "里程碑状态已更新"})
}

// Resubmit 被拒绝里程碑的重新提交
func (h *MilestoneHandler) Resubmit(c *gin.Context) {
	milestoneId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Attachments []model.AttachmentModel `json:"attachments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	if err := h.milestoneLogic.Resubmit(milestoneId, middleware.UserId(c), req.Attachments); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "里程碑已重新提交，等待评审"})
}

// UpdateProgress 更新进度百分比
func (h *MilestoneHandler) UpdateProgress(c *gin.Context) {
	milestoneId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Progress *int `json:"progress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	if err := h.milestoneLogic.UpdateProgress(milestoneId, middleware.UserId(c), *req.Progress); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "进度已更新"})
}

// GetAttachments 查看附件，与里程碑状态无关
func (h *MilestoneHandler) GetAttachments(c *gin.Context) {
	milestoneId, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	attachments, err := h.milestoneLogic.GetAttachments(milestoneId)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": attachments})
}
