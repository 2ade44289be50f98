package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/boundless/grants-service/internal/middleware"
	"github.com/boundless/grants-service/internal/model"
	"github.com/boundless/grants-service/internal/notification"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectLogic    *logic.ProjectLogic
	voteLogic       *logic.VoteLogic
	validationLogic *logic.ValidationLogic
	campaignLogic   *logic.CampaignLogic
}

func NewProjectHandler(db *gorm.DB, validationLogic *logic.ValidationLogic, notifier *notification.Notifier) *ProjectHandler {
	return &ProjectHandler{
		projectLogic:    logic.NewProjectLogic(db),
		voteLogic:       logic.NewVoteLogic(db),
		validationLogic: validationLogic,
		campaignLogic:   logic.NewCampaignLogic(db, notifier),
	}
}

// CreateProject 提交创意
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var project model.ProjectModel
	if err := c.ShouldBindJSON(&project); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}
	project.CreatorId = middleware.UserId(c)

	if err := h.projectLogic.CreateProject(&project); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "创意提交成功，等待社区投票",
		"project": project,
	})
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	status := c.Query("status")
	category := c.Query("category")
	creatorId, _ := strconv.ParseInt(c.Query("creator_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	projects, total, err := h.projectLogic.GetProjects(status, category, creatorId, page, pageSize)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":   projects,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateProject 更新项目基本信息
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var updateData struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		BannerURL   *string `json:"banner_url"`
		LogoURL     *string `json:"logo_url"`
	}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	updates := make(map[string]interface{})
	if updateData.Title != nil {
		updates["title"] = *updateData.Title
	}
	if updateData.Description != nil {
		updates["description"] = *updateData.Description
	}
	if updateData.Category != nil {
		updates["category"] = *updateData.Category
	}
	if updateData.BannerURL != nil {
		updates["banner_url"] = *updateData.BannerURL
	}
	if updateData.LogoURL != nil {
		updates["logo_url"] = *updateData.LogoURL
	}

	if err := h.projectLogic.UpdateProject(id, middleware.UserId(c), updates); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "项目更新成功"})
}

// ToggleVote 投票/撤票，投票后顺带评估验证阈值
func (h *ProjectHandler) ToggleVote(c *gin.Context) {
	id, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	result, err := h.voteLogic.ToggleVote(id, middleware.UserId(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if result.Voted {
		if err := h.validationLogic.Evaluate(id); err != nil {
			ErrorResponse(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RejectIdea 管理员否决创意
func (h *ProjectHandler) RejectIdea(c *gin.Context) {
	id, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	if err := h.validationLogic.AdminReject(id); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "创意已否决"})
}

// LaunchCampaign 活动上线
func (h *ProjectHandler) LaunchCampaign(c *gin.Context) {
	id, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Deadline   time.Time             `json:"deadline" binding:"required"`
		Milestones []logic.MilestonePlan `json:"milestones" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	if err := h.campaignLogic.Launch(id, middleware.UserId(c), req.Deadline, req.Milestones); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "活动已上线，资金锁定处理中"})
}

// Contribute 出资
func (h *ProjectHandler) Contribute(c *gin.Context) {
	id, err := parseId(c, "id")
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	var req struct {
		Amount int64 `json:"amount" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, apperr.Wrap(apperr.ErrValidation, "%s", err.Error()))
		return
	}

	if err := h.campaignLogic.Contribute(id, req.Amount); err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "出资成功"})
}

// parseId 解析路径中的数字ID
func parseId(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Wrap(apperr.ErrValidation, "无效的ID: %s", c.Param(name))
	}
	return id, nil
}
