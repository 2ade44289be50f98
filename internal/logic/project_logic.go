package logic

import (
	"errors"
	"fmt"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/model"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject 提交创意。新项目从 IDEA_PENDING 进入社区投票。
func (p *ProjectLogic) CreateProject(project *model.ProjectModel) error {
	if err := p.validateProject(project); err != nil {
		return err
	}

	// 初始状态
	project.IdeaStatus = model.IdeaStatusPending
	project.Status = model.ProjectStatusIdeaPending
	project.RaisedAmount = 0
	project.Deadline = nil

	if err := p.db.Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	return nil
}

// GetProjects 获取项目列表，支持状态/分类/创建者过滤和分页
func (p *ProjectLogic) GetProjects(status, category string, creatorId int64, page, pageSize int) ([]model.ProjectModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := p.db.Model(&model.ProjectModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if creatorId > 0 {
		query = query.Where("creator_id = ?", creatorId)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计项目数失败: %w", err)
	}

	var projects []model.ProjectModel
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, total, nil
}

// GetProject 获取项目详情（含里程碑）
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	err := p.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	}).First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// UpdateProject 更新项目基本信息，仅限创建者
func (p *ProjectLogic) UpdateProject(id, requesterId int64, updates map[string]interface{}) error {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return fmt.Errorf("获取项目失败: %w", err)
	}
	if project.CreatorId != requesterId {
		return apperr.Wrap(apperr.ErrForbidden, "只能修改自己的项目")
	}

	// 只允许更新基本信息字段，状态字段走各自的状态机
	allowedFields := map[string]bool{
		"title": true, "description": true, "category": true,
		"banner_url": true, "logo_url": true,
	}
	for key := range updates {
		if !allowedFields[key] {
			delete(updates, key)
		}
	}
	if len(updates) == 0 {
		return apperr.Wrap(apperr.ErrValidation, "没有要更新的字段")
	}

	if err := p.db.Model(&project).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新项目失败: %w", err)
	}
	return nil
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.ProjectModel) error {
	if project.Title == "" {
		return apperr.Wrap(apperr.ErrValidation, "项目标题不能为空")
	}
	if project.FundingGoal <= 0 {
		return apperr.Wrap(apperr.ErrValidation, "筹款目标必须大于0")
	}
	if project.CreatorId == 0 {
		return apperr.Wrap(apperr.ErrValidation, "缺少创建者")
	}
	return nil
}
