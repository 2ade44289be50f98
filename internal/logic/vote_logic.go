package logic

import (
	"errors"
	"fmt"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/model"
	"gorm.io/gorm"
)

// VoteLogic 创意投票业务逻辑
type VoteLogic struct {
	db *gorm.DB
}

// NewVoteLogic 创建投票业务逻辑
func NewVoteLogic(db *gorm.DB) *VoteLogic {
	return &VoteLogic{db: db}
}

// VoteResult 投票结果
type VoteResult struct {
	ProjectId int64 `json:"project_id"`
	VoteCount int64 `json:"vote_count"`
	Voted     bool  `json:"voted"`
}

// ToggleVote 投票/撤票开关。不做先查后写：先尝试删除，删不到再插入，
// 插入撞唯一约束说明并发请求已经投过（比如双击），按已投票处理，
// 不把冲突暴露给调用方。
func (v *VoteLogic) ToggleVote(projectId, userId int64) (*VoteResult, error) {
	var project model.ProjectModel
	if err := v.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}

	// 已否决的创意不再接受投票
	if project.IdeaStatus == model.IdeaStatusRejected {
		return nil, apperr.Wrap(apperr.ErrValidation, "创意已被否决，不再接受投票")
	}

	voted, err := v.toggle(projectId, userId)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := v.db.Model(&model.VoteModel{}).Where("project_id = ?", projectId).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("统计票数失败: %w", err)
	}

	return &VoteResult{ProjectId: projectId, VoteCount: count, Voted: voted}, nil
}

// toggle 返回本次操作后用户是否处于已投票状态
func (v *VoteLogic) toggle(projectId, userId int64) (bool, error) {
	// 先删：删到了说明之前投过，本次是撤票
	res := v.db.Where("project_id = ? AND user_id = ?", projectId, userId).Delete(&model.VoteModel{})
	if res.Error != nil {
		return false, fmt.Errorf("撤票失败: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	// 没删到说明之前没投，本次是投票
	vote := model.VoteModel{ProjectId: projectId, UserId: userId}
	if err := v.db.Create(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发请求抢先插入，回读现状即可
			var existing int64
			if err := v.db.Model(&model.VoteModel{}).
				Where("project_id = ? AND user_id = ?", projectId, userId).
				Count(&existing).Error; err != nil {
				return false, fmt.Errorf("回读投票状态失败: %w", err)
			}
			return existing > 0, nil
		}
		return false, fmt.Errorf("投票失败: %w", err)
	}

	return true, nil
}

// HasVoted 查询用户是否已投票
func (v *VoteLogic) HasVoted(projectId, userId int64) (bool, error) {
	var count int64
	err := v.db.Model(&model.VoteModel{}).
		Where("project_id = ? AND user_id = ?", projectId, userId).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询投票状态失败: %w", err)
	}
	return count > 0, nil
}

// CountVotes 统计项目票数
func (v *VoteLogic) CountVotes(projectId int64) (int64, error) {
	var count int64
	err := v.db.Model(&model.VoteModel{}).Where("project_id = ?", projectId).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计票数失败: %w", err)
	}
	return count, nil
}
