package logic

import (
	"errors"
	"fmt"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/model"
	"github.com/boundless/grants-service/internal/notification"
	"gorm.io/gorm"
)

// ValidationLogic 创意验证门。票数达到阈值时把创意从 PENDING 翻转为
// VALIDATED；翻转通过条件更新完成，天然幂等，通知只在抢到翻转的那次发出。
type ValidationLogic struct {
	db        *gorm.DB
	threshold int64
	notifier  *notification.Notifier
}

// NewValidationLogic 创建验证门
func NewValidationLogic(db *gorm.DB, threshold int64, notifier *notification.Notifier) *ValidationLogic {
	return &ValidationLogic{db: db, threshold: threshold, notifier: notifier}
}

// Evaluate 评估项目是否达到验证阈值。对已 VALIDATED/REJECTED 的项目是无操作。
func (v *ValidationLogic) Evaluate(projectId int64) error {
	var count int64
	if err := v.db.Model(&model.VoteModel{}).Where("project_id = ?", projectId).Count(&count).Error; err != nil {
		return fmt.Errorf("统计票数失败: %w", err)
	}

	if count < v.threshold {
		return nil
	}

	// 条件更新抢翻转：只有一个请求能把 pending 改成 validated
	res := v.db.Model(&model.ProjectModel{}).
		Where("id = ? AND idea_status = ?", projectId, model.IdeaStatusPending).
		Updates(map[string]interface{}{
			"idea_status": model.IdeaStatusValidated,
			"status":      model.ProjectStatusIdeaValidated,
		})
	if res.Error != nil {
		return fmt.Errorf("更新验证状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// 已经翻转过或已被否决
		return nil
	}

	logger.Info("Project %d validated with %d votes (threshold %d)", projectId, count, v.threshold)

	var project model.ProjectModel
	if err := v.db.First(&project, projectId).Error; err != nil {
		return fmt.Errorf("获取项目失败: %w", err)
	}

	err := v.notifier.Notify(project.CreatorId, project.Id, model.NotificationProjectValidated,
		"创意通过社区验证",
		fmt.Sprintf("项目「%s」已获得%d票，通过社区验证，可以发起众筹活动了", project.Title, count))
	if err != nil {
		logger.Error("Failed to notify project %d validation: %v", projectId, err)
	}

	return nil
}

// AdminReject 管理员否决创意，只能从 PENDING 出发，不可逆
func (v *ValidationLogic) AdminReject(projectId int64) error {
	var project model.ProjectModel
	if err := v.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return fmt.Errorf("获取项目失败: %w", err)
	}

	res := v.db.Model(&model.ProjectModel{}).
		Where("id = ? AND idea_status = ?", projectId, model.IdeaStatusPending).
		Update("idea_status", model.IdeaStatusRejected)
	if res.Error != nil {
		return fmt.Errorf("否决创意失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Wrap(apperr.ErrConflict, "创意已处于终态，无法否决")
	}

	logger.Info("Project %d idea rejected by admin", projectId)
	return nil
}

// Threshold 当前验证阈值
func (v *ValidationLogic) Threshold() int64 {
	return v.threshold
}
