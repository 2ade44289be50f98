package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/escrow"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/model"
	"github.com/boundless/grants-service/internal/notification"
	"gorm.io/gorm"
)

// CampaignLogic 活动编排。驱动项目沿
// IDEA_PENDING -> IDEA_VALIDATED -> CAMPAIGN_LIVE -> {COMPLETED | REFUNDED}
// 单向推进，任何组件都不能把项目往回挪。
type CampaignLogic struct {
	db       *gorm.DB
	notifier *notification.Notifier
}

// NewCampaignLogic 创建活动编排逻辑
func NewCampaignLogic(db *gorm.DB, notifier *notification.Notifier) *CampaignLogic {
	return &CampaignLogic{db: db, notifier: notifier}
}

// MilestonePlan 上线时声明的里程碑
type MilestonePlan struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	DueDate       time.Time `json:"due_date"`
	ReleaseAmount int64     `json:"release_amount"`
}

// Launch 活动上线：创意必须已通过验证。事务内创建有序里程碑并抢
// IDEA_VALIDATED -> CAMPAIGN_LIVE 的迁移；资金锁定在事务提交后入队，
// 从不跨链上往返持有事务。
func (c *CampaignLogic) Launch(projectId, ownerId int64, deadline time.Time, plans []MilestonePlan) error {
	var project model.ProjectModel
	if err := c.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return fmt.Errorf("获取项目失败: %w", err)
	}

	if project.CreatorId != ownerId {
		return apperr.Wrap(apperr.ErrForbidden, "只有项目创建者可以发起活动")
	}
	if project.IdeaStatus != model.IdeaStatusValidated {
		return apperr.Wrap(apperr.ErrValidation, "创意尚未通过社区验证")
	}
	if len(plans) == 0 {
		return apperr.Wrap(apperr.ErrValidation, "活动至少需要一个里程碑")
	}
	if !deadline.After(time.Now()) {
		return apperr.Wrap(apperr.ErrValidation, "截止时间必须晚于当前时间")
	}

	var total int64
	for _, p := range plans {
		if p.Title == "" {
			return apperr.Wrap(apperr.ErrValidation, "里程碑标题不能为空")
		}
		if p.ReleaseAmount <= 0 {
			return apperr.Wrap(apperr.ErrValidation, "里程碑释放金额必须大于0")
		}
		total += p.ReleaseAmount
	}
	if total != project.FundingGoal {
		return apperr.Wrap(apperr.ErrValidation, "里程碑释放金额之和(%d)必须等于筹款目标(%d)", total, project.FundingGoal)
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ProjectModel{}).
			Where("id = ? AND status = ?", projectId, model.ProjectStatusIdeaValidated).
			Updates(map[string]interface{}{
				"status":   model.ProjectStatusLive,
				"deadline": deadline,
			})
		if res.Error != nil {
			return fmt.Errorf("更新项目状态失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Wrap(apperr.ErrConflict, "活动已上线或项目状态不允许上线")
		}

		for i, p := range plans {
			milestone := model.MilestoneModel{
				ProjectId:     projectId,
				Sequence:      i + 1,
				Title:         p.Title,
				Description:   p.Description,
				DueDate:       p.DueDate,
				ReleaseAmount: p.ReleaseAmount,
				Status:        model.MilestoneStatusPending,
			}
			if err := tx.Create(&milestone).Error; err != nil {
				return fmt.Errorf("创建里程碑失败: %w", err)
			}
		}

		// 资金锁定入队和上线落在同一事务里，入队失败则整体回滚，
		// 链上调用由调度器在事务外发起
		return escrow.Enqueue(tx, model.EscrowOpLockFunds, projectId, 0, project.FundingGoal)
	})
	if err != nil {
		return err
	}

	logger.Info("Project %d launched with %d milestones, deadline %s",
		projectId, len(plans), deadline.Format(time.RFC3339))
	return nil
}

// Contribute 记录一笔出资，只对进行中的活动生效
func (c *CampaignLogic) Contribute(projectId int64, amount int64) error {
	if amount <= 0 {
		return apperr.Wrap(apperr.ErrValidation, "出资金额必须大于0")
	}

	res := c.db.Model(&model.ProjectModel{}).
		Where("id = ? AND status = ?", projectId, model.ProjectStatusLive).
		Update("raised_amount", gorm.Expr("raised_amount + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("记录出资失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Wrap(apperr.ErrValidation, "活动不在进行中，无法出资")
	}
	return nil
}

// OnMilestoneCompleted 最后一个里程碑完成后把活动推进到 COMPLETED
func (c *CampaignLogic) OnMilestoneCompleted(projectId int64) error {
	var remaining int64
	err := c.db.Model(&model.MilestoneModel{}).
		Where("project_id = ? AND status <> ?", projectId, model.MilestoneStatusCompleted).
		Count(&remaining).Error
	if err != nil {
		return fmt.Errorf("统计未完成里程碑失败: %w", err)
	}
	if remaining > 0 {
		return nil
	}

	res := c.db.Model(&model.ProjectModel{}).
		Where("id = ? AND status = ?", projectId, model.ProjectStatusLive).
		Update("status", model.ProjectStatusCompleted)
	if res.Error != nil {
		return fmt.Errorf("更新活动状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	logger.Info("Project %d campaign completed, all milestones released", projectId)

	var project model.ProjectModel
	if err := c.db.First(&project, projectId).Error; err == nil {
		if err := c.notifier.Notify(project.CreatorId, project.Id, model.NotificationMilestoneReviewed,
			"活动完成", fmt.Sprintf("项目「%s」的全部里程碑已完成，托管资金已全部释放", project.Title)); err != nil {
			logger.Error("Failed to notify campaign completion: %v", err)
		}
	}

	return nil
}

// ProcessDeadlines 截止检查：超过截止时间且未达筹款目标的活动退款。
// CAMPAIGN_LIVE -> CAMPAIGN_REFUNDED 用条件更新抢占，多个调度器并发
// 执行也只会触发一次退款。返回本次触发退款的项目数。
func (c *CampaignLogic) ProcessDeadlines(now time.Time) (int, error) {
	var projects []model.ProjectModel
	err := c.db.Where("status = ? AND deadline IS NOT NULL AND deadline < ? AND raised_amount < funding_goal",
		model.ProjectStatusLive, now).Find(&projects).Error
	if err != nil {
		return 0, fmt.Errorf("查询到期活动失败: %w", err)
	}

	refunded := 0
	for _, project := range projects {
		// 状态抢占和退款入队同一事务：REFUNDED 是终态，
		// 入队失败必须连同抢占一起回滚，留给下一轮重试
		claimed := false
		err := c.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&model.ProjectModel{}).
				Where("id = ? AND status = ?", project.Id, model.ProjectStatusLive).
				Update("status", model.ProjectStatusRefunded)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// 其他调度器已抢到
				return nil
			}
			claimed = true
			return escrow.Enqueue(tx, model.EscrowOpRefundAll, project.Id, 0, project.RaisedAmount)
		})
		if err != nil {
			logger.Error("Failed to mark project %d refunded: %v", project.Id, err)
			continue
		}
		if !claimed {
			continue
		}

		if err := c.notifier.Notify(project.CreatorId, project.Id, model.NotificationCampaignRefunded,
			"活动未达标，已启动退款",
			fmt.Sprintf("项目「%s」在截止时间前筹得%d/%d，托管资金将全额退还支持者",
				project.Title, project.RaisedAmount, project.FundingGoal)); err != nil {
			logger.Error("Failed to notify refund for project %d: %v", project.Id, err)
		}

		logger.Info("Project %d refund triggered (raised %d < goal %d)",
			project.Id, project.RaisedAmount, project.FundingGoal)
		refunded++
	}

	return refunded, nil
}
