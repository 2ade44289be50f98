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

// allowedTransitions 里程碑状态机的合法边。COMPLETED 是终态；
// REJECTED 只能通过重新提交回到 IN_PROGRESS。
var allowedTransitions = map[model.MilestoneStatus][]model.MilestoneStatus{
	model.MilestoneStatusPending:    {model.MilestoneStatusInProgress, model.MilestoneStatusRejected},
	model.MilestoneStatusInProgress: {model.MilestoneStatusCompleted, model.MilestoneStatusRejected},
}

// MilestoneLogic 里程碑业务逻辑
type MilestoneLogic struct {
	db       *gorm.DB
	notifier *notification.Notifier
	campaign *CampaignLogic
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB, notifier *notification.Notifier, campaign *CampaignLogic) *MilestoneLogic {
	return &MilestoneLogic{db: db, notifier: notifier, campaign: campaign}
}

// CreateMilestone 为进行中的活动追加里程碑（管理端）
func (m *MilestoneLogic) CreateMilestone(milestone *model.MilestoneModel) error {
	if err := m.validateMilestone(milestone); err != nil {
		return err
	}

	var project model.ProjectModel
	if err := m.db.First(&project, milestone.ProjectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return fmt.Errorf("获取项目失败: %w", err)
	}

	// 序号排在现有里程碑之后
	var maxSeq int
	m.db.Model(&model.MilestoneModel{}).
		Where("project_id = ?", milestone.ProjectId).
		Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq)
	milestone.Sequence = maxSeq + 1
	milestone.Status = model.MilestoneStatusPending

	if err := m.db.Create(milestone).Error; err != nil {
		return fmt.Errorf("创建里程碑失败: %w", err)
	}

	return nil
}

// GetProjectMilestones 获取项目里程碑，按声明顺序返回
func (m *MilestoneLogic) GetProjectMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	err := m.db.Preload("Attachments").
		Where("project_id = ?", projectId).
		Order("sequence ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("获取里程碑列表失败: %w", err)
	}
	return milestones, nil
}

// UpdateStatus 里程碑状态迁移。迁移用条件更新保护：两个评审员同时操作
// 时只有一个成功，另一个拿到冲突错误。通过 COMPLETED 的迁移在事务外
// 把托管释放写入调用台账。
func (m *MilestoneLogic) UpdateStatus(milestoneId int64, newStatus model.MilestoneStatus, reviewerId int64, reason string) error {
	milestone, err := m.getMilestone(milestoneId)
	if err != nil {
		return err
	}

	if !transitionAllowed(milestone.Status, newStatus) {
		return apperr.Wrap(apperr.ErrValidation, "非法的状态迁移: %s -> %s", milestone.Status, newStatus)
	}
	if newStatus == model.MilestoneStatusRejected && reason == "" {
		return apperr.Wrap(apperr.ErrValidation, "拒绝里程碑必须填写原因")
	}

	updates := map[string]interface{}{
		"status":      newStatus,
		"reviewer_id": reviewerId,
	}
	switch newStatus {
	case model.MilestoneStatusCompleted:
		now := time.Now()
		updates["completed_date"] = &now
		updates["progress"] = 100
	case model.MilestoneStatusRejected:
		updates["review_reason"] = reason
	}

	// 条件更新：当前状态必须还是读到的状态。
	// 通过审核时释放入队和状态迁移落在同一事务里，COMPLETED 是终态，
	// 一旦没有台账行就再也补不回来。链上调用仍由调度器在事务外发起。
	err = m.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.MilestoneModel{}).
			Where("id = ? AND status = ?", milestoneId, milestone.Status).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("更新里程碑状态失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Wrap(apperr.ErrConflict, "里程碑状态已被其他评审修改，请刷新后重试")
		}

		if newStatus == model.MilestoneStatusCompleted {
			return escrow.Enqueue(tx, model.EscrowOpReleaseMilestone,
				milestone.ProjectId, milestone.Id, milestone.ReleaseAmount)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Milestone %d transitioned %s -> %s by reviewer %d",
		milestoneId, milestone.Status, newStatus, reviewerId)

	switch newStatus {
	case model.MilestoneStatusCompleted:
		m.notifyReview(milestone, "里程碑审核通过", fmt.Sprintf("里程碑「%s」已通过审核，对应资金将从托管释放", milestone.Title))
		if err := m.campaign.OnMilestoneCompleted(milestone.ProjectId); err != nil {
			logger.Error("Failed to check campaign completion for project %d: %v", milestone.ProjectId, err)
		}
	case model.MilestoneStatusRejected:
		m.notifyReview(milestone, "里程碑被拒绝", fmt.Sprintf("里程碑「%s」未通过审核: %s，请补充材料后重新提交", milestone.Title, reason))
	}

	return nil
}

// Resubmit 拒绝后的重新提交：附上新附件，状态回到 IN_PROGRESS。
// 只影响该里程碑本身，不触碰其他里程碑。
func (m *MilestoneLogic) Resubmit(milestoneId, ownerId int64, attachments []model.AttachmentModel) error {
	milestone, err := m.getMilestone(milestoneId)
	if err != nil {
		return err
	}

	var project model.ProjectModel
	if err := m.db.First(&project, milestone.ProjectId).Error; err != nil {
		return fmt.Errorf("获取项目失败: %w", err)
	}
	if project.CreatorId != ownerId {
		return apperr.Wrap(apperr.ErrForbidden, "只有项目创建者可以重新提交里程碑")
	}

	if milestone.Status != model.MilestoneStatusRejected {
		return apperr.Wrap(apperr.ErrValidation, "只有被拒绝的里程碑可以重新提交")
	}
	if len(attachments) == 0 {
		return apperr.Wrap(apperr.ErrValidation, "重新提交必须附带新的证明材料")
	}

	res := m.db.Model(&model.MilestoneModel{}).
		Where("id = ? AND status = ?", milestoneId, model.MilestoneStatusRejected).
		Updates(map[string]interface{}{
			"status":        model.MilestoneStatusInProgress,
			"review_reason": "",
		})
	if res.Error != nil {
		return fmt.Errorf("重新提交失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Wrap(apperr.ErrConflict, "里程碑状态已变化，请刷新后重试")
	}

	for i := range attachments {
		attachments[i].MilestoneId = milestoneId
	}
	if err := m.db.Create(&attachments).Error; err != nil {
		return fmt.Errorf("保存附件失败: %w", err)
	}

	logger.Info("Milestone %d resubmitted with %d attachments", milestoneId, len(attachments))
	return nil
}

// UpdateProgress 更新进度百分比。进度只是展示用的元数据，不会触发状态迁移。
func (m *MilestoneLogic) UpdateProgress(milestoneId, ownerId int64, progress int) error {
	if progress < 0 || progress > 100 {
		return apperr.Wrap(apperr.ErrValidation, "进度必须在0-100之间")
	}

	milestone, err := m.getMilestone(milestoneId)
	if err != nil {
		return err
	}

	var project model.ProjectModel
	if err := m.db.First(&project, milestone.ProjectId).Error; err != nil {
		return fmt.Errorf("获取项目失败: %w", err)
	}
	if project.CreatorId != ownerId {
		return apperr.Wrap(apperr.ErrForbidden, "只有项目创建者可以更新进度")
	}

	if err := m.db.Model(&model.MilestoneModel{}).
		Where("id = ?", milestoneId).
		Update("progress", progress).Error; err != nil {
		return fmt.Errorf("更新进度失败: %w", err)
	}
	return nil
}

// AddAttachments 追加附件。附件只增不改，任何状态下都可以查看。
func (m *MilestoneLogic) AddAttachments(milestoneId, ownerId int64, attachments []model.AttachmentModel) error {
	milestone, err := m.getMilestone(milestoneId)
	if err != nil {
		return err
	}

	var project model.ProjectModel
	if err := m.db.First(&project, milestone.ProjectId).Error; err != nil {
		return fmt.Errorf("获取项目失败: %w", err)
	}
	if project.CreatorId != ownerId {
		return apperr.Wrap(apperr.ErrForbidden, "只有项目创建者可以上传附件")
	}
	if len(attachments) == 0 {
		return apperr.Wrap(apperr.ErrValidation, "附件不能为空")
	}

	for i := range attachments {
		attachments[i].MilestoneId = milestoneId
	}
	if err := m.db.Create(&attachments).Error; err != nil {
		return fmt.Errorf("保存附件失败: %w", err)
	}
	return nil
}

// GetAttachments 获取里程碑附件
func (m *MilestoneLogic) GetAttachments(milestoneId int64) ([]model.AttachmentModel, error) {
	if _, err := m.getMilestone(milestoneId); err != nil {
		return nil, err
	}

	var attachments []model.AttachmentModel
	err := m.db.Where("milestone_id = ?", milestoneId).
		Order("created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("获取附件失败: %w", err)
	}
	return attachments, nil
}

// getMilestone 获取里程碑
func (m *MilestoneLogic) getMilestone(milestoneId int64) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	if err := m.db.First(&milestone, milestoneId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "里程碑不存在")
		}
		return nil, fmt.Errorf("获取里程碑失败: %w", err)
	}
	return &milestone, nil
}

// notifyReview 给项目创建者发送评审结果通知
func (m *MilestoneLogic) notifyReview(milestone *model.MilestoneModel, title, body string) {
	var project model.ProjectModel
	if err := m.db.First(&project, milestone.ProjectId).Error; err != nil {
		logger.Error("Failed to fetch project %d for review notice: %v", milestone.ProjectId, err)
		return
	}
	if err := m.notifier.Notify(project.CreatorId, project.Id, model.NotificationMilestoneReviewed, title, body); err != nil {
		logger.Error("Failed to notify milestone %d review: %v", milestone.Id, err)
	}
}

// validateMilestone 验证里程碑数据
func (m *MilestoneLogic) validateMilestone(milestone *model.MilestoneModel) error {
	if milestone.ProjectId == 0 {
		return apperr.Wrap(apperr.ErrValidation, "项目ID不能为空")
	}
	if milestone.Title == "" {
		return apperr.Wrap(apperr.ErrValidation, "里程碑标题不能为空")
	}
	if milestone.ReleaseAmount < 0 {
		return apperr.Wrap(apperr.ErrValidation, "释放金额不能为负数")
	}
	if milestone.Progress < 0 || milestone.Progress > 100 {
		return apperr.Wrap(apperr.ErrValidation, "进度必须在0-100之间")
	}
	return nil
}

// transitionAllowed 判断状态迁移是否合法
func transitionAllowed(from, to model.MilestoneStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
