package model

import (
	"time"
)

// NotificationModel 站内通知
type NotificationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	UserId    int64  `json:"user_id" gorm:"not null;index"`
	ProjectId int64  `json:"project_id"`
	Type      string `json:"type" gorm:"not null"`
	Title     string `json:"title" gorm:"not null"`
	Body      string `json:"body" gorm:"type:text"`
	Read      bool   `json:"read" gorm:"default:false"`
}

// 通知类型
const (
	NotificationProjectValidated  = "project_validated"  // 创意通过验证
	NotificationMilestoneReviewed = "milestone_reviewed" // 里程碑评审结果
	NotificationEscrowFailed      = "escrow_failed"      // 托管调用重试耗尽
	NotificationCampaignRefunded  = "campaign_refunded"  // 活动退款
)

// TableName 自定义表名
func (NotificationModel) TableName() string {
	return "notification"
}
