package model

import (
	"time"
)

// MilestoneModel 项目里程碑，Sequence 定义项目内的评审顺序（建议性，不强制串行）
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64     `json:"project_id" gorm:"not null;index"`
	Sequence    int       `json:"sequence" gorm:"not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	DueDate     time.Time `json:"due_date"`

	// 该里程碑通过后释放的托管金额
	ReleaseAmount int64 `json:"release_amount" gorm:"default:0"`

	Status        MilestoneStatus `json:"status" gorm:"default:'pending'"`
	Progress      int             `json:"progress" gorm:"default:0"` // 进度百分比 0-100，仅展示用
	ReviewerId    int64           `json:"reviewer_id"`
	ReviewReason  string          `json:"review_reason" gorm:"type:text"` // 拒绝时填写
	CompletedDate *time.Time      `json:"completed_date"`

	// 关联
	Attachments []AttachmentModel `json:"attachments,omitempty" gorm:"foreignKey:MilestoneId"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"     // 待开始
	MilestoneStatusInProgress MilestoneStatus = "in_progress" // 进行中
	MilestoneStatusCompleted  MilestoneStatus = "completed"   // 已完成（终态）
	MilestoneStatusRejected   MilestoneStatus = "rejected"    // 已拒绝（可重新提交）
)

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}
