package model

import (
	"time"
)

// ProjectModel 项目模型
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`
	BannerURL   string `json:"banner_url"`
	LogoURL     string `json:"logo_url"`

	// 创建者信息
	CreatorId int64 `json:"creator_id" gorm:"not null;index"`

	// 众筹信息
	FundingGoal  int64 `json:"funding_goal" gorm:"not null" binding:"required,min=0"`
	RaisedAmount int64 `json:"raised_amount" gorm:"default:0"`

	// 创意验证状态
	IdeaStatus IdeaStatus `json:"idea_status" gorm:"default:'pending'"`

	// 活动生命周期状态
	Status ProjectStatus `json:"status" gorm:"default:'idea_pending'"`

	// 活动截止时间（上线后才有）
	Deadline *time.Time `json:"deadline"`

	// 链上托管合约信息
	EscrowTxHash string `json:"escrow_tx_hash"`

	// 关联
	Milestones []MilestoneModel `json:"milestones,omitempty" gorm:"foreignKey:ProjectId"`
}

// IdeaStatus 创意验证状态
type IdeaStatus string

const (
	IdeaStatusPending   IdeaStatus = "pending"   // 投票中
	IdeaStatusValidated IdeaStatus = "validated" // 已通过
	IdeaStatusRejected  IdeaStatus = "rejected"  // 已否决
)

// ProjectStatus 项目生命周期状态，状态链单向推进
type ProjectStatus string

const (
	ProjectStatusIdeaPending   ProjectStatus = "idea_pending"       // 创意投票中
	ProjectStatusIdeaValidated ProjectStatus = "idea_validated"     // 创意已通过，待上线
	ProjectStatusLive          ProjectStatus = "campaign_live"      // 活动进行中
	ProjectStatusCompleted     ProjectStatus = "campaign_completed" // 全部里程碑完成
	ProjectStatusRefunded      ProjectStatus = "campaign_refunded"  // 截止未达标，已退款
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
