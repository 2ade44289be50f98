package model

import (
	"time"
)

// EscrowCallModel 托管合约调用台账。所有出站链上调用先落库为 pending，
// 由重试任务带退避执行，唯一索引保证同一操作不会重复入队。
type EscrowCallModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64    `json:"project_id" gorm:"not null;uniqueIndex:idx_escrow_call_op"`
	MilestoneId int64    `json:"milestone_id" gorm:"uniqueIndex:idx_escrow_call_op"` // lock/refund 时为0
	Op          EscrowOp `json:"op" gorm:"not null;uniqueIndex:idx_escrow_call_op"`
	Amount      int64    `json:"amount"`

	Status      EscrowCallStatus `json:"status" gorm:"default:'pending';index"`
	Attempts    int              `json:"attempts" gorm:"default:0"`
	NextRetryAt time.Time        `json:"next_retry_at" gorm:"index"`
	LastError   string           `json:"last_error" gorm:"type:text"`

	// 链上确认信息
	TxHash   string `json:"tx_hash"`
	BlockNum int64  `json:"block_num"`
}

// EscrowOp 托管操作类型
type EscrowOp string

const (
	EscrowOpLockFunds        EscrowOp = "lock_funds"        // 活动上线时锁定资金
	EscrowOpReleaseMilestone EscrowOp = "release_milestone" // 里程碑通过后释放
	EscrowOpRefundAll        EscrowOp = "refund_all"        // 截止未达标全额退款
)

// EscrowCallStatus 调用状态
type EscrowCallStatus string

const (
	EscrowCallStatusPending EscrowCallStatus = "pending" // 待执行/重试中
	EscrowCallStatusSuccess EscrowCallStatus = "success" // 已上链
	EscrowCallStatusFailed  EscrowCallStatus = "failed"  // 重试耗尽，需人工介入
)

// TableName 自定义表名
func (EscrowCallModel) TableName() string {
	return "escrow_call"
}
