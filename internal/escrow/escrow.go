package escrow

import (
	"context"
)

// Controller 托管合约消费接口。资金锁定/释放/退款的真正逻辑在链上合约里，
// 本服务只负责发起调用并跟踪确认结果。
type Controller interface {
	// LockFunds 活动上线后锁定目标资金，每个活动调用一次
	LockFunds(ctx context.Context, projectId int64, amount int64) (txHash string, err error)
	// ReleaseMilestone 释放某个里程碑的托管份额，合约侧幂等
	ReleaseMilestone(ctx context.Context, projectId, milestoneId int64) (txHash string, err error)
	// RefundAll 截止未达标时全额退款，链上原子执行
	RefundAll(ctx context.Context, projectId int64) (txHash string, err error)
	// IsConfirmed 交易是否已达到确认深度
	IsConfirmed(ctx context.Context, txHash string) (bool, error)
}
