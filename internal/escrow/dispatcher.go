package escrow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/metrics"
	"github.com/boundless/grants-service/internal/model"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Enqueue 将一次托管调用写入台账，等待调度执行。
// 唯一索引 (project_id, milestone_id, op) 保证重复入队退化为无操作。
func Enqueue(db *gorm.DB, op model.EscrowOp, projectId, milestoneId, amount int64) error {
	call := model.EscrowCallModel{
		ProjectId:   projectId,
		MilestoneId: milestoneId,
		Op:          op,
		Amount:      amount,
		Status:      model.EscrowCallStatusPending,
		NextRetryAt: time.Now(),
	}

	if err := db.Create(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 已入队过，按幂等处理
			return nil
		}
		return fmt.Errorf("failed to enqueue escrow call: %w", err)
	}

	return nil
}

// maxRetryDelay 单次重试的退避上限
const maxRetryDelay = time.Hour

// Dispatcher 托管调用调度器。从台账取到期的 pending 调用，
// 通过协程池并发执行，失败按指数退避重试，超过上限标记为 failed。
type Dispatcher struct {
	db          *gorm.DB
	controller  Controller
	pool        *ants.Pool
	maxAttempts int
	backoff     time.Duration
	callTimeout time.Duration
}

// NewDispatcher 创建调度器
func NewDispatcher(db *gorm.DB, controller Controller, workerCount, maxAttempts, backoffSecond int) (*Dispatcher, error) {
	if workerCount <= 0 {
		workerCount = 4
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Dispatcher{
		db:          db,
		controller:  controller,
		pool:        pool,
		maxAttempts: maxAttempts,
		backoff:     time.Duration(backoffSecond) * time.Second,
		callTimeout: time.Minute * 2,
	}, nil
}

// ProcessDue 执行所有到期的待处理调用，等待本批全部结束后返回
func (d *Dispatcher) ProcessDue() {
	now := time.Now()

	var calls []model.EscrowCallModel
	err := d.db.Where("status = ? AND next_retry_at <= ?",
		model.EscrowCallStatusPending, now).Find(&calls).Error
	if err != nil {
		logger.Error("Failed to fetch pending escrow calls: %v", err)
		return
	}

	if len(calls) == 0 {
		return
	}
	logger.Info("Dispatching %d pending escrow calls", len(calls))

	var wg sync.WaitGroup
	for i := range calls {
		call := calls[i]
		wg.Add(1)
		if err := d.pool.Submit(func() {
			defer wg.Done()
			d.execute(call)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit escrow call %d to pool: %v", call.Id, err)
		}
	}
	wg.Wait()
}

// execute 执行单次托管调用。链上调用不持有任何数据库事务，
// 结果通过后续更新写回台账。
func (d *Dispatcher) execute(call model.EscrowCallModel) {
	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)
	defer cancel()

	var txHash string
	var err error

	switch call.Op {
	case model.EscrowOpLockFunds:
		txHash, err = d.controller.LockFunds(ctx, call.ProjectId, call.Amount)
	case model.EscrowOpReleaseMilestone:
		txHash, err = d.controller.ReleaseMilestone(ctx, call.ProjectId, call.MilestoneId)
	case model.EscrowOpRefundAll:
		txHash, err = d.controller.RefundAll(ctx, call.ProjectId)
	default:
		err = fmt.Errorf("unknown escrow op: %s", call.Op)
	}

	if err != nil {
		d.handleFailure(call, err)
		return
	}

	updates := map[string]interface{}{
		"status":  model.EscrowCallStatusSuccess,
		"tx_hash": txHash,
	}
	if err := d.db.Model(&model.EscrowCallModel{}).Where("id = ?", call.Id).Updates(updates).Error; err != nil {
		logger.Error("Failed to mark escrow call %d success: %v", call.Id, err)
		return
	}

	// 锁定成功后把交易哈希写回项目
	if call.Op == model.EscrowOpLockFunds {
		if err := d.db.Model(&model.ProjectModel{}).Where("id = ?", call.ProjectId).
			Update("escrow_tx_hash", txHash).Error; err != nil {
			logger.Error("Failed to record escrow tx hash for project %d: %v", call.ProjectId, err)
		}
	}

	metrics.EscrowCallTotal.WithLabelValues(string(call.Op), "success").Inc()
	logger.Info("Escrow call %d (%s) for project %d succeeded, tx: %s",
		call.Id, call.Op, call.ProjectId, txHash)
}

// handleFailure 失败计数与退避，重试耗尽时标记失败并通知项目创建者
func (d *Dispatcher) handleFailure(call model.EscrowCallModel, callErr error) {
	attempts := call.Attempts + 1

	if attempts >= d.maxAttempts {
		updates := map[string]interface{}{
			"status":     model.EscrowCallStatusFailed,
			"attempts":   attempts,
			"last_error": callErr.Error(),
		}
		if err := d.db.Model(&model.EscrowCallModel{}).Where("id = ?", call.Id).Updates(updates).Error; err != nil {
			logger.Error("Failed to mark escrow call %d failed: %v", call.Id, err)
			return
		}

		metrics.EscrowCallTotal.WithLabelValues(string(call.Op), "failed").Inc()
		logger.Error("Escrow call %d (%s) for project %d exhausted %d attempts: %v",
			call.Id, call.Op, call.ProjectId, attempts, callErr)
		d.notifyFailure(call, callErr)
		return
	}

	// 指数退避: backoff * 2^(attempts-1)，封顶防止大次数配置下移位溢出
	delay := maxRetryDelay
	if shift := attempts - 1; shift < 32 {
		if v := d.backoff << shift; v > 0 && v < maxRetryDelay {
			delay = v
		}
	}
	updates := map[string]interface{}{
		"attempts":      attempts,
		"next_retry_at": time.Now().Add(delay),
		"last_error":    callErr.Error(),
	}
	if err := d.db.Model(&model.EscrowCallModel{}).Where("id = ?", call.Id).Updates(updates).Error; err != nil {
		logger.Error("Failed to schedule retry for escrow call %d: %v", call.Id, err)
		return
	}

	metrics.EscrowCallTotal.WithLabelValues(string(call.Op), "retry").Inc()
	logger.Warn("Escrow call %d (%s) for project %d failed (attempt %d/%d), retrying in %s: %v",
		call.Id, call.Op, call.ProjectId, attempts, d.maxAttempts, delay, callErr)
}

// notifyFailure 重试耗尽后给项目创建者写一条通知
func (d *Dispatcher) notifyFailure(call model.EscrowCallModel, callErr error) {
	var project model.ProjectModel
	if err := d.db.First(&project, call.ProjectId).Error; err != nil {
		logger.Error("Failed to fetch project %d for escrow failure notice: %v", call.ProjectId, err)
		return
	}

	notification := model.NotificationModel{
		UserId:    project.CreatorId,
		ProjectId: project.Id,
		Type:      model.NotificationEscrowFailed,
		Title:     "托管操作失败",
		Body:      fmt.Sprintf("项目「%s」的托管操作 %s 重试%d次后仍然失败，请联系平台处理: %v", project.Title, call.Op, call.Attempts+1, callErr),
	}
	if err := d.db.Create(&notification).Error; err != nil {
		logger.Error("Failed to create escrow failure notification: %v", err)
	}
}

// Release 释放协程池
func (d *Dispatcher) Release() {
	d.pool.Release()
}
