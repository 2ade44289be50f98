package escrow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boundless/grants-service/internal/model"
	"github.com/boundless/grants-service/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// fakeController 可编程的托管合约替身
type fakeController struct {
	mu       sync.Mutex
	failures int // 前 N 次调用返回错误
	calls    int
	txHash   string
}

func (f *fakeController) invoke() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("rpc unavailable")
	}
	return f.txHash, nil
}

func (f *fakeController) LockFunds(ctx context.Context, projectId, amount int64) (string, error) {
	return f.invoke()
}

func (f *fakeController) ReleaseMilestone(ctx context.Context, projectId, milestoneId int64) (string, error) {
	return f.invoke()
}

func (f *fakeController) RefundAll(ctx context.Context, projectId int64) (string, error) {
	return f.invoke()
}

func (f *fakeController) IsConfirmed(ctx context.Context, txHash string) (bool, error) {
	return true, nil
}

func (f *fakeController) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return db
}

func createProjectRow(t *testing.T, db *gorm.DB) *model.ProjectModel {
	t.Helper()
	project := model.ProjectModel{
		Title:       "escrow target",
		Description: "project under escrow",
		CreatorId:   1,
		FundingGoal: 1000,
		IdeaStatus:  model.IdeaStatusValidated,
		Status:      model.ProjectStatusLive,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return &project
}

func newTestDispatcher(t *testing.T, db *gorm.DB, controller Controller, maxAttempts int) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(db, controller, 2, maxAttempts, 1)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	t.Cleanup(d.Release)
	return d
}

func getCall(t *testing.T, db *gorm.DB, projectId int64, op model.EscrowOp) *model.EscrowCallModel {
	t.Helper()
	var call model.EscrowCallModel
	err := db.Where("project_id = ? AND op = ?", projectId, op).First(&call).Error
	if err != nil {
		t.Fatalf("failed to load escrow call: %v", err)
	}
	return &call
}

func TestEnqueueIdempotent(t *testing.T) {
	db := newTestDB(t)
	project := createProjectRow(t, db)

	for i := 0; i < 3; i++ {
		if err := Enqueue(db, model.EscrowOpLockFunds, project.Id, 0, 1000); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
	}

	var count int64
	db.Model(&model.EscrowCallModel{}).Where("project_id = ?", project.Id).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 ledger row after repeated enqueue, got %d", count)
	}

	// 不同里程碑的释放是独立的调用
	if err := Enqueue(db, model.EscrowOpReleaseMilestone, project.Id, 11, 400); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := Enqueue(db, model.EscrowOpReleaseMilestone, project.Id, 12, 600); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	db.Model(&model.EscrowCallModel{}).Where("project_id = ?", project.Id).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", count)
	}
}

func TestProcessDueSuccess(t *testing.T) {
	db := newTestDB(t)
	project := createProjectRow(t, db)
	controller := &fakeController{txHash: "0xabc123"}
	dispatcher := newTestDispatcher(t, db, controller, 5)

	if err := Enqueue(db, model.EscrowOpLockFunds, project.Id, 0, 1000); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	dispatcher.ProcessDue()

	call := getCall(t, db, project.Id, model.EscrowOpLockFunds)
	if call.Status != model.EscrowCallStatusSuccess {
		t.Fatalf("expected call success, got %s", call.Status)
	}
	if call.TxHash != "0xabc123" {
		t.Fatalf("expected tx hash recorded, got %q", call.TxHash)
	}

	// 锁定成功后交易哈希要写回项目
	var got model.ProjectModel
	if err := db.First(&got, project.Id).Error; err != nil {
		t.Fatalf("failed to reload project: %v", err)
	}
	if got.EscrowTxHash != "0xabc123" {
		t.Fatalf("expected project escrow tx hash, got %q", got.EscrowTxHash)
	}

	// 已成功的调用不会被重复执行
	dispatcher.ProcessDue()
	if n := controller.callCount(); n != 1 {
		t.Fatalf("expected 1 chain call, got %d", n)
	}
}

func TestProcessDueRetryWithBackoff(t *testing.T) {
	db := newTestDB(t)
	project := createProjectRow(t, db)
	controller := &fakeController{failures: 1, txHash: "0xdef456"}
	dispatcher := newTestDispatcher(t, db, controller, 5)

	if err := Enqueue(db, model.EscrowOpRefundAll, project.Id, 0, 300); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	dispatcher.ProcessDue()

	call := getCall(t, db, project.Id, model.EscrowOpRefundAll)
	if call.Status != model.EscrowCallStatusPending {
		t.Fatalf("expected call still pending after first failure, got %s", call.Status)
	}
	if call.Attempts != 1 {
		t.Fatalf("expected 1 attempt recorded, got %d", call.Attempts)
	}
	if call.LastError == "" {
		t.Fatalf("expected last error recorded")
	}
	if !call.NextRetryAt.After(time.Now()) {
		t.Fatalf("expected retry pushed into the future, got %s", call.NextRetryAt)
	}

	// 未到重试时间不应再被调度
	dispatcher.ProcessDue()
	if n := controller.callCount(); n != 1 {
		t.Fatalf("expected no call before retry due, got %d", n)
	}

	// 把重试时间拨回过去，下一轮成功
	err := db.Model(&model.EscrowCallModel{}).Where("id = ?", call.Id).
		Update("next_retry_at", time.Now().Add(-time.Second)).Error
	if err != nil {
		t.Fatalf("failed to rewind retry time: %v", err)
	}

	dispatcher.ProcessDue()

	call = getCall(t, db, project.Id, model.EscrowOpRefundAll)
	if call.Status != model.EscrowCallStatusSuccess {
		t.Fatalf("expected call success after retry, got %s", call.Status)
	}
}

func TestProcessDueExhaustsAttempts(t *testing.T) {
	db := newTestDB(t)
	project := createProjectRow(t, db)
	controller := &fakeController{failures: 100}
	dispatcher := newTestDispatcher(t, db, controller, 2)

	if err := Enqueue(db, model.EscrowOpReleaseMilestone, project.Id, 7, 400); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		dispatcher.ProcessDue()
		err := db.Model(&model.EscrowCallModel{}).
			Where("project_id = ?", project.Id).
			Update("next_retry_at", time.Now().Add(-time.Second)).Error
		if err != nil {
			t.Fatalf("failed to rewind retry time: %v", err)
		}
	}

	call := getCall(t, db, project.Id, model.EscrowOpReleaseMilestone)
	if call.Status != model.EscrowCallStatusFailed {
		t.Fatalf("expected call failed after exhausting attempts, got %s", call.Status)
	}
	if call.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", call.Attempts)
	}

	// 耗尽后通知项目创建者
	var notifications int64
	db.Model(&model.NotificationModel{}).Where("type = ?", model.NotificationEscrowFailed).Count(&notifications)
	if notifications != 1 {
		t.Fatalf("expected 1 failure notification, got %d", notifications)
	}

	// failed 是终态，不再调度
	calls := controller.callCount()
	dispatcher.ProcessDue()
	if controller.callCount() != calls {
		t.Fatalf("expected no further calls on failed entry")
	}
}

func TestRetryDelayCapped(t *testing.T) {
	db := newTestDB(t)
	project := createProjectRow(t, db)
	controller := &fakeController{failures: 1000}
	dispatcher := newTestDispatcher(t, db, controller, 1000)

	if err := Enqueue(db, model.EscrowOpReleaseMilestone, project.Id, 7, 400); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// 大次数配置下移位会溢出，退避必须封顶而不是落到过去
	call := getCall(t, db, project.Id, model.EscrowOpReleaseMilestone)
	if err := db.Model(&model.EscrowCallModel{}).Where("id = ?", call.Id).
		Update("attempts", 70).Error; err != nil {
		t.Fatalf("failed to set attempts: %v", err)
	}

	before := time.Now()
	dispatcher.ProcessDue()

	call = getCall(t, db, project.Id, model.EscrowOpReleaseMilestone)
	if call.Status != model.EscrowCallStatusPending {
		t.Fatalf("expected call still pending, got %s", call.Status)
	}
	if call.Attempts != 71 {
		t.Fatalf("expected 71 attempts, got %d", call.Attempts)
	}
	if !call.NextRetryAt.After(before) {
		t.Fatalf("expected retry in the future, got %s", call.NextRetryAt)
	}
	if call.NextRetryAt.After(before.Add(maxRetryDelay + time.Minute)) {
		t.Fatalf("expected retry within the cap, got %s", call.NextRetryAt)
	}
}
