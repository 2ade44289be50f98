package task

import (
	"time"

	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/escrow"
	"github.com/go-co-op/gocron/v2"
)

// EscrowRetryJob 托管调用执行任务。把台账里到期的 pending 调用交给
// 调度器执行，退避和重试上限由调度器维护。
type EscrowRetryJob struct {
	dispatcher *escrow.Dispatcher
	config     *config.Config
}

// NewEscrowRetryJob 创建托管调用任务
func NewEscrowRetryJob(dispatcher *escrow.Dispatcher, cfg *config.Config) *EscrowRetryJob {
	return &EscrowRetryJob{
		dispatcher: dispatcher,
		config:     cfg,
	}
}

// GetName 获取任务名称
func (j *EscrowRetryJob) GetName() string {
	return "escrow_call_dispatcher"
}

// GetSchedule 获取调度配置
func (j *EscrowRetryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *EscrowRetryJob) Execute() {
	j.dispatcher.ProcessDue()
}
