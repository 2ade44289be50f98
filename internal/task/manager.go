package task

import (
	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/escrow"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler  gocron.Scheduler
	db         *gorm.DB
	dispatcher *escrow.Dispatcher
	campaign   *logic.CampaignLogic
	config     *config.Config
}

// Job 定时任务通用接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// NewManager 创建任务管理器
func NewManager(db *gorm.DB, dispatcher *escrow.Dispatcher, campaign *logic.CampaignLogic, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler:  s,
		db:         db,
		dispatcher: dispatcher,
		campaign:   campaign,
		config:     cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, dispatcher *escrow.Dispatcher, campaign *logic.CampaignLogic, cfg *config.Config) *Manager {
	manager := NewManager(db, dispatcher, campaign, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.register(NewCampaignDeadlineJob(m.campaign, m.config))
	m.register(NewEscrowRetryJob(m.dispatcher, m.config))
}

// register 注册单个任务，单例模式防止同一任务并发重入
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
