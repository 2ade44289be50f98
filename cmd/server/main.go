package main

import (
	"log"

	"github.com/boundless/grants-service/internal/cache"
	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/escrow"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/boundless/grants-service/internal/notification"
	"github.com/boundless/grants-service/internal/repository"
	"github.com/boundless/grants-service/internal/router"
	"github.com/boundless/grants-service/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			log.Fatalf("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化托管合约客户端
	escrowClient, err := escrow.Init(cfg.Escrow)
	if err != nil {
		logger.Fatal("Failed to initialize escrow client: %v", err)
	}

	// 托管调用调度器
	dispatcher, err := escrow.NewDispatcher(db, escrowClient,
		cfg.Escrow.WorkerCount, cfg.Escrow.MaxAttempts, cfg.Escrow.BackoffSecond)
	if err != nil {
		logger.Fatal("Failed to create escrow dispatcher: %v", err)
	}
	defer dispatcher.Release()

	// 缓存与通知
	c := cache.New(cfg.Redis)
	notifier := notification.New(db, cfg.AMQP)

	// 业务逻辑
	validationLogic := logic.NewValidationLogic(db, cfg.Validation.VoteThreshold, notifier)
	campaignLogic := logic.NewCampaignLogic(db, notifier)
	milestoneLogic := logic.NewMilestoneLogic(db, notifier, campaignLogic)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, cfg, c, notifier, validationLogic, milestoneLogic)

	// 启动定时任务
	manager := task.Start(db, dispatcher, campaignLogic, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
