package task

import (
	"time"

	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// CampaignDeadlineJob 活动截止检查任务。轮询到期且未达标的活动，
// 触发退款。触发本身在 logic 层用条件更新抢占，多实例部署下也只
// 会退款一次。
type CampaignDeadlineJob struct {
	campaign *logic.CampaignLogic
	config   *config.Config
}

// NewCampaignDeadlineJob 创建截止检查任务
func NewCampaignDeadlineJob(campaign *logic.CampaignLogic, cfg *config.Config) *CampaignDeadlineJob {
	return &CampaignDeadlineJob{
		campaign: campaign,
		config:   cfg,
	}
}

// GetName 获取任务名称
func (j *CampaignDeadlineJob) GetName() string {
	return "campaign_deadline_checker"
}

// GetSchedule 获取调度配置
func (j *CampaignDeadlineJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignDeadlineJob) Execute() {
	refunded, err := j.campaign.ProcessDeadlines(time.Now())
	if err != nil {
		logger.Error("Campaign deadline check failed: %v", err)
		return
	}

	if refunded > 0 {
		logger.Info("Campaign deadline check completed. Triggered %d refunds", refunded)
	}
}
