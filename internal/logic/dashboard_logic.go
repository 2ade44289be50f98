package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boundless/grants-service/internal/cache"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/model"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "dashboard:overview"
	dashboardCacheTTL = time.Second * 30
)

// DashboardLogic 平台总览统计
type DashboardLogic struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewDashboardLogic 创建总览统计逻辑
func NewDashboardLogic(db *gorm.DB, c *cache.Cache) *DashboardLogic {
	return &DashboardLogic{db: db, cache: c}
}

// Overview 总览统计结果
type Overview struct {
	TotalProjects      int64 `json:"total_projects"`
	PendingIdeas       int64 `json:"pending_ideas"`
	ValidatedIdeas     int64 `json:"validated_ideas"`
	RejectedIdeas      int64 `json:"rejected_ideas"`
	LiveCampaigns      int64 `json:"live_campaigns"`
	CompletedCampaigns int64 `json:"completed_campaigns"`
	RefundedCampaigns  int64 `json:"refunded_campaigns"`
	TotalRaised        int64 `json:"total_raised"`
	TotalVotes         int64 `json:"total_votes"`
	TotalComments      int64 `json:"total_comments"`
	PendingEscrow      int64 `json:"pending_escrow_calls"`
	FailedEscrow       int64 `json:"failed_escrow_calls"`
}

// GetOverview 获取平台总览，命中缓存直接返回
func (d *DashboardLogic) GetOverview(ctx context.Context) (*Overview, error) {
	if raw, ok := d.cache.Get(ctx, dashboardCacheKey); ok {
		var overview Overview
		if err := json.Unmarshal([]byte(raw), &overview); err == nil {
			return &overview, nil
		}
		logger.Warn("Failed to decode cached dashboard overview, recomputing")
	}

	overview, err := d.compute()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(overview); err == nil {
		d.cache.Set(ctx, dashboardCacheKey, string(raw), dashboardCacheTTL)
	}

	return overview, nil
}

// compute 一次查询汇总项目状态分布，其余计数单独统计
func (d *DashboardLogic) compute() (*Overview, error) {
	var overview Overview

	err := d.db.Raw(`
		SELECT
			COUNT(*) as total_projects,
			COUNT(*) FILTER (WHERE idea_status = 'pending') as pending_ideas,
			COUNT(*) FILTER (WHERE idea_status = 'validated') as validated_ideas,
			COUNT(*) FILTER (WHERE idea_status = 'rejected') as rejected_ideas,
			COUNT(*) FILTER (WHERE status = 'campaign_live') as live_campaigns,
			COUNT(*) FILTER (WHERE status = 'campaign_completed') as completed_campaigns,
			COUNT(*) FILTER (WHERE status = 'campaign_refunded') as refunded_campaigns,
			COALESCE(SUM(raised_amount), 0) as total_raised
		FROM project
	`).Scan(&overview).Error
	if err != nil {
		return nil, fmt.Errorf("统计项目分布失败: %w", err)
	}

	if err := d.db.Model(&model.VoteModel{}).Count(&overview.TotalVotes).Error; err != nil {
		return nil, fmt.Errorf("统计票数失败: %w", err)
	}
	if err := d.db.Model(&model.CommentModel{}).Count(&overview.TotalComments).Error; err != nil {
		return nil, fmt.Errorf("统计评论数失败: %w", err)
	}
	if err := d.db.Model(&model.EscrowCallModel{}).
		Where("status = ?", model.EscrowCallStatusPending).
		Count(&overview.PendingEscrow).Error; err != nil {
		return nil, fmt.Errorf("统计待处理托管调用失败: %w", err)
	}
	if err := d.db.Model(&model.EscrowCallModel{}).
		Where("status = ?", model.EscrowCallStatusFailed).
		Count(&overview.FailedEscrow).Error; err != nil {
		return nil, fmt.Errorf("统计失败托管调用失败: %w", err)
	}

	return &overview, nil
}
