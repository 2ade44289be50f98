package logic

import (
	"testing"
	"time"

	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/model"
	"github.com/boundless/grants-service/internal/notification"
	"github.com/boundless/grants-service/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// newTestDB 内存sqlite，结构与生产库一致
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

	// 内存库只能有一个连接，否则每个连接各自一张空库
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

// newTestNotifier DB-only 通知器，便于断言通知条数
func newTestNotifier(db *gorm.DB) *notification.Notifier {
	return notification.New(db, config.AMQPConfig{})
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *model.UserModel {
	t.Helper()
	user := model.UserModel{Username: username, Email: username + "@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return &user
}

func createTestProject(t *testing.T, db *gorm.DB, creatorId int64, goal int64) *model.ProjectModel {
	t.Helper()
	project := model.ProjectModel{
		Title:       "test project",
		Description: "a project",
		CreatorId:   creatorId,
		FundingGoal: goal,
		IdeaStatus:  model.IdeaStatusPending,
		Status:      model.ProjectStatusIdeaPending,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return &project
}

// castVotes 直接写入 n 张来自不同用户的票
func castVotes(t *testing.T, db *gorm.DB, projectId int64, n int64) {
	t.Helper()
	for i := int64(0); i < n; i++ {
		vote := model.VoteModel{ProjectId: projectId, UserId: 1000 + i}
		if err := db.Create(&vote).Error; err != nil {
			t.Fatalf("failed to cast vote %d: %v", i, err)
		}
	}
}

func countNotifications(t *testing.T, db *gorm.DB, notifType string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&model.NotificationModel{}).Where("type = ?", notifType).Count(&count).Error; err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	return count
}

func countEscrowCalls(t *testing.T, db *gorm.DB, op model.EscrowOp) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&model.EscrowCallModel{}).Where("op = ?", op).Count(&count).Error; err != nil {
		t.Fatalf("failed to count escrow calls: %v", err)
	}
	return count
}

// launchTestCampaign 把项目推到 CAMPAIGN_LIVE 并创建里程碑
func launchTestCampaign(t *testing.T, db *gorm.DB, campaign *CampaignLogic, project *model.ProjectModel, plans []MilestonePlan) []model.MilestoneModel {
	t.Helper()

	err := db.Model(&model.ProjectModel{}).Where("id = ?", project.Id).Updates(map[string]interface{}{
		"idea_status": model.IdeaStatusValidated,
		"status":      model.ProjectStatusIdeaValidated,
	}).Error
	if err != nil {
		t.Fatalf("failed to validate project: %v", err)
	}

	deadline := time.Now().Add(30 * 24 * time.Hour)
	if err := campaign.Launch(project.Id, project.CreatorId, deadline, plans); err != nil {
		t.Fatalf("failed to launch campaign: %v", err)
	}

	var milestones []model.MilestoneModel
	if err := db.Where("project_id = ?", project.Id).Order("sequence ASC").Find(&milestones).Error; err != nil {
		t.Fatalf("failed to load milestones: %v", err)
	}
	return milestones
}
