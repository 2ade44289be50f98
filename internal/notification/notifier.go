package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boundless/grants-service/internal/config"
	"github.com/boundless/grants-service/internal/logger"
	"github.com/boundless/grants-service/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
)

// Notifier 站内通知。通知先落库，配置了消息队列时再异步广播一份，
// 供独立的推送/邮件服务消费。
type Notifier struct {
	db       *gorm.DB
	channel  *amqp.Channel
	exchange string
}

// New 创建通知器，amqp 配置为空时只落库
func New(db *gorm.DB, cfg config.AMQPConfig) *Notifier {
	n := &Notifier{db: db, exchange: cfg.Exchange}

	if cfg.URL == "" {
		return n
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		logger.Warn("Failed to connect to amqp broker, notifications will be DB-only: %v", err)
		return n
	}

	channel, err := conn.Channel()
	if err != nil {
		logger.Warn("Failed to open amqp channel, notifications will be DB-only: %v", err)
		return n
	}

	if err := channel.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		logger.Warn("Failed to declare amqp exchange %s: %v", cfg.Exchange, err)
		return n
	}

	n.channel = channel
	logger.Info("Notification broker connected, exchange: %s", cfg.Exchange)
	return n
}

// Notify 写入通知并尝试广播
func (n *Notifier) Notify(userId, projectId int64, notifType, title, body string) error {
	notification := model.NotificationModel{
		UserId:    userId,
		ProjectId: projectId,
		Type:      notifType,
		Title:     title,
		Body:      body,
	}

	if err := n.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	n.publish(notification)
	return nil
}

// publish 广播到消息队列，失败只记日志，不影响主流程
func (n *Notifier) publish(notification model.NotificationModel) {
	if n.channel == nil {
		return
	}

	body, err := json.Marshal(notification)
	if err != nil {
		logger.Error("Failed to marshal notification %d: %v", notification.Id, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err = n.channel.PublishWithContext(ctx, n.exchange, notification.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		logger.Error("Failed to publish notification %d: %v", notification.Id, err)
	}
}

// ListForUser 按用户查询通知，最新在前
func (n *Notifier) ListForUser(userId int64, limit int) ([]model.NotificationModel, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notifications []model.NotificationModel
	err := n.db.Where("user_id = ?", userId).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}
