package handler

import (
	"net/http"
	"strconv"

	"github.com/boundless/grants-service/internal/middleware"
	"github.com/boundless/grants-service/internal/notification"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifier *notification.Notifier
}

func NewNotificationHandler(notifier *notification.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// ListNotifications 当前用户的通知列表
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notifier.ListForUser(middleware.UserId(c), limit)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
