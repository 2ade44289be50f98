package handler

import (
	"net/http"

	"github.com/boundless/grants-service/internal/cache"
	"github.com/boundless/grants-service/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardLogic *logic.DashboardLogic
}

func NewDashboardHandler(db *gorm.DB, c *cache.Cache) *DashboardHandler {
	return &DashboardHandler{
		dashboardLogic: logic.NewDashboardLogic(db, c),
	}
}

// GetOverview 平台总览
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	overview, err := h.dashboardLogic.GetOverview(c.Request.Context())
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"overview": overview})
}
