package handler

import (
	"net/http"
	"strconv"

	"github.com/boundless/grants-service/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	userLogic *logic.UserLogic
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		userLogic: logic.NewUserLogic(db),
	}
}

// SearchUsers 用户搜索
func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, err := h.userLogic.SearchUsers(query, limit)
	if err != nil {
		ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
