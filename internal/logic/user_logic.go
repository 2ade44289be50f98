package logic

import (
	"fmt"
	"strings"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/model"
	"gorm.io/gorm"
)

// UserLogic 用户业务逻辑
type UserLogic struct {
	db *gorm.DB
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(db *gorm.DB) *UserLogic {
	return &UserLogic{db: db}
}

// SearchUsers 按用户名/邮箱前缀搜索
func (u *UserLogic) SearchUsers(query string, limit int) ([]model.UserModel, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Wrap(apperr.ErrValidation, "搜索关键字不能为空")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	pattern := query + "%"
	var users []model.UserModel
	err := u.db.Where("username LIKE ? OR email LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("搜索用户失败: %w", err)
	}

	return users, nil
}

// GetUser 获取用户
func (u *UserLogic) GetUser(id int64) (*model.UserModel, error) {
	var user model.UserModel
	if err := u.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.Wrap(apperr.ErrNotFound, "用户不存在")
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return &user, nil
}
