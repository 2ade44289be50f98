package model

import (
	"time"
)

// UserModel 用户模型
type UserModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username  string `json:"username" gorm:"uniqueIndex;not null"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role" gorm:"default:'user'"` // user, admin
}

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user"
}
