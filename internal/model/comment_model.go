package model

import (
	"time"
)

// CommentModel 项目评论，ParentId 自引用实现楼中楼回复
type CommentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;index"`
	UserId    int64  `json:"user_id" gorm:"not null"`
	ParentId  *int64 `json:"parent_id" gorm:"index"` // 父评论必须属于同一项目
	Content   string `json:"content" gorm:"type:text;not null"`

	// 关联
	Reactions []CommentReactionModel `json:"reactions,omitempty" gorm:"foreignKey:CommentId"`
}

// TableName 自定义表名
func (CommentModel) TableName() string {
	return "comment"
}
