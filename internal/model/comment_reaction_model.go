package model

import (
	"time"
)

// CommentReactionModel 评论点赞/点踩，(comment_id, user_id) 唯一
type CommentReactionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CommentId int64        `json:"comment_id" gorm:"not null;uniqueIndex:idx_reaction_comment_user"`
	UserId    int64        `json:"user_id" gorm:"not null;uniqueIndex:idx_reaction_comment_user"`
	Type      ReactionType `json:"type" gorm:"not null"`
}

// ReactionType 评论反应类型
type ReactionType string

const (
	ReactionLike    ReactionType = "LIKE"    // 点赞
	ReactionDislike ReactionType = "DISLIKE" // 点踩
)

// TableName 自定义表名
func (CommentReactionModel) TableName() string {
	return "comment_reaction"
}
