package model

import (
	"time"
)

// VoteModel 创意投票记录，(project_id, user_id) 唯一约束保证每人一票
type VoteModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId int64 `json:"project_id" gorm:"not null;uniqueIndex:idx_vote_project_user"`
	UserId    int64 `json:"user_id" gorm:"not null;uniqueIndex:idx_vote_project_user"`
}

// TableName 自定义表名
func (VoteModel) TableName() string {
	return "vote"
}
