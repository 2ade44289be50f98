package model

import (
	"time"
)

// AttachmentModel 里程碑附件，创建后不可修改
type AttachmentModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	MilestoneId int64  `json:"milestone_id" gorm:"not null;index"`
	FileName    string `json:"file_name" gorm:"not null"`
	FileURL     string `json:"file_url" gorm:"not null"`
	FileSize    int64  `json:"file_size"`
	FileType    string `json:"file_type"`
}

// TableName 自定义表名
func (AttachmentModel) TableName() string {
	return "attachment"
}
