package logic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/model"
	"gorm.io/gorm"
)

// CommentLogic 评论业务逻辑
type CommentLogic struct {
	db *gorm.DB
}

// NewCommentLogic 创建评论业务逻辑
func NewCommentLogic(db *gorm.DB) *CommentLogic {
	return &CommentLogic{db: db}
}

// AddComment 发表评论，parentId 非空时必须指向同一项目下的评论
func (c *CommentLogic) AddComment(projectId, userId int64, content string, parentId *int64) (*model.CommentModel, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Wrap(apperr.ErrValidation, "评论内容不能为空")
	}

	var project model.ProjectModel
	if err := c.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "项目不存在")
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}

	if parentId != nil {
		var parent model.CommentModel
		if err := c.db.First(&parent, *parentId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Wrap(apperr.ErrValidation, "父评论不存在")
			}
			return nil, fmt.Errorf("获取父评论失败: %w", err)
		}
		if parent.ProjectId != projectId {
			return nil, apperr.Wrap(apperr.ErrValidation, "父评论不属于该项目")
		}
	}

	comment := model.CommentModel{
		ProjectId: projectId,
		UserId:    userId,
		ParentId:  parentId,
		Content:   content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("创建评论失败: %w", err)
	}

	return &comment, nil
}

// GetProjectComments 获取项目评论（含反应），按时间正序
func (c *CommentLogic) GetProjectComments(projectId int64) ([]model.CommentModel, error) {
	var comments []model.CommentModel
	err := c.db.Preload("Reactions").
		Where("project_id = ?", projectId).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("获取评论列表失败: %w", err)
	}
	return comments, nil
}

// UpdateComment 编辑评论，仅限作者本人
func (c *CommentLogic) UpdateComment(commentId, requesterId int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.Wrap(apperr.ErrValidation, "评论内容不能为空")
	}

	comment, err := c.getComment(commentId)
	if err != nil {
		return err
	}
	if comment.UserId != requesterId {
		return apperr.Wrap(apperr.ErrForbidden, "只能编辑自己的评论")
	}

	if err := c.db.Model(comment).Update("content", content).Error; err != nil {
		return fmt.Errorf("更新评论失败: %w", err)
	}
	return nil
}

// DeleteComment 删除评论，仅限作者本人。回复可以嵌套任意层，
// 整棵回复子树和所有相关反应一并清理，不留悬空的 parent_id。
func (c *CommentLogic) DeleteComment(commentId, requesterId int64) error {
	comment, err := c.getComment(commentId)
	if err != nil {
		return err
	}
	if comment.UserId != requesterId {
		return apperr.Wrap(apperr.ErrForbidden, "只能删除自己的评论")
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		// 逐层收集子树里的评论ID
		ids := []int64{commentId}
		frontier := []int64{commentId}
		for len(frontier) > 0 {
			var children []int64
			if err := tx.Model(&model.CommentModel{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return fmt.Errorf("收集回复失败: %w", err)
			}
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&model.CommentReactionModel{}).Error; err != nil {
			return fmt.Errorf("删除评论反应失败: %w", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&model.CommentModel{}).Error; err != nil {
			return fmt.Errorf("删除评论失败: %w", err)
		}
		return nil
	})
}

// ReactionResult 反应操作结果，Reaction 为 nil 表示当前无反应
type ReactionResult struct {
	CommentId int64               `json:"comment_id"`
	Reaction  *model.ReactionType `json:"reaction"`
}

// ReactToComment 点赞/点踩。同类型再点一次取消，点相反类型覆盖，
// 与投票相同的开关语义，唯一约束兜底并发。
func (c *CommentLogic) ReactToComment(commentId, userId int64, rtype model.ReactionType) (*ReactionResult, error) {
	if rtype != model.ReactionLike && rtype != model.ReactionDislike {
		return nil, apperr.Wrap(apperr.ErrValidation, "无效的反应类型: %s", rtype)
	}

	if _, err := c.getComment(commentId); err != nil {
		return nil, err
	}

	var existing model.CommentReactionModel
	err := c.db.Where("comment_id = ? AND user_id = ?", commentId, userId).First(&existing).Error
	switch {
	case err == nil:
		if existing.Type == rtype {
			// 同类型重复 -> 取消
			if err := c.db.Delete(&model.CommentReactionModel{}, existing.Id).Error; err != nil {
				return nil, fmt.Errorf("取消反应失败: %w", err)
			}
			return &ReactionResult{CommentId: commentId}, nil
		}
		// 相反类型 -> 覆盖
		if err := c.db.Model(&existing).Update("type", rtype).Error; err != nil {
			return nil, fmt.Errorf("更新反应失败: %w", err)
		}
		return &ReactionResult{CommentId: commentId, Reaction: &rtype}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := model.CommentReactionModel{CommentId: commentId, UserId: userId, Type: rtype}
		if err := c.db.Create(&reaction).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发请求抢先写入，按重试重新走一遍开关逻辑
				return c.ReactToComment(commentId, userId, rtype)
			}
			return nil, fmt.Errorf("创建反应失败: %w", err)
		}
		return &ReactionResult{CommentId: commentId, Reaction: &rtype}, nil

	default:
		return nil, fmt.Errorf("查询反应失败: %w", err)
	}
}

// getComment 获取评论
func (c *CommentLogic) getComment(commentId int64) (*model.CommentModel, error) {
	var comment model.CommentModel
	if err := c.db.First(&comment, commentId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "评论不存在")
		}
		return nil, fmt.Errorf("获取评论失败: %w", err)
	}
	return &comment, nil
}
