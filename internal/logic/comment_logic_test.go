package logic

import (
	"errors"
	"testing"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/model"
)

func TestAddCommentAndReply(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	author := createTestUser(t, db, "author")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)

	parent, err := commentLogic.AddComment(project.Id, author.Id, "great idea", nil)
	if err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	reply, err := commentLogic.AddComment(project.Id, creator.Id, "thanks", &parent.Id)
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if reply.ParentId == nil || *reply.ParentId != parent.Id {
		t.Fatalf("reply not linked to parent")
	}

	comments, err := commentLogic.GetProjectComments(project.Id)
	if err != nil {
		t.Fatalf("failed to list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
}

func TestAddCommentValidation(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)
	other := createTestProject(t, db, creator.Id, 2000)

	commentLogic := NewCommentLogic(db)

	if _, err := commentLogic.AddComment(project.Id, creator.Id, "", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}

	// 父评论必须属于同一个项目
	parent, err := commentLogic.AddComment(other.Id, creator.Id, "elsewhere", nil)
	if err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}
	if _, err := commentLogic.AddComment(project.Id, creator.Id, "cross reply", &parent.Id); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for cross-project parent, got %v", err)
	}
}

func TestUpdateCommentOwnership(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	author := createTestUser(t, db, "author")
	stranger := createTestUser(t, db, "stranger")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)
	comment, err := commentLogic.AddComment(project.Id, author.Id, "original", nil)
	if err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	if err := commentLogic.UpdateComment(comment.Id, stranger.Id, "hijacked"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for non-author update, got %v", err)
	}
	if err := commentLogic.DeleteComment(comment.Id, stranger.Id); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for non-author delete, got %v", err)
	}

	if err := commentLogic.UpdateComment(comment.Id, author.Id, "edited"); err != nil {
		t.Fatalf("author update failed: %v", err)
	}

	var got model.CommentModel
	if err := db.First(&got, comment.Id).Error; err != nil {
		t.Fatalf("failed to reload comment: %v", err)
	}
	if got.Content != "edited" {
		t.Fatalf("expected edited content, got %q", got.Content)
	}
}

func TestDeleteCommentCleansReplies(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)
	parent, err := commentLogic.AddComment(project.Id, creator.Id, "parent", nil)
	if err != nil {
		t.Fatalf("failed to add parent: %v", err)
	}
	if _, err := commentLogic.AddComment(project.Id, creator.Id, "reply", &parent.Id); err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if _, err := commentLogic.ReactToComment(parent.Id, creator.Id, model.ReactionLike); err != nil {
		t.Fatalf("failed to react: %v", err)
	}

	if err := commentLogic.DeleteComment(parent.Id, creator.Id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var comments int64
	db.Model(&model.CommentModel{}).Where("project_id = ?", project.Id).Count(&comments)
	if comments != 0 {
		t.Fatalf("expected replies removed with parent, got %d comments", comments)
	}
	var reactions int64
	db.Model(&model.CommentReactionModel{}).Count(&reactions)
	if reactions != 0 {
		t.Fatalf("expected reactions removed with comment, got %d", reactions)
	}
}

func TestReactToCommentToggleAndOverwrite(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	reactor := createTestUser(t, db, "reactor")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)
	comment, err := commentLogic.AddComment(project.Id, creator.Id, "text", nil)
	if err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	result, err := commentLogic.ReactToComment(comment.Id, reactor.Id, model.ReactionLike)
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if result.Reaction == nil || *result.Reaction != model.ReactionLike {
		t.Fatalf("expected standing LIKE reaction")
	}

	// 相反类型覆盖
	result, err = commentLogic.ReactToComment(comment.Id, reactor.Id, model.ReactionDislike)
	if err != nil {
		t.Fatalf("dislike failed: %v", err)
	}
	if result.Reaction == nil || *result.Reaction != model.ReactionDislike {
		t.Fatalf("expected LIKE overwritten by DISLIKE")
	}

	// 同类型再点一次取消
	result, err = commentLogic.ReactToComment(comment.Id, reactor.Id, model.ReactionDislike)
	if err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	if result.Reaction != nil {
		t.Fatalf("expected reaction removed, got %v", *result.Reaction)
	}

	var count int64
	db.Model(&model.CommentReactionModel{}).Where("comment_id = ?", comment.Id).Count(&count)
	if count != 0 {
		t.Fatalf("expected no reaction rows, got %d", count)
	}
}

func TestReactToCommentInvalidType(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)
	comment, err := commentLogic.AddComment(project.Id, creator.Id, "text", nil)
	if err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	if _, err := commentLogic.ReactToComment(comment.Id, creator.Id, "MEH"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for unknown reaction type, got %v", err)
	}
}

func TestDeleteCommentCleansNestedThread(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)
	root, err := commentLogic.AddComment(project.Id, creator.Id, "root", nil)
	if err != nil {
		t.Fatalf("failed to add root: %v", err)
	}
	reply, err := commentLogic.AddComment(project.Id, creator.Id, "reply", &root.Id)
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	grandchild, err := commentLogic.AddComment(project.Id, creator.Id, "grandchild", &reply.Id)
	if err != nil {
		t.Fatalf("failed to add grandchild: %v", err)
	}
	if _, err := commentLogic.ReactToComment(reply.Id, creator.Id, model.ReactionLike); err != nil {
		t.Fatalf("failed to react to reply: %v", err)
	}
	if _, err := commentLogic.ReactToComment(grandchild.Id, creator.Id, model.ReactionDislike); err != nil {
		t.Fatalf("failed to react to grandchild: %v", err)
	}

	if err := commentLogic.DeleteComment(root.Id, creator.Id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var comments int64
	db.Model(&model.CommentModel{}).Where("project_id = ?", project.Id).Count(&comments)
	if comments != 0 {
		t.Fatalf("expected whole thread removed, got %d comments", comments)
	}
	var reactions int64
	db.Model(&model.CommentReactionModel{}).Count(&reactions)
	if reactions != 0 {
		t.Fatalf("expected no orphan reactions, got %d", reactions)
	}
}

func TestDeleteMidThreadCommentKeepsAncestors(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)

	commentLogic := NewCommentLogic(db)
	root, err := commentLogic.AddComment(project.Id, creator.Id, "root", nil)
	if err != nil {
		t.Fatalf("failed to add root: %v", err)
	}
	reply, err := commentLogic.AddComment(project.Id, creator.Id, "reply", &root.Id)
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if _, err := commentLogic.AddComment(project.Id, creator.Id, "grandchild", &reply.Id); err != nil {
		t.Fatalf("failed to add grandchild: %v", err)
	}

	if err := commentLogic.DeleteComment(reply.Id, creator.Id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// 祖先保留，子树移除，不留指向已删评论的 parent_id
	var remaining []model.CommentModel
	if err := db.Where("project_id = ?", project.Id).Find(&remaining).Error; err != nil {
		t.Fatalf("failed to list comments: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Id != root.Id {
		t.Fatalf("expected only root to survive, got %d comments", len(remaining))
	}
}
