package logic

import (
	"errors"
	"testing"

	"github.com/boundless/grants-service/internal/apperr"
	"github.com/boundless/grants-service/internal/model"
)

func TestToggleVoteRoundTrip(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	voter := createTestUser(t, db, "voter")
	project := createTestProject(t, db, creator.Id, 1000)

	voteLogic := NewVoteLogic(db)

	result, err := voteLogic.ToggleVote(project.Id, voter.Id)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !result.Voted {
		t.Fatalf("expected voted=true after first toggle")
	}
	if result.VoteCount != 1 {
		t.Fatalf("expected vote count 1, got %d", result.VoteCount)
	}

	result, err = voteLogic.ToggleVote(project.Id, voter.Id)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if result.Voted {
		t.Fatalf("expected voted=false after second toggle")
	}
	if result.VoteCount != 0 {
		t.Fatalf("expected vote count 0 after un-vote, got %d", result.VoteCount)
	}

	voted, err := voteLogic.HasVoted(project.Id, voter.Id)
	if err != nil {
		t.Fatalf("HasVoted failed: %v", err)
	}
	if voted {
		t.Fatalf("expected no standing vote after round trip")
	}
}

func TestToggleVoteCountsDistinctUsers(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)

	voteLogic := NewVoteLogic(db)

	for i := int64(1); i <= 3; i++ {
		result, err := voteLogic.ToggleVote(project.Id, 100+i)
		if err != nil {
			t.Fatalf("toggle for user %d failed: %v", 100+i, err)
		}
		if result.VoteCount != i {
			t.Fatalf("expected vote count %d, got %d", i, result.VoteCount)
		}
	}

	count, err := voteLogic.CountVotes(project.Id)
	if err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 votes, got %d", count)
	}
}

func TestToggleVoteRejectedIdea(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator")
	project := createTestProject(t, db, creator.Id, 1000)

	err := db.Model(&model.ProjectModel{}).Where("id = ?", project.Id).
		Update("idea_status", model.IdeaStatusRejected).Error
	if err != nil {
		t.Fatalf("failed to reject idea: %v", err)
	}

	voteLogic := NewVoteLogic(db)
	_, err = voteLogic.ToggleVote(project.Id, 42)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error voting on rejected idea, got %v", err)
	}
}

func TestToggleVoteUnknownProject(t *testing.T) {
	db := newTestDB(t)
	voteLogic := NewVoteLogic(db)

	_, err := voteLogic.ToggleVote(99999, 42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
