package service

import (
	"aims_backend/internal/util"
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestDeleteMarkRecomputesSection(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, true)
	store.addSection(10, 1, 1)
	store.addQuestion(101, 10, 10, true, nil)
	store.addQuestion(102, 10, 10, true, nil)
	store.addMark(1, 5, 101, 10, 9, 10, true)
	store.addMark(2, 5, 102, 10, 7, 10, false)

	svc := NewMarksService(store, store, newMemEngine(store))

	if err := svc.DeleteMark(context.Background(), 1); err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}

	if _, err := store.FindByID(1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted mark still present, err = %v", err)
	}
	survivor, err := store.FindByID(2)
	if err != nil {
		t.Fatalf("FindByID(2): %v", err)
	}
	if !survivor.Counted {
		t.Error("surviving mark should be counted after recompute")
	}
}

// 被删得分对应的题目已经不在试卷上（题目先被删）时，
// 删除得分仍要重算该分区，剩余得分收敛到正确的计入集合。
func TestDeleteMarkRecomputesWhenQuestionGone(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, true)
	store.addSection(10, 1, 1)
	store.addQuestion(102, 10, 10, true, nil)
	store.addMark(1, 5, 101, 10, 9, 10, true)
	store.addMark(2, 5, 102, 10, 7, 10, false)

	svc := NewMarksService(store, store, newMemEngine(store))

	if err := svc.DeleteMark(context.Background(), 1); err != nil {
		t.Fatalf("DeleteMark: %v", err)
	}

	survivor, err := store.FindByID(2)
	if err != nil {
		t.Fatalf("FindByID(2): %v", err)
	}
	if !survivor.Counted {
		t.Error("surviving mark should become counted once the orphaned one is removed")
	}
}

func TestDeleteMarkNotFound(t *testing.T) {
	store := newMemStore()
	svc := NewMarksService(store, store, newMemEngine(store))

	if err := svc.DeleteMark(context.Background(), 99); !errors.Is(err, util.ErrMarkNotFound) {
		t.Fatalf("expected ErrMarkNotFound, got %v", err)
	}
}
