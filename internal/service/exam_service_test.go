package service

import (
	"aims_backend/internal/util"
	"context"
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

// 配额调整会改变既有得分的计入集合，保存后必须对分区内
// 全部学生重算。
func TestUpdateSectionQuotaChangeReprocessesMarks(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, false)
	store.addSection(10, 1, 2)
	store.addQuestion(101, 10, 10, true, nil)
	store.addQuestion(102, 10, 10, true, nil)
	store.addMark(1, 5, 101, 10, 9, 10, true)
	store.addMark(2, 5, 102, 10, 7, 10, true)

	marks := NewMarksService(store, store, newMemEngine(store))
	svc := NewExamService(store, marks)

	section, err := svc.UpdateSection(context.Background(), 10, SectionUpdateRequest{QuestionsToAttempt: intPtr(1)})
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if section.QuestionsToAttempt != 1 {
		t.Fatalf("quota = %d, want 1", section.QuestionsToAttempt)
	}

	best, _ := store.FindByID(1)
	other, _ := store.FindByID(2)
	if !best.Counted {
		t.Error("best attempt should stay counted after quota change")
	}
	if other.Counted {
		t.Error("excess attempt should be excluded after quota drops to 1")
	}
}

func TestUpdateSectionWithoutQuotaChangeKeepsFlags(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, false)
	store.addSection(10, 1, 1)
	store.addQuestion(101, 10, 10, true, nil)
	store.addMark(1, 5, 101, 10, 9, 10, true)

	marks := NewMarksService(store, store, newMemEngine(store))
	svc := NewExamService(store, marks)

	name := "Part B"
	if _, err := svc.UpdateSection(context.Background(), 10, SectionUpdateRequest{Name: &name}); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	m, _ := store.FindByID(1)
	if !m.Counted {
		t.Error("counted flag must not change on a rename")
	}
}

// 有得分记录的题目不可删除，否则遗留的得分行会让后续重算
// 永远报不一致。
func TestDeleteQuestionRefusedWhenMarksExist(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, false)
	store.addSection(10, 1, 1)
	store.addQuestion(101, 10, 10, true, nil)
	store.addQuestion(102, 10, 10, true, nil)
	store.addMark(1, 5, 101, 10, 9, 10, true)

	marks := NewMarksService(store, store, newMemEngine(store))
	svc := NewExamService(store, marks)

	if err := svc.DeleteQuestion(101); !errors.Is(err, util.ErrQuestionHasMarks) {
		t.Fatalf("expected ErrQuestionHasMarks, got %v", err)
	}
	if _, err := store.FindQuestionByID(101); err != nil {
		t.Error("refused delete must leave the question in place")
	}

	// 没有得分的题目正常删除
	if err := svc.DeleteQuestion(102); err != nil {
		t.Fatalf("DeleteQuestion(102): %v", err)
	}
}

func TestDeleteQuestionFrozenAfterPublish(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, true)
	store.addSection(10, 1, 0)
	store.addQuestion(101, 10, 10, false, nil)

	marks := NewMarksService(store, store, newMemEngine(store))
	svc := NewExamService(store, marks)

	if err := svc.DeleteQuestion(101); !errors.Is(err, util.ErrExamPublished) {
		t.Fatalf("expected ErrExamPublished, got %v", err)
	}
}
