package grading

import (
	"context"
	"testing"
)

func attainMark(student, qid uint, obtained, max float64) MarkView {
	m := MarkView{ID: qid*100 + student, StudentID: student, QuestionID: qid, MarksObtained: obtained, MaxMarks: max}
	m.Counted = true
	return m
}

func TestRollCO(t *testing.T) {
	attain := &fakeAttainmentStore{byCO: map[uint][]MarkView{
		1: {
			attainMark(1, 101, 8, 10),
			attainMark(1, 102, 6, 10),
			attainMark(2, 101, 10, 10),
		},
	}}
	eng := NewEngine(&fakeCatalog{}, &fakeMarkStore{}, &fakeMappingStore{}, attain, nil, nil)
	scope := CohortScope{ExamID: 5}

	got, err := eng.RollCO(context.Background(), 1, scope)
	if err != nil {
		t.Fatalf("rollCO: %v", err)
	}
	if got.ObtainedSum != 24 || got.PossibleSum != 30 {
		t.Errorf("sums = %v/%v, want 24/30", got.ObtainedSum, got.PossibleSum)
	}
	if got.Percentage != 80 {
		t.Errorf("percentage = %v, want 80", got.Percentage)
	}
	if got.StudentCount != 2 {
		t.Errorf("studentCount = %d, want 2", got.StudentCount)
	}
	if got.DataMissing {
		t.Error("dataMissing set with data present")
	}

	// 无数据的 CO 标记 dataMissing 而不是被遗漏
	empty, err := eng.RollCO(context.Background(), 99, scope)
	if err != nil {
		t.Fatalf("rollCO empty: %v", err)
	}
	if !empty.DataMissing || empty.Percentage != 0 {
		t.Errorf("empty CO = %+v, want dataMissing with 0%%", empty)
	}
}

func TestRollPOWeighted(t *testing.T) {
	// 场景 D：CO1 80%（权重 2）、CO2 50%（权重 1）→ PO = (80*2+50*1)/3 = 70
	attain := &fakeAttainmentStore{byCO: map[uint][]MarkView{
		1: {attainMark(1, 101, 8, 10)},
		2: {attainMark(1, 201, 5, 10)},
	}}
	mappings := &fakeMappingStore{byPO: map[uint][]COPOWeight{
		1: {
			{COID: 1, POID: 1, Strength: 2},
			{COID: 2, POID: 1, Strength: 1},
		},
	}}
	eng := NewEngine(&fakeCatalog{}, &fakeMarkStore{}, mappings, attain, nil, nil)

	got, err := eng.RollPO(context.Background(), 1, CohortScope{ExamID: 5})
	if err != nil {
		t.Fatalf("rollPO: %v", err)
	}
	if got.Percentage != 70 {
		t.Errorf("percentage = %v, want 70 (strength-weighted, not CO-count average)", got.Percentage)
	}
	if got.ContributingCOs != 2 {
		t.Errorf("contributingCOs = %d, want 2", got.ContributingCOs)
	}
}

func TestRollPOSkipsMissingCOs(t *testing.T) {
	attain := &fakeAttainmentStore{byCO: map[uint][]MarkView{
		1: {attainMark(1, 101, 9, 10)},
		// CO2 无数据
	}}
	mappings := &fakeMappingStore{byPO: map[uint][]COPOWeight{
		1: {
			{COID: 1, POID: 1, Strength: 1},
			{COID: 2, POID: 1, Strength: 3},
		},
	}}
	eng := NewEngine(&fakeCatalog{}, &fakeMarkStore{}, mappings, attain, nil, nil)

	got, err := eng.RollPO(context.Background(), 1, CohortScope{ExamID: 5})
	if err != nil {
		t.Fatalf("rollPO: %v", err)
	}
	if got.Percentage != 90 || got.ContributingCOs != 1 {
		t.Errorf("result = %+v, want 90%% from single contributing CO", got)
	}
}

func TestRollPONoMappings(t *testing.T) {
	eng := NewEngine(&fakeCatalog{}, &fakeMarkStore{}, &fakeMappingStore{}, &fakeAttainmentStore{}, nil, nil)
	got, err := eng.RollPO(context.Background(), 42, CohortScope{ExamID: 5})
	if err != nil {
		t.Fatalf("rollPO: %v", err)
	}
	if !got.DataMissing {
		t.Error("PO without mappings must report dataMissing")
	}
}

func TestRollPOContextCancelled(t *testing.T) {
	attain := &fakeAttainmentStore{byCO: map[uint][]MarkView{1: {attainMark(1, 101, 9, 10)}}}
	mappings := &fakeMappingStore{byPO: map[uint][]COPOWeight{
		1: {{COID: 1, POID: 1, Strength: 1}},
	}}
	eng := NewEngine(&fakeCatalog{}, &fakeMarkStore{}, mappings, attain, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.RollPO(ctx, 1, CohortScope{ExamID: 5}); err == nil {
		t.Error("cancelled context not honoured")
	}
}
