package service

import (
	"aims_backend/internal/grading"
	"aims_backend/internal/model"
	"context"
	"testing"
)

func uintPtr(v uint) *uint { return &v }

// 科目 CO 报表：每个 CO 带达成度与它映射到的 PO 权重，
// 无数据的 CO 保留并标记 dataMissing。
func TestGetSubjectCOReport(t *testing.T) {
	store := newMemStore()
	store.addExam(1, 1, true)
	store.addSection(10, 1, 0)
	store.addQuestion(101, 10, 10, false, uintPtr(1))
	store.addMark(1, 5, 101, 10, 8, 10, true)

	store.cos[7] = []model.CourseOutcome{
		{BaseModel: model.BaseModel{ID: 1}, SubjectID: 7, Code: "CO1"},
		{BaseModel: model.BaseModel{ID: 2}, SubjectID: 7, Code: "CO2"},
	}
	store.coMapping[1] = []grading.COPOWeight{{COID: 1, POID: 2, Strength: 2}}

	svc := NewAttainmentService(store, store, store, newMemEngine(store), nil, nil, 0)

	report, err := svc.GetSubjectCOReport(context.Background(), 7, grading.CohortScope{ExamID: 1})
	if err != nil {
		t.Fatalf("GetSubjectCOReport: %v", err)
	}
	if len(report.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(report.Items))
	}

	co1 := report.Items[0]
	if co1.Code != "CO1" {
		t.Fatalf("first item code = %q, want CO1", co1.Code)
	}
	if co1.DataMissing {
		t.Error("CO1 has counted marks, dataMissing should be false")
	}
	if co1.Percentage != 80 {
		t.Errorf("CO1 percentage = %v, want 80", co1.Percentage)
	}
	if len(co1.Mappings) != 1 || co1.Mappings[0].POID != 2 || co1.Mappings[0].Strength != 2 {
		t.Errorf("CO1 mappings = %+v, want one entry to PO2 with strength 2", co1.Mappings)
	}

	co2 := report.Items[1]
	if !co2.DataMissing {
		t.Error("CO2 has no marks, dataMissing should be true")
	}
	if len(co2.Mappings) != 0 {
		t.Errorf("CO2 mappings = %+v, want none", co2.Mappings)
	}
}
