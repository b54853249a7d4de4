package grading

import (
	"errors"
	"testing"
)

func countedMark(id, qid uint, obtained, max float64) MarkView {
	m := mark(id, qid, obtained, max)
	m.Counted = true
	return m
}

func TestAggregateCounted(t *testing.T) {
	bands := DefaultBandTable()

	tests := []struct {
		name         string
		marks        []MarkView
		wantObtained float64
		wantPossible float64
		wantPercent  float64
		wantGrade    string
	}{
		{
			name: "scenario A best four of five",
			marks: []MarkView{
				countedMark(1, 101, 10, 10),
				countedMark(2, 102, 8, 10),
				countedMark(3, 103, 6, 10),
				countedMark(4, 104, 4, 10),
				mark(5, 105, 2, 10), // not counted
			},
			wantObtained: 28,
			wantPossible: 40,
			wantPercent:  70,
			wantGrade:    "B+",
		},
		{
			name: "scenario B two attempts against quota four",
			marks: []MarkView{
				countedMark(1, 101, 10, 10),
				countedMark(2, 102, 8, 10),
			},
			wantObtained: 18,
			wantPossible: 20,
			wantPercent:  90,
			wantGrade:    "A+",
		},
		{
			name:         "no counted marks",
			marks:        []MarkView{mark(1, 101, 5, 10)},
			wantObtained: 0,
			wantPossible: 0,
			wantPercent:  0,
			wantGrade:    "F",
		},
		{
			name: "full marks is exactly 100",
			marks: []MarkView{
				countedMark(1, 101, 10, 10),
				countedMark(2, 102, 5, 5),
			},
			wantObtained: 15,
			wantPossible: 15,
			wantPercent:  100,
			wantGrade:    "A+",
		},
		{
			name: "rounding to two decimals",
			marks: []MarkView{
				countedMark(1, 101, 1, 3),
			},
			wantObtained: 1,
			wantPossible: 3,
			wantPercent:  33.33,
			wantGrade:    "F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregateCounted(bands, tt.marks)
			if got.ObtainedTotal != tt.wantObtained {
				t.Errorf("obtained = %v, want %v", got.ObtainedTotal, tt.wantObtained)
			}
			if got.PossibleTotal != tt.wantPossible {
				t.Errorf("possible = %v, want %v", got.PossibleTotal, tt.wantPossible)
			}
			if got.Percentage != tt.wantPercent {
				t.Errorf("percentage = %v, want %v", got.Percentage, tt.wantPercent)
			}
			if got.GradeBand != tt.wantGrade {
				t.Errorf("grade = %q, want %q", got.GradeBand, tt.wantGrade)
			}
			if got.Percentage < 0 || got.Percentage > 100 {
				t.Errorf("percentage %v out of [0,100]", got.Percentage)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	bands := DefaultBandTable()
	got := Combine(bands,
		AggregateResult{ObtainedTotal: 28, PossibleTotal: 40},
		AggregateResult{ObtainedTotal: 18, PossibleTotal: 20},
	)
	if got.ObtainedTotal != 46 || got.PossibleTotal != 60 {
		t.Errorf("totals = %v/%v, want 46/60", got.ObtainedTotal, got.PossibleTotal)
	}
	if got.Percentage != 76.67 {
		t.Errorf("percentage = %v, want 76.67", got.Percentage)
	}
	if got.GradeBand != "B+" {
		t.Errorf("grade = %q, want B+", got.GradeBand)
	}

	empty := Combine(bands)
	if empty.Percentage != 0 || empty.GradeBand != "F" {
		t.Errorf("empty combine = %+v", empty)
	}
}

func TestValidateMarks(t *testing.T) {
	section := &SectionView{
		ID: 1,
		Questions: []QuestionView{
			{ID: 101, MaxMarks: 10},
			{ID: 102, MaxMarks: 5},
		},
	}

	if err := validateMarks(section, []MarkView{mark(1, 101, 8, 10)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := validateMarks(section, []MarkView{mark(2, 102, 4, 10)})
	var incons *InconsistentMarkError
	if !errors.As(err, &incons) {
		t.Fatalf("error = %v, want InconsistentMarkError", err)
	}
	if incons.MarkID != 2 || incons.EntryMax != 10 || incons.QuestionPoints != 5 {
		t.Errorf("unexpected detail: %+v", incons)
	}

	// 指向不存在题目的记录同样拒绝
	if err := validateMarks(section, []MarkView{mark(3, 999, 4, 10)}); !errors.As(err, &incons) {
		t.Fatalf("error = %v, want InconsistentMarkError", err)
	}
}

func TestBandTable(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "A+"}, {90, "A+"}, {89.99, "A"}, {80, "A"},
		{70, "B+"}, {60, "B"}, {55, "C+"}, {50, "C"},
		{40, "D"}, {39.99, "F"}, {0, "F"},
	}
	bands := DefaultBandTable()
	for _, tt := range tests {
		if got := bands.Grade(tt.pct); got != tt.want {
			t.Errorf("Grade(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestNewBandTableValidation(t *testing.T) {
	if _, err := NewBandTable(nil); err == nil {
		t.Error("empty table accepted")
	}
	if _, err := NewBandTable([]Band{{Grade: "", Threshold: 50}}); err == nil {
		t.Error("empty grade accepted")
	}
	if _, err := NewBandTable([]Band{{Grade: "A", Threshold: 50}, {Grade: "B", Threshold: 50}}); err == nil {
		t.Error("duplicate threshold accepted")
	}
	if _, err := NewBandTable([]Band{{Grade: "A", Threshold: 120}}); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}
