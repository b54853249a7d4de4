package grading

import (
	"reflect"
	"sort"
	"testing"
)

func mark(id, qid uint, obtained, max float64) MarkView {
	return MarkView{ID: id, StudentID: 1, QuestionID: qid, MarksObtained: obtained, MaxMarks: max}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name          string
		quota         int
		group         []MarkView
		wantCounted   []uint
		wantNotCount  []uint
	}{
		{
			name:  "best four of five attempts",
			quota: 4,
			group: []MarkView{
				mark(11, 101, 10, 10),
				mark(12, 102, 8, 10),
				mark(13, 103, 6, 10),
				mark(14, 104, 4, 10),
				mark(15, 105, 2, 10),
			},
			wantCounted:  []uint{11, 12, 13, 14},
			wantNotCount: []uint{15},
		},
		{
			name:  "fewer attempts than quota all count",
			quota: 4,
			group: []MarkView{
				mark(21, 101, 10, 10),
				mark(22, 102, 8, 10),
			},
			wantCounted:  []uint{21, 22},
			wantNotCount: nil,
		},
		{
			name:  "zero quota is fail open",
			quota: 0,
			group: []MarkView{
				mark(31, 101, 3, 10),
				mark(32, 102, 1, 10),
				mark(33, 103, 0, 10),
			},
			wantCounted:  []uint{31, 32, 33},
			wantNotCount: nil,
		},
		{
			name:  "tie broken by lowest question id",
			quota: 1,
			group: []MarkView{
				mark(42, 102, 8, 10),
				mark(41, 101, 8, 10),
			},
			wantCounted:  []uint{41},
			wantNotCount: []uint{42},
		},
		{
			name:         "empty group",
			quota:        4,
			group:        nil,
			wantCounted:  nil,
			wantNotCount: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counted, notCounted := Select(tt.quota, tt.group)
			if !sameIDSet(counted, tt.wantCounted) {
				t.Errorf("counted = %v, want %v", counted, tt.wantCounted)
			}
			if !sameIDSet(notCounted, tt.wantNotCount) {
				t.Errorf("notCounted = %v, want %v", notCounted, tt.wantNotCount)
			}
		})
	}
}

func TestSelectDeterministic(t *testing.T) {
	group := []MarkView{
		mark(1, 105, 7, 10),
		mark(2, 101, 7, 10),
		mark(3, 103, 7, 10),
		mark(4, 102, 9, 10),
		mark(5, 104, 7, 10),
	}
	first, _ := Select(3, group)
	for i := 0; i < 50; i++ {
		// 打乱输入顺序，结果必须逐位一致
		shuffled := append([]MarkView(nil), group...)
		for j := range shuffled {
			k := (j*7 + i) % len(shuffled)
			shuffled[j], shuffled[k] = shuffled[k], shuffled[j]
		}
		counted, _ := Select(3, shuffled)
		if !reflect.DeepEqual(sortedIDs(counted), sortedIDs(first)) {
			t.Fatalf("run %d: counted = %v, want %v", i, counted, first)
		}
	}
	// 9 分的必选，7 分平分时低题号优先：101、103
	want := []uint{2, 3, 4}
	if !sameIDSet(first, want) {
		t.Errorf("counted = %v, want %v", first, want)
	}
}

func TestSelectQuotaNeverExceeded(t *testing.T) {
	group := []MarkView{
		mark(1, 101, 5, 10),
		mark(2, 102, 6, 10),
		mark(3, 103, 7, 10),
		mark(4, 104, 8, 10),
		mark(5, 105, 9, 10),
		mark(6, 106, 10, 10),
	}
	for quota := 0; quota <= 8; quota++ {
		counted, notCounted := Select(quota, group)
		limit := len(group)
		if quota > 0 && quota < limit {
			limit = quota
		}
		if len(counted) != limit {
			t.Errorf("quota %d: counted %d entries, want %d", quota, len(counted), limit)
		}
		if len(counted)+len(notCounted) != len(group) {
			t.Errorf("quota %d: partition lost entries", quota)
		}
	}
}

func TestSelectBestAttemptsProperty(t *testing.T) {
	group := []MarkView{
		mark(1, 101, 3, 10),
		mark(2, 102, 9, 10),
		mark(3, 103, 1, 10),
		mark(4, 104, 9, 10),
		mark(5, 105, 5, 10),
	}
	counted, notCounted := Select(3, group)

	byID := make(map[uint]MarkView)
	for _, m := range group {
		byID[m.ID] = m
	}
	minCounted := 11.0
	for _, id := range counted {
		if byID[id].MarksObtained < minCounted {
			minCounted = byID[id].MarksObtained
		}
	}
	for _, id := range notCounted {
		if byID[id].MarksObtained > minCounted {
			t.Errorf("not-counted entry %d scored %.1f above counted minimum %.1f",
				id, byID[id].MarksObtained, minCounted)
		}
	}
}

func sortedIDs(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sameIDSet(got, want []uint) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(sortedIDs(got), sortedIDs(want))
}
