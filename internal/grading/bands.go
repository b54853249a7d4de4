package grading

import (
	"errors"
	"fmt"
	"sort"
)

// Band 一个等级档位，Threshold 为下界（含）
type Band struct {
	Grade     string
	Threshold float64
}

// BandTable 等级对照表，按阈值从高到低匹配，percentage >= threshold 即命中
type BandTable struct {
	bands []Band
}

// NewBandTable 构造等级表并校验：等级名非空、阈值不重复且在 [0,100] 内
func NewBandTable(bands []Band) (*BandTable, error) {
	if len(bands) == 0 {
		return nil, errors.New("empty grade band table")
	}
	seen := make(map[float64]bool, len(bands))
	for _, b := range bands {
		if b.Grade == "" {
			return nil, errors.New("grade band with empty grade")
		}
		if b.Threshold < 0 || b.Threshold > 100 {
			return nil, fmt.Errorf("grade band %q threshold %.2f out of range", b.Grade, b.Threshold)
		}
		if seen[b.Threshold] {
			return nil, fmt.Errorf("duplicate grade band threshold %.2f", b.Threshold)
		}
		seen[b.Threshold] = true
	}
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold > sorted[j].Threshold })
	return &BandTable{bands: sorted}, nil
}

// DefaultBandTable 默认等级表
func DefaultBandTable() *BandTable {
	t, _ := NewBandTable([]Band{
		{Grade: "A+", Threshold: 90},
		{Grade: "A", Threshold: 80},
		{Grade: "B+", Threshold: 70},
		{Grade: "B", Threshold: 60},
		{Grade: "C+", Threshold: 55},
		{Grade: "C", Threshold: 50},
		{Grade: "D", Threshold: 40},
		{Grade: "F", Threshold: 0},
	})
	return t
}

// Grade 返回百分比对应的等级；低于所有档位时返回最低档
func (t *BandTable) Grade(percentage float64) string {
	for _, b := range t.bands {
		if percentage >= b.Threshold {
			return b.Grade
		}
	}
	return t.bands[len(t.bands)-1].Grade
}
