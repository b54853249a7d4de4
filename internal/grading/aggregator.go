package grading

import (
	"math"
)

// Round2 四舍五入保留两位小数，所有对外百分比统一经过这里
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// aggregateCounted 对已计入总分的得分行求和。
// 分母只累计 counted 记录的满分，而不是分区全部题目的满分：
// 未作答的多余选做题不计入分母，百分比不会超过 100。
func aggregateCounted(bands *BandTable, marks []MarkView) AggregateResult {
	var obtained, possible float64
	for _, m := range marks {
		if !m.Counted {
			continue
		}
		obtained += m.MarksObtained
		possible += m.MaxMarks
	}

	res := AggregateResult{
		ObtainedTotal: obtained,
		PossibleTotal: possible,
	}
	if possible > 0 {
		res.Percentage = Round2(obtained / possible * 100)
	}
	res.GradeBand = bands.Grade(res.Percentage)
	return res
}

// Combine 把多个分区的聚合结果合并为整卷结果，百分比和等级重新计算
func Combine(bands *BandTable, results ...AggregateResult) AggregateResult {
	var obtained, possible float64
	for _, r := range results {
		obtained += r.ObtainedTotal
		possible += r.PossibleTotal
	}
	res := AggregateResult{
		ObtainedTotal: obtained,
		PossibleTotal: possible,
	}
	if possible > 0 {
		res.Percentage = Round2(obtained / possible * 100)
	}
	res.GradeBand = bands.Grade(res.Percentage)
	return res
}

// validateMarks 校验得分行与分区题目的一致性，发现分值不符即拒绝聚合
func validateMarks(section *SectionView, marks []MarkView) error {
	questions := make(map[uint]QuestionView, len(section.Questions))
	for _, q := range section.Questions {
		questions[q.ID] = q
	}
	for _, m := range marks {
		q, ok := questions[m.QuestionID]
		if !ok || m.MaxMarks != q.MaxMarks {
			return &InconsistentMarkError{
				MarkID:         m.ID,
				QuestionID:     m.QuestionID,
				EntryMax:       m.MaxMarks,
				QuestionPoints: q.MaxMarks,
			}
		}
	}
	return nil
}
