package grading

import (
	"sort"
)

// Select 从同一分值组的得分记录中选出计入总分的子集。
// 按得分降序排列，得分相同按题目 ID 升序，保证任意两次运行结果一致。
// quota <= 0 视为未配置，全部计入；实际作答少于 quota 时已作答的全部计入。
func Select(quota int, group []MarkView) (counted, notCounted []uint) {
	if len(group) == 0 {
		return nil, nil
	}

	sorted := make([]MarkView, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MarksObtained != sorted[j].MarksObtained {
			return sorted[i].MarksObtained > sorted[j].MarksObtained
		}
		return sorted[i].QuestionID < sorted[j].QuestionID
	})

	take := len(sorted)
	if quota > 0 && quota < take {
		take = quota
	}

	for i, m := range sorted {
		if i < take {
			counted = append(counted, m.ID)
		} else {
			notCounted = append(notCounted, m.ID)
		}
	}
	return counted, notCounted
}

// splitCounted 根据分区元数据把得分记录划分为计入/不计入两组。
// 必答题恒计入；选做题按满分分值分组后逐组执行 Select。
// 选做规则只在等分值的题目之间才有意义，所以先按 MaxMarks 分组。
func splitCounted(section *SectionView, marks []MarkView) (counted, notCounted []uint, err error) {
	questions := make(map[uint]QuestionView, len(section.Questions))
	groupSize := make(map[float64]int)
	for _, q := range section.Questions {
		questions[q.ID] = q
		if q.IsOptional {
			groupSize[q.MaxMarks]++
		}
	}

	// 选做数量超过组内实际题目数是出卷错误，直接上报
	if section.QuestionsToAttempt > 0 {
		for pv, n := range groupSize {
			if section.QuestionsToAttempt > n {
				return nil, nil, &ConfigurationError{
					SectionID:  section.ID,
					PointValue: pv,
					Quota:      section.QuestionsToAttempt,
					GroupSize:  n,
				}
			}
		}
	}

	optional := make(map[float64][]MarkView)
	for _, m := range marks {
		q, ok := questions[m.QuestionID]
		if !ok || m.MaxMarks != q.MaxMarks {
			return nil, nil, &InconsistentMarkError{
				MarkID:         m.ID,
				QuestionID:     m.QuestionID,
				EntryMax:       m.MaxMarks,
				QuestionPoints: q.MaxMarks,
			}
		}
		if !q.IsOptional {
			counted = append(counted, m.ID)
			continue
		}
		optional[q.MaxMarks] = append(optional[q.MaxMarks], m)
	}

	// 遍历顺序不影响结果：组之间互不相交，组内由 Select 保证确定性
	for _, group := range optional {
		c, nc := Select(section.QuestionsToAttempt, group)
		counted = append(counted, c...)
		notCounted = append(notCounted, nc...)
	}
	return counted, notCounted, nil
}
