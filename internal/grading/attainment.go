package grading

import (
	"context"
)

// RollCO 统计一个 CO 在给定群体范围内的达成度。
// 范围内没有任何计入的得分时返回 DataMissing 而不是报错，
// 批量汇总不因个别 CO 缺数据而中断。
func (e *Engine) RollCO(ctx context.Context, coID uint, scope CohortScope) (COAttainment, error) {
	if err := ctx.Err(); err != nil {
		return COAttainment{}, err
	}

	marks, err := e.attain.ListCountedMarksForCO(ctx, coID, scope)
	if err != nil {
		return COAttainment{}, err
	}

	res := COAttainment{COID: coID}
	if len(marks) == 0 {
		res.DataMissing = true
		return res, nil
	}

	students := make(map[uint]struct{})
	for _, m := range marks {
		res.ObtainedSum += m.MarksObtained
		res.PossibleSum += m.MaxMarks
		students[m.StudentID] = struct{}{}
	}
	res.StudentCount = len(students)
	if res.PossibleSum > 0 {
		res.Percentage = Round2(res.ObtainedSum / res.PossibleSum * 100)
	}
	return res, nil
}

// RollPO 按映射权重汇总一个 PO 的达成度：
// Σ(CO达成度×权重) / Σ(权重)。除数是权重之和而不是 CO 个数。
// 缺数据的 CO 不参与分子分母；全部缺数据时整体 DataMissing。
// 群体扫描可能覆盖大量学生，每个 CO 之间响应 ctx 取消。
func (e *Engine) RollPO(ctx context.Context, poID uint, scope CohortScope) (POAttainment, error) {
	mappings, err := e.mappings.ListMappingsForPO(ctx, poID)
	if err != nil {
		return POAttainment{}, err
	}

	res := POAttainment{POID: poID}
	if len(mappings) == 0 {
		res.DataMissing = true
		return res, nil
	}

	var weightedSum, strengthSum float64
	for _, m := range mappings {
		if err := ctx.Err(); err != nil {
			return POAttainment{}, err
		}
		co, err := e.RollCO(ctx, m.COID, scope)
		if err != nil {
			return POAttainment{}, err
		}
		if co.DataMissing || m.Strength <= 0 {
			continue
		}
		weightedSum += co.Percentage * m.Strength
		strengthSum += m.Strength
		res.ContributingCOs++
	}

	if strengthSum == 0 {
		res.DataMissing = true
		return res, nil
	}
	res.Percentage = Round2(weightedSum / strengthSum)
	return res, nil
}
