package grading

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeCatalog struct {
	sections map[uint]*SectionView
}

func (c *fakeCatalog) GetSection(_ context.Context, sectionID uint) (*SectionView, error) {
	s, ok := c.sections[sectionID]
	if !ok {
		return nil, ErrSectionNotFound
	}
	return s, nil
}

type fakeMarkStore struct {
	marks        map[uint][]MarkView // sectionID -> 全部学生的记录
	failPersist  bool
	persistCalls int
}

func (s *fakeMarkStore) list(studentID, sectionID uint) []MarkView {
	var out []MarkView
	for _, m := range s.marks[sectionID] {
		if m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeMarkStore) ListMarks(_ context.Context, studentID, sectionID uint) ([]MarkView, error) {
	return s.list(studentID, sectionID), nil
}

func (s *fakeMarkStore) RecomputeCounted(_ context.Context, studentID, sectionID uint, compute RecomputeFunc) error {
	counted, notCounted, err := compute(s.list(studentID, sectionID))
	if err != nil {
		return err
	}
	s.persistCalls++
	if s.failPersist {
		return &PersistenceError{Err: errors.New("connection lost")}
	}
	flag := make(map[uint]bool, len(counted)+len(notCounted))
	for _, id := range counted {
		flag[id] = true
	}
	for _, id := range notCounted {
		flag[id] = false
	}
	rows := s.marks[sectionID]
	for i := range rows {
		if v, ok := flag[rows[i].ID]; ok {
			rows[i].Counted = v
		}
	}
	return nil
}

type fakeMappingStore struct {
	byPO map[uint][]COPOWeight
}

func (m *fakeMappingStore) ListMappingsForPO(_ context.Context, poID uint) ([]COPOWeight, error) {
	return m.byPO[poID], nil
}

type fakeAttainmentStore struct {
	byCO map[uint][]MarkView
}

func (a *fakeAttainmentStore) ListCountedMarksForCO(_ context.Context, coID uint, _ CohortScope) ([]MarkView, error) {
	return a.byCO[coID], nil
}

type fakePublisher struct {
	events []Event
	err    error
}

func (p *fakePublisher) Publish(evt Event) error {
	p.events = append(p.events, evt)
	return p.err
}

func optionalSection(id uint, quota int, questionIDs []uint, points float64) *SectionView {
	s := &SectionView{ID: id, QuestionsToAttempt: quota}
	for _, qid := range questionIDs {
		s.Questions = append(s.Questions, QuestionView{ID: qid, MaxMarks: points, IsOptional: true})
	}
	return s
}

func newTestEngine(catalog Catalog, marks MarkStore, pub Publisher) *Engine {
	return NewEngine(catalog, marks, &fakeMappingStore{}, &fakeAttainmentStore{}, pub, nil)
}

func TestRecomputeSection(t *testing.T) {
	section := optionalSection(7, 4, []uint{101, 102, 103, 104, 105, 106}, 10)
	store := &fakeMarkStore{marks: map[uint][]MarkView{
		7: {
			mark(11, 101, 10, 10),
			mark(12, 102, 8, 10),
			mark(13, 103, 6, 10),
			mark(14, 104, 4, 10),
			mark(15, 105, 2, 10),
		},
	}}
	pub := &fakePublisher{}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, pub)

	if err := eng.RecomputeSection(context.Background(), 1, 7); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if eng.IsDirty(1, 7) {
		t.Error("pair still dirty after successful recompute")
	}

	var counted []uint
	for _, m := range store.marks[7] {
		if m.Counted {
			counted = append(counted, m.ID)
		}
	}
	want := []uint{11, 12, 13, 14}
	if !sameIDSet(counted, want) {
		t.Errorf("counted = %v, want %v", counted, want)
	}

	if len(pub.events) != 1 || pub.events[0].Type != EventMarkRecomputed {
		t.Fatalf("events = %+v, want one %s", pub.events, EventMarkRecomputed)
	}
	if pub.events[0].StudentID != 1 || pub.events[0].SectionID != 7 {
		t.Errorf("event scope = %+v", pub.events[0])
	}
}

func TestRecomputeSectionIdempotent(t *testing.T) {
	section := optionalSection(7, 2, []uint{101, 102, 103}, 5)
	store := &fakeMarkStore{marks: map[uint][]MarkView{
		7: {
			mark(1, 101, 4, 5),
			mark(2, 102, 4, 5),
			mark(3, 103, 5, 5),
		},
	}}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, nil)

	if err := eng.RecomputeSection(context.Background(), 1, 7); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	snapshot := append([]MarkView(nil), store.marks[7]...)

	if err := eng.RecomputeSection(context.Background(), 1, 7); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if !reflect.DeepEqual(store.marks[7], snapshot) {
		t.Errorf("second run changed assignment: %+v vs %+v", store.marks[7], snapshot)
	}
}

func TestRecomputeSectionKeepsRequiredCounted(t *testing.T) {
	section := &SectionView{
		ID:                 7,
		QuestionsToAttempt: 1,
		Questions: []QuestionView{
			{ID: 100, MaxMarks: 20, IsOptional: false},
			{ID: 101, MaxMarks: 10, IsOptional: true},
			{ID: 102, MaxMarks: 10, IsOptional: true},
		},
	}
	store := &fakeMarkStore{marks: map[uint][]MarkView{
		7: {
			mark(1, 100, 0, 20), // 必答题 0 分也恒计入
			mark(2, 101, 3, 10),
			mark(3, 102, 9, 10),
		},
	}}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, nil)

	if err := eng.RecomputeSection(context.Background(), 1, 7); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	var counted []uint
	for _, m := range store.marks[7] {
		if m.Counted {
			counted = append(counted, m.ID)
		}
	}
	if !sameIDSet(counted, []uint{1, 3}) {
		t.Errorf("counted = %v, want [1 3]", counted)
	}
}

func TestRecomputeSectionConfigurationError(t *testing.T) {
	// 选做数量 4 大于组内实际题目数 3
	section := optionalSection(7, 4, []uint{101, 102, 103}, 10)
	store := &fakeMarkStore{marks: map[uint][]MarkView{
		7: {mark(1, 101, 8, 10)},
	}}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, nil)

	err := eng.RecomputeSection(context.Background(), 1, 7)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want ConfigurationError", err)
	}
	if cfgErr.Quota != 4 || cfgErr.GroupSize != 3 {
		t.Errorf("detail = %+v", cfgErr)
	}
	if !eng.IsDirty(1, 7) {
		t.Error("pair not dirty after failed recompute")
	}
}

func TestRecomputeSectionPersistFailureStaysDirty(t *testing.T) {
	section := optionalSection(7, 1, []uint{101, 102}, 10)
	store := &fakeMarkStore{
		marks:       map[uint][]MarkView{7: {mark(1, 101, 8, 10), mark(2, 102, 6, 10)}},
		failPersist: true,
	}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, nil)

	err := eng.RecomputeSection(context.Background(), 1, 7)
	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("error = %v, want PersistenceError", err)
	}
	if !eng.IsDirty(1, 7) {
		t.Error("pair not dirty after persistence failure")
	}

	// 恢复后重试收敛
	store.failPersist = false
	if err := eng.RecomputeSection(context.Background(), 1, 7); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if eng.IsDirty(1, 7) {
		t.Error("pair dirty after successful retry")
	}
}

func TestRecomputeSectionPublishFailureIsNotFatal(t *testing.T) {
	section := optionalSection(7, 1, []uint{101}, 10)
	store := &fakeMarkStore{marks: map[uint][]MarkView{7: {mark(1, 101, 8, 10)}}}
	pub := &fakePublisher{err: errors.New("redis down")}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, pub)

	if err := eng.RecomputeSection(context.Background(), 1, 7); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if eng.IsDirty(1, 7) {
		t.Error("publish failure must not leave pair dirty")
	}
}

func TestAggregateSection(t *testing.T) {
	section := &SectionView{
		ID: 7,
		Questions: []QuestionView{
			{ID: 101, MaxMarks: 10, IsOptional: true},
			{ID: 102, MaxMarks: 10, IsOptional: true},
		},
	}
	store := &fakeMarkStore{marks: map[uint][]MarkView{
		7: {countedMark(1, 101, 10, 10), mark(2, 102, 2, 10)},
	}}
	eng := newTestEngine(&fakeCatalog{sections: map[uint]*SectionView{7: section}}, store, nil)

	got, err := eng.AggregateSection(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := AggregateResult{ObtainedTotal: 10, PossibleTotal: 10, Percentage: 100, GradeBand: "A+"}
	if got != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
}

func TestSetBandTable(t *testing.T) {
	eng := newTestEngine(&fakeCatalog{}, &fakeMarkStore{}, nil)
	custom, err := NewBandTable([]Band{{Grade: "PASS", Threshold: 50}, {Grade: "FAIL", Threshold: 0}})
	if err != nil {
		t.Fatal(err)
	}
	eng.SetBandTable(custom)
	if g := eng.BandTable().Grade(60); g != "PASS" {
		t.Errorf("grade = %q, want PASS", g)
	}
	eng.SetBandTable(nil) // nil 忽略
	if g := eng.BandTable().Grade(60); g != "PASS" {
		t.Errorf("grade after nil set = %q, want PASS", g)
	}
}
