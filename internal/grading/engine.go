package grading

import (
	"context"
	"sync"
	"time"

	"aims_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine 选做题计分与达成度统计引擎，单一入口，供各 CRUD 服务调用。
// 所有 I/O 通过注入的存储接口完成，引擎本身不持有数据库连接。
type Engine struct {
	catalog  Catalog
	marks    MarkStore
	mappings MappingStore
	attain   AttainmentStore
	pub      Publisher
	log      *zap.Logger

	bandsMu sync.RWMutex
	bands   *BandTable

	// Dirty 状态表：自上次成功重算以来发生过写入的 (student, section)
	dirtyMu sync.Mutex
	dirty   map[pairKey]struct{}
}

type pairKey struct {
	studentID uint
	sectionID uint
}

func NewEngine(catalog Catalog, marks MarkStore, mappings MappingStore, attain AttainmentStore, pub Publisher, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		catalog:  catalog,
		marks:    marks,
		mappings: mappings,
		attain:   attain,
		pub:      pub,
		log:      log,
		bands:    DefaultBandTable(),
		dirty:    make(map[pairKey]struct{}),
	}
}

// SetBandTable 替换等级表，配置热更新时调用
func (e *Engine) SetBandTable(t *BandTable) {
	if t == nil {
		return
	}
	e.bandsMu.Lock()
	e.bands = t
	e.bandsMu.Unlock()
}

// BandTable 当前生效的等级表
func (e *Engine) BandTable() *BandTable {
	e.bandsMu.RLock()
	defer e.bandsMu.RUnlock()
	return e.bands
}

// MarkDirty 记录一次写入。任何选做题得分的创建/更新/删除后同步调用。
func (e *Engine) MarkDirty(studentID, sectionID uint) {
	e.dirtyMu.Lock()
	e.dirty[pairKey{studentID, sectionID}] = struct{}{}
	e.dirtyMu.Unlock()
}

// IsDirty 查询 (student, section) 是否有待重算的写入
func (e *Engine) IsDirty(studentID, sectionID uint) bool {
	e.dirtyMu.Lock()
	defer e.dirtyMu.Unlock()
	_, ok := e.dirty[pairKey{studentID, sectionID}]
	return ok
}

func (e *Engine) clearDirty(studentID, sectionID uint) {
	e.dirtyMu.Lock()
	delete(e.dirty, pairKey{studentID, sectionID})
	e.dirtyMu.Unlock()
}

// RecomputeSection 重算一个学生在一个分区内的 counted 标志。
// 幂等：没有新的写入时重复执行产生相同的分配。
// 写回失败时该 (student, section) 保持 Dirty，等待重试或 Reprocess。
func (e *Engine) RecomputeSection(ctx context.Context, studentID, sectionID uint) error {
	start := time.Now()
	e.MarkDirty(studentID, sectionID)

	section, err := e.catalog.GetSection(ctx, sectionID)
	if err != nil {
		monitoring.RecomputeCounter.WithLabelValues("catalog_error").Inc()
		return err
	}

	var countedIDs []uint
	err = e.marks.RecomputeCounted(ctx, studentID, sectionID, func(marks []MarkView) ([]uint, []uint, error) {
		counted, notCounted, err := splitCounted(section, marks)
		if err != nil {
			return nil, nil, err
		}
		countedIDs = counted
		return counted, notCounted, nil
	})
	if err != nil {
		monitoring.RecomputeCounter.WithLabelValues("failed").Inc()
		return err
	}

	e.clearDirty(studentID, sectionID)
	monitoring.RecomputeCounter.WithLabelValues("ok").Inc()
	monitoring.RecomputeDuration.Observe(time.Since(start).Seconds())

	if e.pub != nil {
		evt := Event{
			ID:         uuid.New().String(),
			Type:       EventMarkRecomputed,
			StudentID:  studentID,
			SectionID:  sectionID,
			CountedIDs: countedIDs,
			OccurredAt: time.Now(),
		}
		// 发布失败只记日志，评分不能被事件通道阻塞
		if err := e.pub.Publish(evt); err != nil {
			e.log.Warn("publish recompute event failed",
				zap.Uint("studentId", studentID),
				zap.Uint("sectionId", sectionID),
				zap.Error(err))
		}
	}
	return nil
}

// AggregateSection 聚合一个学生在一个分区内的计入得分
func (e *Engine) AggregateSection(ctx context.Context, studentID, sectionID uint) (AggregateResult, error) {
	section, err := e.catalog.GetSection(ctx, sectionID)
	if err != nil {
		return AggregateResult{}, err
	}
	marks, err := e.marks.ListMarks(ctx, studentID, sectionID)
	if err != nil {
		return AggregateResult{}, err
	}
	if err := validateMarks(section, marks); err != nil {
		return AggregateResult{}, err
	}
	return aggregateCounted(e.BandTable(), marks), nil
}

// CombineSections 合并多个分区结果为整卷结果
func (e *Engine) CombineSections(results ...AggregateResult) AggregateResult {
	return Combine(e.BandTable(), results...)
}
