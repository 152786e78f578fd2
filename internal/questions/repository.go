package questions

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// UsageStore persists per-question usage counters across restarts.
type UsageStore interface {
	All(ctx context.Context) (map[string]int, error)
	Increment(ctx context.Context, questionID string) (int, error)
}

// Repository holds the question catalog for the lifetime of the process.
type Repository struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
	byStage map[string][]int

	usage  UsageStore
	logger *zap.Logger
}

// NewRepository indexes records. Later duplicates of an id are ignored.
// usage may be nil, in which case counters live in memory only.
func NewRepository(records []Record, usage UsageStore, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		byID:    make(map[string]int, len(records)),
		byStage: make(map[string][]int),
		usage:   usage,
		logger:  logger,
	}
	for _, rec := range records {
		if _, dup := r.byID[rec.ID]; dup {
			logger.Warn("duplicate question id ignored", zap.String("question_id", rec.ID))
			continue
		}
		idx := len(r.records)
		r.records = append(r.records, rec)
		r.byID[rec.ID] = idx
		r.byStage[rec.Stage] = append(r.byStage[rec.Stage], idx)
	}
	return r
}

// SeedUsage loads persisted counters into the catalog.
func (r *Repository) SeedUsage(ctx context.Context) error {
	if r.usage == nil {
		return nil
	}
	counts, err := r.usage.All(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range counts {
		if idx, ok := r.byID[id]; ok && n > r.records[idx].UsageCount {
			r.records[idx].UsageCount = n
		}
	}
	return nil
}

// LoadAll returns a snapshot of every record.
func (r *Repository) LoadAll() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Record(nil), r.records...)
}

// ByStage returns a snapshot of the records tagged with stage.
func (r *Repository) ByStage(stage string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idxs := r.byStage[stage]
	out := make([]Record, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, r.records[idx])
	}
	return out
}

// Get returns the record with id.
func (r *Repository) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.records[idx], true
}

// Len returns the catalog size.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// IncrementUsage bumps the usage counter of id by one and returns the new value.
// A failure to persist the counter is logged; the in-memory count still advances.
func (r *Repository) IncrementUsage(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	idx, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return 0, ErrUnknownQuestion
	}
	r.records[idx].UsageCount++
	count := r.records[idx].UsageCount
	r.mu.Unlock()

	if r.usage != nil {
		if _, err := r.usage.Increment(ctx, id); err != nil {
			r.logger.Warn("persist question usage failed",
				zap.String("question_id", id),
				zap.Error(err),
			)
		}
	}
	return count, nil
}

// MostUsed returns up to limit records ordered by usage count descending.
func (r *Repository) MostUsed(limit int) []Record {
	all := r.LoadAll()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].UsageCount != all[j].UsageCount {
			return all[i].UsageCount > all[j].UsageCount
		}
		return all[i].ID < all[j].ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
