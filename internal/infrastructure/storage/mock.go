package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MockRepository is an in-memory Repository for tests.
type MockRepository struct {
	mu          sync.Mutex
	runs        map[string]*RunRecord
	annotations []AnnotationRecord
	nextID      int64

	// Error injection
	StartRunErr       error
	CompleteRunErr    error
	SaveAnnotationErr error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:   make(map[string]*RunRecord),
		nextID: 1,
	}
}

func (m *MockRepository) Close() error { return nil }

func (m *MockRepository) StartRun(run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartRunErr != nil {
		return m.StartRunErr
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *MockRepository) CompleteRun(run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *MockRepository) GetRun(runID string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	copied := *run
	return &copied, nil
}

func (m *MockRepository) ListRuns(limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	runs := make([]RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockRepository) SaveAnnotation(record *AnnotationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveAnnotationErr != nil {
		return m.SaveAnnotationErr
	}
	record.ID = m.nextID
	m.nextID++
	m.annotations = append(m.annotations, *record)
	return nil
}

func (m *MockRepository) ListAnnotations(filters AnnotationFilters) ([]AnnotationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	var matched []AnnotationRecord
	for i := len(m.annotations) - 1; i >= 0; i-- {
		record := m.annotations[i]
		if filters.RunID != "" && record.RunID != filters.RunID {
			continue
		}
		if filters.Status != "" && record.Status != filters.Status {
			continue
		}
		matched = append(matched, record)
	}
	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filters.Offset:]
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockRepository) IsAnnotated(transactionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.annotations {
		if record.TransactionID == transactionID && !record.DryRun && record.Status == AnnotationStatusUpdated {
			return true
		}
	}
	return false
}

func (m *MockRepository) GetStats() (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &Stats{}
	for _, record := range m.annotations {
		stats.TotalAnnotations++
		switch record.Status {
		case AnnotationStatusUpdated:
			stats.UpdatedCount++
		case AnnotationStatusUnmatched:
			stats.UnmatchedCount++
		case AnnotationStatusFailed:
			stats.FailedCount++
		}
		if record.DryRun {
			stats.DryRunCount++
		}
		if record.Partial {
			stats.PartialCount++
		}
		stats.TotalMilliunits += record.AmountMilliunits
	}
	return stats, nil
}
