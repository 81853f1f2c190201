package store

import (
	"context"
	"slices"
	"sync"

	"campus/internal/scheduling/models"
	id "campus/pkg/domain"
	"campus/pkg/platform/sentinel"
)

// InMemoryStore keeps schedule records in process memory with the same
// version semantics as PostgresStore.
type InMemoryStore struct {
	mu        sync.RWMutex
	schedules map[id.ScheduleID]models.ScheduleRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{schedules: make(map[id.ScheduleID]models.ScheduleRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record models.ScheduleRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.schedules[record.ID]; exists {
		return 0, sentinel.ErrConflict
	}
	record.Version = 1
	s.schedules[record.ID] = cloneRecord(record)
	return record.Version, nil
}

func (s *InMemoryStore) Update(_ context.Context, record models.ScheduleRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.schedules[record.ID]
	if !exists {
		return 0, sentinel.ErrNotFound
	}
	if current.Version != record.Version {
		return 0, sentinel.ErrStale
	}
	record.Version++
	s.schedules[record.ID] = cloneRecord(record)
	return record.Version, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, scheduleID id.ScheduleID) (models.ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.schedules[scheduleID]
	if !ok {
		return models.ScheduleRecord{}, sentinel.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *InMemoryStore) ListByTerm(_ context.Context, academicYear id.AcademicYear, term id.Term) ([]models.ScheduleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ScheduleRecord
	for _, record := range s.schedules {
		if record.DeletedAt == nil && record.AcademicYear == academicYear && record.Term == term {
			out = append(out, cloneRecord(record))
		}
	}
	slices.SortFunc(out, func(a, b models.ScheduleRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func cloneRecord(r models.ScheduleRecord) models.ScheduleRecord {
	r.Sessions = slices.Clone(r.Sessions)
	return r
}
