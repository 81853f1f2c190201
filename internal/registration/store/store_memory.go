package store

import (
	"context"
	"slices"
	"sync"

	"campus/internal/registration/models"
	id "campus/pkg/domain"
	"campus/pkg/platform/sentinel"
)

// InMemoryStore keeps registration records in process memory with the same
// version semantics as PostgresStore.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[id.RegistrationID]models.RegistrationRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{registrations: make(map[id.RegistrationID]models.RegistrationRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record models.RegistrationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registrations[record.ID]; exists {
		return 0, sentinel.ErrConflict
	}
	record.Version = 1
	s.registrations[record.ID] = cloneRecord(record)
	return record.Version, nil
}

func (s *InMemoryStore) Update(_ context.Context, record models.RegistrationRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.registrations[record.ID]
	if !exists {
		return 0, sentinel.ErrNotFound
	}
	if current.Version != record.Version {
		return 0, sentinel.ErrStale
	}
	record.Version++
	s.registrations[record.ID] = cloneRecord(record)
	return record.Version, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, registrationID id.RegistrationID) (models.RegistrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.registrations[registrationID]
	if !ok {
		return models.RegistrationRecord{}, sentinel.ErrNotFound
	}
	return cloneRecord(record), nil
}

// ListByStudent returns the student's live registrations, oldest first.
func (s *InMemoryStore) ListByStudent(_ context.Context, studentID id.StudentID) ([]models.RegistrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RegistrationRecord
	for _, record := range s.registrations {
		if record.DeletedAt == nil && record.StudentID == studentID {
			out = append(out, cloneRecord(record))
		}
	}
	slices.SortFunc(out, func(a, b models.RegistrationRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func cloneRecord(r models.RegistrationRecord) models.RegistrationRecord {
	r.Enrollments = slices.Clone(r.Enrollments)
	for i := range r.Enrollments {
		r.Enrollments[i].Grades = slices.Clone(r.Enrollments[i].Grades)
		r.Enrollments[i].Attendance = slices.Clone(r.Enrollments[i].Attendance)
	}
	return r
}
