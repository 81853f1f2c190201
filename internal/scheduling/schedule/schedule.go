package schedule

import (
	"slices"
	"time"

	"campus/internal/scheduling/models"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
)

// TeachingHourMinutes is the length of one teaching hour used for workload.
const TeachingHourMinutes = 50

// DateRange bounds the calendar period a schedule applies to.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// WeeklySchedule is the aggregate root for one (academic year, term) timetable.
//
// Invariants:
//   - No two live sessions share day and classroom with overlapping intervals
//   - No two live sessions share day and a non-nil instructor with overlapping intervals
//   - Status transitions follow the lifecycle table; Archived and deleted are terminal
//   - PublishedAt/PublishedBy are set once, on first publication
//   - Deletion is a tombstone and is refused while Active
type WeeklySchedule struct {
	id           id.ScheduleID
	academicYear id.AcademicYear
	term         id.Term
	departmentID *id.DepartmentID
	status       models.ScheduleStatus
	period       *DateRange
	publishedAt  *time.Time
	publishedBy  *id.UserID
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
	version      int64

	sessions map[id.SessionID]*CourseSession
	order    []id.SessionID
}

// New creates a Draft schedule. A nil departmentID means university-wide.
func New(
	scheduleID id.ScheduleID,
	academicYear id.AcademicYear,
	term id.Term,
	departmentID *id.DepartmentID,
	period *DateRange,
	now time.Time,
) (*WeeklySchedule, error) {
	if scheduleID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "schedule_id cannot be nil")
	}
	if _, err := id.ParseAcademicYear(string(academicYear)); err != nil {
		return nil, err
	}
	if !term.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "term must be 1 or 2, got %d", int(term))
	}
	if period != nil && period.Start.After(period.End) {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "schedule start date must not be after end date")
	}
	return &WeeklySchedule{
		id:           scheduleID,
		academicYear: academicYear,
		term:         term,
		departmentID: departmentID,
		status:       models.ScheduleStatusDraft,
		period:       period,
		createdAt:    now,
		updatedAt:    now,
		sessions:     make(map[id.SessionID]*CourseSession),
	}, nil
}

func (s *WeeklySchedule) ID() id.ScheduleID              { return s.id }
func (s *WeeklySchedule) AcademicYear() id.AcademicYear  { return s.academicYear }
func (s *WeeklySchedule) Term() id.Term                  { return s.term }
func (s *WeeklySchedule) Status() models.ScheduleStatus  { return s.status }
func (s *WeeklySchedule) CreatedAt() time.Time           { return s.createdAt }
func (s *WeeklySchedule) UpdatedAt() time.Time           { return s.updatedAt }
func (s *WeeklySchedule) Version() int64                 { return s.version }
func (s *WeeklySchedule) IsDeleted() bool                { return s.deletedAt != nil }
func (s *WeeklySchedule) DepartmentID() *id.DepartmentID { return copyPtr(s.departmentID) }
func (s *WeeklySchedule) PublishedAt() *time.Time        { return copyPtr(s.publishedAt) }
func (s *WeeklySchedule) PublishedBy() *id.UserID        { return copyPtr(s.publishedBy) }
func (s *WeeklySchedule) DeletedAt() *time.Time          { return copyPtr(s.deletedAt) }
func (s *WeeklySchedule) IsUniversityWide() bool         { return s.departmentID == nil }

// Period returns the calendar range, if one was set.
func (s *WeeklySchedule) Period() (DateRange, bool) {
	if s.period == nil {
		return DateRange{}, false
	}
	return *s.period, true
}

// AddSession validates spec, checks it against every live session and appends
// it. A rejected call leaves the schedule unchanged.
func (s *WeeklySchedule) AddSession(sessionID id.SessionID, spec SessionSpec, now time.Time) (SessionAdded, error) {
	if err := s.ensureMutable(); err != nil {
		return SessionAdded{}, err
	}
	if s.status == models.ScheduleStatusArchived {
		return SessionAdded{}, invalidState("cannot add sessions to an archived schedule")
	}
	candidate, err := s.newSession(sessionID, spec, now)
	if err != nil {
		return SessionAdded{}, err
	}
	if _, exists := s.sessions[sessionID]; exists {
		return SessionAdded{}, dErrors.Newf(dErrors.CodeConflict, "session %s already exists", sessionID)
	}
	if conflict := s.firstConflict(candidate); conflict != nil {
		return SessionAdded{}, conflict
	}

	s.sessions[candidate.id] = &candidate
	s.order = append(s.order, candidate.id)
	s.updatedAt = now
	return SessionAdded{Session: candidate}, nil
}

// RemoveSession tombstones a live session. Active schedules must be suspended first.
func (s *WeeklySchedule) RemoveSession(sessionID id.SessionID, now time.Time) (SessionRemoved, error) {
	if err := s.ensureMutable(); err != nil {
		return SessionRemoved{}, err
	}
	switch s.status {
	case models.ScheduleStatusActive:
		return SessionRemoved{}, invalidState("cannot remove sessions from an active schedule; suspend it first")
	case models.ScheduleStatusArchived:
		return SessionRemoved{}, invalidState("cannot remove sessions from an archived schedule")
	}
	session, ok := s.sessions[sessionID]
	if !ok || session.IsDeleted() {
		return SessionRemoved{}, dErrors.Newf(dErrors.CodeNotFound, "session %s not found", sessionID)
	}

	deletedAt := now
	session.deletedAt = &deletedAt
	s.updatedAt = now
	return SessionRemoved{
		ScheduleID: s.id,
		SessionID:  sessionID,
		CourseID:   session.courseID,
		RemovedAt:  now,
	}, nil
}

// HasConflict reports whether spec would double-book a classroom or instructor.
// Invalid specs never conflict; AddSession reports their validation error.
func (s *WeeklySchedule) HasConflict(spec SessionSpec) bool {
	candidate, err := s.newSession(id.NewSessionID(), spec, s.updatedAt)
	if err != nil {
		return false
	}
	return s.firstConflict(candidate) != nil
}

// Conflicts lists every live session spec would collide with, in insertion order.
func (s *WeeklySchedule) Conflicts(spec SessionSpec) []*SchedulingConflictError {
	candidate, err := s.newSession(id.NewSessionID(), spec, s.updatedAt)
	if err != nil {
		return nil
	}
	var out []*SchedulingConflictError
	for _, existing := range s.liveSessions() {
		if c := conflictBetween(candidate, *existing); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Publish moves a Draft schedule to Published. Empty schedules cannot be published.
func (s *WeeklySchedule) Publish(by id.UserID, now time.Time) (StatusChanged, error) {
	if err := s.canTransition(actionPublish); err != nil {
		return StatusChanged{}, err
	}
	if s.GetTotalSessionCount() == 0 {
		return StatusChanged{}, dErrors.New(dErrors.CodeEmptySchedule, "cannot publish a schedule without sessions")
	}
	if s.publishedAt == nil {
		publishedAt, publishedBy := now, by
		s.publishedAt = &publishedAt
		s.publishedBy = &publishedBy
	}
	effect := s.applyTransition(actionPublish, now)
	effect.By = copyPtr(&by)
	return effect, nil
}

// Activate moves a Published or Suspended schedule to Active.
func (s *WeeklySchedule) Activate(now time.Time) (StatusChanged, error) {
	return s.transition(actionActivate, now)
}

// Suspend moves an Active schedule to Suspended.
func (s *WeeklySchedule) Suspend(now time.Time) (StatusChanged, error) {
	return s.transition(actionSuspend, now)
}

// Archive retires a Published, Active or Suspended schedule. Archived is terminal.
func (s *WeeklySchedule) Archive(now time.Time) (StatusChanged, error) {
	return s.transition(actionArchive, now)
}

// SoftDelete tombstones the schedule. Refused while Active or already deleted.
func (s *WeeklySchedule) SoftDelete(now time.Time) (Deleted, error) {
	if err := s.ensureMutable(); err != nil {
		return Deleted{}, err
	}
	if s.status == models.ScheduleStatusActive {
		return Deleted{}, invalidState("cannot delete an active schedule; suspend or archive it first")
	}
	deletedAt := now
	s.deletedAt = &deletedAt
	s.updatedAt = now
	return Deleted{ScheduleID: s.id, At: now}, nil
}

// GetTotalSessionCount counts live sessions.
func (s *WeeklySchedule) GetTotalSessionCount() int {
	return len(s.liveSessions())
}

// GetInstructorWorkload sums the instructor's live session time in teaching hours.
func (s *WeeklySchedule) GetInstructorWorkload(instructorID id.InstructorID) float64 {
	minutes := 0
	for _, session := range s.liveSessions() {
		if session.instructorID != nil && *session.instructorID == instructorID {
			minutes += session.interval.DurationMinutes()
		}
	}
	return float64(minutes) / TeachingHourMinutes
}

// Sessions returns a snapshot of live sessions ordered by day and start time.
func (s *WeeklySchedule) Sessions() []CourseSession {
	live := s.liveSessions()
	out := make([]CourseSession, 0, len(live))
	for _, session := range live {
		out = append(out, *session)
	}
	slices.SortStableFunc(out, func(a, b CourseSession) int {
		if a.day != b.day {
			return int(a.day) - int(b.day)
		}
		return int(a.interval.start) - int(b.interval.start)
	})
	return out
}

// SessionsOn returns the live sessions held on day, ordered by start time.
func (s *WeeklySchedule) SessionsOn(day time.Weekday) []CourseSession {
	var out []CourseSession
	for _, session := range s.Sessions() {
		if session.day == day {
			out = append(out, session)
		}
	}
	return out
}

// Session looks up a session, including tombstoned ones.
func (s *WeeklySchedule) Session(sessionID id.SessionID) (CourseSession, bool) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return CourseSession{}, false
	}
	return *session, true
}

func (s *WeeklySchedule) newSession(sessionID id.SessionID, spec SessionSpec, now time.Time) (CourseSession, error) {
	if sessionID.IsNil() {
		return CourseSession{}, dErrors.New(dErrors.CodeValidation, "session_id is required")
	}
	if spec.CourseID.IsNil() {
		return CourseSession{}, dErrors.New(dErrors.CodeValidation, "course_id is required")
	}
	if spec.ClassroomID.IsNil() {
		return CourseSession{}, dErrors.New(dErrors.CodeValidation, "classroom_id is required")
	}
	if spec.InstructorID != nil && spec.InstructorID.IsNil() {
		return CourseSession{}, dErrors.New(dErrors.CodeValidation, "instructor_id cannot be nil when set")
	}
	if spec.DayOfWeek < time.Sunday || spec.DayOfWeek > time.Saturday {
		return CourseSession{}, dErrors.Newf(dErrors.CodeValidation, "day_of_week %d is invalid", int(spec.DayOfWeek))
	}
	if spec.Interval.IsZero() {
		return CourseSession{}, dErrors.New(dErrors.CodeInvalidRange, "time interval is required")
	}
	if _, ok := models.ParseSessionType(string(spec.SessionType)); !ok {
		return CourseSession{}, dErrors.Newf(dErrors.CodeValidation, "session_type %q is invalid", spec.SessionType)
	}
	return CourseSession{
		id:           sessionID,
		scheduleID:   s.id,
		courseID:     spec.CourseID,
		instructorID: copyPtr(spec.InstructorID),
		classroomID:  spec.ClassroomID,
		day:          spec.DayOfWeek,
		interval:     spec.Interval,
		sessionType:  spec.SessionType,
		createdAt:    now,
	}, nil
}

// firstConflict scans live sessions in insertion order and stops at the first collision.
func (s *WeeklySchedule) firstConflict(candidate CourseSession) *SchedulingConflictError {
	for _, existing := range s.liveSessions() {
		if c := conflictBetween(candidate, *existing); c != nil {
			return c
		}
	}
	return nil
}

func conflictBetween(candidate, existing CourseSession) *SchedulingConflictError {
	if candidate.sharesClassroomSlot(existing) {
		return &SchedulingConflictError{Dimension: DimensionClassroom, Conflicting: existing}
	}
	if candidate.sharesInstructorSlot(existing) {
		return &SchedulingConflictError{Dimension: DimensionInstructor, Conflicting: existing}
	}
	return nil
}

func (s *WeeklySchedule) liveSessions() []*CourseSession {
	out := make([]*CourseSession, 0, len(s.order))
	for _, sessionID := range s.order {
		session := s.sessions[sessionID]
		if !session.IsDeleted() {
			out = append(out, session)
		}
	}
	return out
}

func (s *WeeklySchedule) ensureMutable() error {
	if s.deletedAt != nil {
		return invalidState("schedule %s is deleted", s.id)
	}
	return nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
