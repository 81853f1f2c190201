package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"campus/internal/platform/postgres"
	"campus/internal/scheduling/models"
	id "campus/pkg/domain"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tx"
)

// PostgresStore persists schedules and their sessions in PostgreSQL. Writes
// carry the version read at load time; a mismatch is reported as
// sentinel.ErrStale.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed schedule store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record models.ScheduleRecord) (int64, error) {
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.QuerierFrom(ctx, s.db)
		_, err := q.ExecContext(ctx, `
			INSERT INTO schedules (
				id, academic_year, term, department_id, status, start_date, end_date,
				published_at, published_by, created_at, updated_at, deleted_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		`,
			uuid.UUID(record.ID), string(record.AcademicYear), int(record.Term), nullUUID(record.DepartmentID),
			string(record.Status), record.StartDate, record.EndDate,
			record.PublishedAt, nullUUID(record.PublishedBy), record.CreatedAt, record.UpdatedAt, record.DeletedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert schedule: %w", err)
		}
		return upsertSessions(ctx, q, record)
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *PostgresStore) Update(ctx context.Context, record models.ScheduleRecord) (int64, error) {
	var version int64
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.QuerierFrom(ctx, s.db)
		err := q.QueryRowContext(ctx, `
			UPDATE schedules SET
				status = $3,
				department_id = $4,
				start_date = $5,
				end_date = $6,
				published_at = $7,
				published_by = $8,
				updated_at = $9,
				deleted_at = $10,
				version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING version
		`,
			uuid.UUID(record.ID), record.Version, string(record.Status), nullUUID(record.DepartmentID),
			record.StartDate, record.EndDate, record.PublishedAt, nullUUID(record.PublishedBy),
			record.UpdatedAt, record.DeletedAt,
		).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return s.missOrStale(ctx, q, record.ID)
		}
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		return upsertSessions(ctx, q, record)
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *PostgresStore) missOrStale(ctx context.Context, q tx.Querier, scheduleID id.ScheduleID) error {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schedules WHERE id = $1)`, uuid.UUID(scheduleID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check schedule: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrStale
}

// upsertSessions writes every session of the record. Sessions are never
// physically removed; removal is a tombstone update.
func upsertSessions(ctx context.Context, q tx.Querier, record models.ScheduleRecord) error {
	for position, session := range record.Sessions {
		_, err := q.ExecContext(ctx, `
			INSERT INTO schedule_sessions (
				id, schedule_id, position, course_id, instructor_id, classroom_id,
				day_of_week, start_minute, end_minute, session_type, created_at, deleted_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				deleted_at = EXCLUDED.deleted_at
		`,
			uuid.UUID(session.ID), uuid.UUID(record.ID), position, uuid.UUID(session.CourseID),
			nullUUID(session.InstructorID), uuid.UUID(session.ClassroomID), int(session.DayOfWeek),
			session.StartMinute, session.EndMinute, string(session.SessionType),
			session.CreatedAt, session.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert session %s: %w", session.ID, err)
		}
	}
	return nil
}

const selectSchedule = `
	SELECT id, academic_year, term, department_id, status, start_date, end_date,
		published_at, published_by, created_at, updated_at, deleted_at, version
	FROM schedules
`

func (s *PostgresStore) FindByID(ctx context.Context, scheduleID id.ScheduleID) (models.ScheduleRecord, error) {
	q := tx.QuerierFrom(ctx, s.db)
	record, err := scanSchedule(q.QueryRowContext(ctx, selectSchedule+` WHERE id = $1`, uuid.UUID(scheduleID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScheduleRecord{}, sentinel.ErrNotFound
		}
		return models.ScheduleRecord{}, fmt.Errorf("find schedule by id: %w", err)
	}
	sessions, err := loadSessions(ctx, q, []string{scheduleID.String()})
	if err != nil {
		return models.ScheduleRecord{}, err
	}
	record.Sessions = sessions[record.ID]
	return record, nil
}

func (s *PostgresStore) ListByTerm(ctx context.Context, academicYear id.AcademicYear, term id.Term) ([]models.ScheduleRecord, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, selectSchedule+`
		WHERE academic_year = $1 AND term = $2 AND deleted_at IS NULL
		ORDER BY created_at
	`, string(academicYear), int(term))
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var (
		records []models.ScheduleRecord
		ids     []string
	)
	for rows.Next() {
		record, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		records = append(records, record)
		ids = append(ids, record.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	sessions, err := loadSessions(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Sessions = sessions[records[i].ID]
	}
	return records, nil
}

// loadSessions fetches the sessions of several schedules in one round trip.
func loadSessions(ctx context.Context, q tx.Querier, scheduleIDs []string) (map[id.ScheduleID][]models.SessionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, schedule_id, course_id, instructor_id, classroom_id, day_of_week,
			start_minute, end_minute, session_type, created_at, deleted_at
		FROM schedule_sessions
		WHERE schedule_id = ANY($1::uuid[])
		ORDER BY schedule_id, position
	`, pq.Array(scheduleIDs))
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[id.ScheduleID][]models.SessionRecord, len(scheduleIDs))
	for rows.Next() {
		var (
			sessionID, scheduleID, courseID, classroomID uuid.UUID
			instructorID                                 uuid.NullUUID
			day                                          int
			sessionType                                  string
			deletedAt                                    sql.NullTime
			r                                            models.SessionRecord
		)
		if err := rows.Scan(&sessionID, &scheduleID, &courseID, &instructorID, &classroomID, &day,
			&r.StartMinute, &r.EndMinute, &sessionType, &r.CreatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.ID = id.SessionID(sessionID)
		r.ScheduleID = id.ScheduleID(scheduleID)
		r.CourseID = id.CourseID(courseID)
		r.ClassroomID = id.ClassroomID(classroomID)
		r.DayOfWeek = time.Weekday(day)
		r.SessionType = models.SessionType(sessionType)
		if instructorID.Valid {
			instructor := id.InstructorID(instructorID.UUID)
			r.InstructorID = &instructor
		}
		r.DeletedAt = timePtr(deletedAt)
		out[r.ScheduleID] = append(out[r.ScheduleID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (models.ScheduleRecord, error) {
	var (
		scheduleID                      uuid.UUID
		academicYear, status            string
		term                            int
		departmentID, publishedBy       uuid.NullUUID
		startDate, endDate, publishedAt sql.NullTime
		deletedAt                       sql.NullTime
		record                          models.ScheduleRecord
	)
	if err := row.Scan(&scheduleID, &academicYear, &term, &departmentID, &status, &startDate, &endDate,
		&publishedAt, &publishedBy, &record.CreatedAt, &record.UpdatedAt, &deletedAt, &record.Version); err != nil {
		return models.ScheduleRecord{}, err
	}
	record.ID = id.ScheduleID(scheduleID)
	record.AcademicYear = id.AcademicYear(academicYear)
	record.Term = id.Term(term)
	record.Status = models.ScheduleStatus(status)
	if departmentID.Valid {
		department := id.DepartmentID(departmentID.UUID)
		record.DepartmentID = &department
	}
	if publishedBy.Valid {
		user := id.UserID(publishedBy.UUID)
		record.PublishedBy = &user
	}
	record.StartDate = timePtr(startDate)
	record.EndDate = timePtr(endDate)
	record.PublishedAt = timePtr(publishedAt)
	record.DeletedAt = timePtr(deletedAt)
	return record, nil
}

func nullUUID[T ~[16]byte](v *T) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
