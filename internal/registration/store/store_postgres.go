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
	"campus/internal/registration/models"
	id "campus/pkg/domain"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tx"
)

// PostgresStore persists term registrations and their enrollments in
// PostgreSQL. Grades and attendance are owned by other services and only read.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record models.RegistrationRecord) (int64, error) {
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.QuerierFrom(ctx, s.db)
		_, err := q.ExecContext(ctx, `
			INSERT INTO term_registrations (
				id, student_id, academic_year, term, status, total_credits,
				submitted_at, approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
				cancelled_at, created_at, updated_at, deleted_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1)
		`,
			uuid.UUID(record.ID), uuid.UUID(record.StudentID), string(record.AcademicYear), int(record.Term),
			string(record.Status), record.TotalCredits,
			record.SubmittedAt, record.ApprovedAt, nullUUID(record.ApprovedBy),
			record.RejectedAt, nullUUID(record.RejectedBy), record.RejectionReason,
			record.CancelledAt, record.CreatedAt, record.UpdatedAt, record.DeletedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return syncEnrollments(ctx, q, record)
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *PostgresStore) Update(ctx context.Context, record models.RegistrationRecord) (int64, error) {
	var version int64
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.QuerierFrom(ctx, s.db)
		err := q.QueryRowContext(ctx, `
			UPDATE term_registrations SET
				status = $3,
				total_credits = $4,
				submitted_at = $5,
				approved_at = $6,
				approved_by = $7,
				rejected_at = $8,
				rejected_by = $9,
				rejection_reason = $10,
				cancelled_at = $11,
				updated_at = $12,
				deleted_at = $13,
				version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING version
		`,
			uuid.UUID(record.ID), record.Version, string(record.Status), record.TotalCredits,
			record.SubmittedAt, record.ApprovedAt, nullUUID(record.ApprovedBy),
			record.RejectedAt, nullUUID(record.RejectedBy), record.RejectionReason,
			record.CancelledAt, record.UpdatedAt, record.DeletedAt,
		).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return s.missOrStale(ctx, q, record.ID)
		}
		if err != nil {
			return fmt.Errorf("update registration: %w", err)
		}
		return syncEnrollments(ctx, q, record)
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *PostgresStore) missOrStale(ctx context.Context, q tx.Querier, registrationID id.RegistrationID) error {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM term_registrations WHERE id = $1)`, uuid.UUID(registrationID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrStale
}

// syncEnrollments makes the stored enrollments match the record. Removed
// courses are deleted physically, the rest are upserted in record order.
func syncEnrollments(ctx context.Context, q tx.Querier, record models.RegistrationRecord) error {
	keep := make([]string, 0, len(record.Enrollments))
	for _, e := range record.Enrollments {
		keep = append(keep, e.ID.String())
	}
	_, err := q.ExecContext(ctx, `
		DELETE FROM course_enrollments
		WHERE registration_id = $1 AND NOT (id = ANY($2::uuid[]))
	`, uuid.UUID(record.ID), pq.Array(keep))
	if err != nil {
		return fmt.Errorf("delete removed enrollments: %w", err)
	}

	for position, e := range record.Enrollments {
		_, err := q.ExecContext(ctx, `
			INSERT INTO course_enrollments (
				id, registration_id, position, course_id, instructor_id, credits, national_credit,
				status, grade_point, registered_at, dropped_at, completed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position,
				status = EXCLUDED.status,
				grade_point = EXCLUDED.grade_point,
				dropped_at = EXCLUDED.dropped_at,
				completed_at = EXCLUDED.completed_at
		`,
			uuid.UUID(e.ID), uuid.UUID(record.ID), position, uuid.UUID(e.CourseID), nullUUID(e.InstructorID),
			e.Credits, e.NationalCredit, string(e.Status), nullFloat(e.GradePoint),
			e.RegisteredAt, e.DroppedAt, e.CompletedAt,
		)
		if err != nil {
			if postgres.IsUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("upsert enrollment %s: %w", e.ID, err)
		}
	}
	return nil
}

const selectRegistration = `
	SELECT id, student_id, academic_year, term, status, total_credits,
		submitted_at, approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
		cancelled_at, created_at, updated_at, deleted_at, version
	FROM term_registrations
`

func (s *PostgresStore) FindByID(ctx context.Context, registrationID id.RegistrationID) (models.RegistrationRecord, error) {
	q := tx.QuerierFrom(ctx, s.db)
	record, err := scanRegistration(q.QueryRowContext(ctx, selectRegistration+` WHERE id = $1`, uuid.UUID(registrationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RegistrationRecord{}, sentinel.ErrNotFound
		}
		return models.RegistrationRecord{}, fmt.Errorf("find registration by id: %w", err)
	}
	enrollments, err := loadEnrollments(ctx, q, []string{registrationID.String()})
	if err != nil {
		return models.RegistrationRecord{}, err
	}
	record.Enrollments = enrollments[record.ID]
	return record, nil
}

// ListByStudent returns the student's live registrations, oldest first.
func (s *PostgresStore) ListByStudent(ctx context.Context, studentID id.StudentID) ([]models.RegistrationRecord, error) {
	q := tx.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, selectRegistration+`
		WHERE student_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`, uuid.UUID(studentID))
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var (
		records []models.RegistrationRecord
		ids     []string
	)
	for rows.Next() {
		record, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		records = append(records, record)
		ids = append(ids, record.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	enrollments, err := loadEnrollments(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Enrollments = enrollments[records[i].ID]
	}
	return records, nil
}

func loadEnrollments(ctx context.Context, q tx.Querier, registrationIDs []string) (map[id.RegistrationID][]models.EnrollmentRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, registration_id, course_id, instructor_id, credits, national_credit,
			status, grade_point, registered_at, dropped_at, completed_at
		FROM course_enrollments
		WHERE registration_id = ANY($1::uuid[])
		ORDER BY registration_id, position
	`, pq.Array(registrationIDs))
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	defer rows.Close()

	var (
		records []models.EnrollmentRecord
		ids     []string
	)
	for rows.Next() {
		var (
			enrollmentID, registrationID, courseID uuid.UUID
			instructorID                           uuid.NullUUID
			status                                 string
			gradePoint                             sql.NullFloat64
			droppedAt, completedAt                 sql.NullTime
			r                                      models.EnrollmentRecord
		)
		if err := rows.Scan(&enrollmentID, &registrationID, &courseID, &instructorID, &r.Credits, &r.NationalCredit,
			&status, &gradePoint, &r.RegisteredAt, &droppedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		r.ID = id.EnrollmentID(enrollmentID)
		r.RegistrationID = id.RegistrationID(registrationID)
		r.CourseID = id.CourseID(courseID)
		r.Status = models.EnrollmentStatus(status)
		if instructorID.Valid {
			instructor := id.InstructorID(instructorID.UUID)
			r.InstructorID = &instructor
		}
		if gradePoint.Valid {
			gp := gradePoint.Float64
			r.GradePoint = &gp
		}
		r.DroppedAt = timePtr(droppedAt)
		r.CompletedAt = timePtr(completedAt)
		records = append(records, r)
		ids = append(ids, r.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	if len(ids) > 0 {
		grades, err := loadGrades(ctx, q, ids)
		if err != nil {
			return nil, err
		}
		attendance, err := loadAttendance(ctx, q, ids)
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].Grades = grades[records[i].ID]
			records[i].Attendance = attendance[records[i].ID]
		}
	}

	out := make(map[id.RegistrationID][]models.EnrollmentRecord, len(registrationIDs))
	for _, r := range records {
		out[r.RegistrationID] = append(out[r.RegistrationID], r)
	}
	return out, nil
}

func loadGrades(ctx context.Context, q tx.Querier, enrollmentIDs []string) (map[id.EnrollmentID][]models.GradeRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT enrollment_id, kind, score, grade_point, recorded_at
		FROM enrollment_grades
		WHERE enrollment_id = ANY($1::uuid[])
		ORDER BY enrollment_id, recorded_at
	`, pq.Array(enrollmentIDs))
	if err != nil {
		return nil, fmt.Errorf("load grades: %w", err)
	}
	defer rows.Close()

	out := make(map[id.EnrollmentID][]models.GradeRecord)
	for rows.Next() {
		var (
			enrollmentID uuid.UUID
			kind         string
			g            models.GradeRecord
		)
		if err := rows.Scan(&enrollmentID, &kind, &g.Score, &g.GradePoint, &g.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		g.Kind = models.GradeKind(kind)
		key := id.EnrollmentID(enrollmentID)
		out[key] = append(out[key], g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grades: %w", err)
	}
	return out, nil
}

func loadAttendance(ctx context.Context, q tx.Querier, enrollmentIDs []string) (map[id.EnrollmentID][]models.AttendanceRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT enrollment_id, session_date, status
		FROM enrollment_attendance
		WHERE enrollment_id = ANY($1::uuid[])
		ORDER BY enrollment_id, session_date
	`, pq.Array(enrollmentIDs))
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	defer rows.Close()

	out := make(map[id.EnrollmentID][]models.AttendanceRecord)
	for rows.Next() {
		var (
			enrollmentID uuid.UUID
			status       string
			a            models.AttendanceRecord
		)
		if err := rows.Scan(&enrollmentID, &a.Date, &status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		a.Status = models.AttendanceStatus(status)
		key := id.EnrollmentID(enrollmentID)
		out[key] = append(out[key], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (models.RegistrationRecord, error) {
	var (
		registrationID, studentID           uuid.UUID
		academicYear, status                string
		term                                int
		approvedBy, rejectedBy              uuid.NullUUID
		submittedAt, approvedAt, rejectedAt sql.NullTime
		cancelledAt, deletedAt              sql.NullTime
		record                              models.RegistrationRecord
	)
	if err := row.Scan(&registrationID, &studentID, &academicYear, &term, &status, &record.TotalCredits,
		&submittedAt, &approvedAt, &approvedBy, &rejectedAt, &rejectedBy, &record.RejectionReason,
		&cancelledAt, &record.CreatedAt, &record.UpdatedAt, &deletedAt, &record.Version); err != nil {
		return models.RegistrationRecord{}, err
	}
	record.ID = id.RegistrationID(registrationID)
	record.StudentID = id.StudentID(studentID)
	record.AcademicYear = id.AcademicYear(academicYear)
	record.Term = id.Term(term)
	record.Status = models.RegistrationStatus(status)
	if approvedBy.Valid {
		advisor := id.AdvisorID(approvedBy.UUID)
		record.ApprovedBy = &advisor
	}
	if rejectedBy.Valid {
		advisor := id.AdvisorID(rejectedBy.UUID)
		record.RejectedBy = &advisor
	}
	record.SubmittedAt = timePtr(submittedAt)
	record.ApprovedAt = timePtr(approvedAt)
	record.RejectedAt = timePtr(rejectedAt)
	record.CancelledAt = timePtr(cancelledAt)
	record.DeletedAt = timePtr(deletedAt)
	return record, nil
}

func nullUUID[T ~[16]byte](v *T) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
