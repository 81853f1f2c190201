package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "campus/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so a classroom id can never be passed
// where an instructor id is expected.
type (
	ScheduleID     uuid.UUID
	SessionID      uuid.UUID
	RegistrationID uuid.UUID
	EnrollmentID   uuid.UUID
	StudentID      uuid.UUID
	CourseID       uuid.UUID
	ClassroomID    uuid.UUID
	InstructorID   uuid.UUID
	DepartmentID   uuid.UUID
	AdvisorID      uuid.UUID
	UserID         uuid.UUID
)

type uuidBacked interface {
	~[16]byte
}

// maxIDLength bounds raw input before it reaches uuid.Parse.
const maxIDLength = 64

func parseID[T uuidBacked](raw, field string) (T, error) {
	var zero T
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zero, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	if len(raw) > maxIDLength {
		return zero, dErrors.Newf(dErrors.CodeInvalidInput, "%s is malformed", field)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInvalidInput, field+" is malformed")
	}
	if parsed == uuid.Nil {
		return zero, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", field)
	}
	return T(parsed), nil
}

func unmarshalID[T uuidBacked](dst *T, text []byte, field string) error {
	parsed, err := parseID[T](string(text), field)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

// ParseScheduleID parses external input into a ScheduleID.
func ParseScheduleID(raw string) (ScheduleID, error) { return parseID[ScheduleID](raw, "schedule_id") }

// NewScheduleID returns a random ScheduleID.
func NewScheduleID() ScheduleID { return ScheduleID(uuid.New()) }

func (s ScheduleID) String() string { return uuid.UUID(s).String() }
func (s ScheduleID) IsNil() bool    { return uuid.UUID(s) == uuid.Nil }

func (s ScheduleID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *ScheduleID) UnmarshalText(text []byte) error {
	return unmarshalID(s, text, "schedule_id")
}

// ParseSessionID parses external input into a SessionID.
func ParseSessionID(raw string) (SessionID, error) { return parseID[SessionID](raw, "session_id") }

// NewSessionID returns a random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func (s SessionID) String() string { return uuid.UUID(s).String() }
func (s SessionID) IsNil() bool    { return uuid.UUID(s) == uuid.Nil }

func (s SessionID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *SessionID) UnmarshalText(text []byte) error {
	return unmarshalID(s, text, "session_id")
}

// ParseRegistrationID parses external input into a RegistrationID.
func ParseRegistrationID(raw string) (RegistrationID, error) { return parseID[RegistrationID](raw, "registration_id") }

// NewRegistrationID returns a random RegistrationID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

func (r RegistrationID) String() string { return uuid.UUID(r).String() }
func (r RegistrationID) IsNil() bool    { return uuid.UUID(r) == uuid.Nil }

func (r RegistrationID) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *RegistrationID) UnmarshalText(text []byte) error {
	return unmarshalID(r, text, "registration_id")
}

// ParseEnrollmentID parses external input into a EnrollmentID.
func ParseEnrollmentID(raw string) (EnrollmentID, error) { return parseID[EnrollmentID](raw, "enrollment_id") }

// NewEnrollmentID returns a random EnrollmentID.
func NewEnrollmentID() EnrollmentID { return EnrollmentID(uuid.New()) }

func (e EnrollmentID) String() string { return uuid.UUID(e).String() }
func (e EnrollmentID) IsNil() bool    { return uuid.UUID(e) == uuid.Nil }

func (e EnrollmentID) MarshalText() ([]byte, error) { return []byte(e.String()), nil }
func (e *EnrollmentID) UnmarshalText(text []byte) error {
	return unmarshalID(e, text, "enrollment_id")
}

// ParseStudentID parses external input into a StudentID.
func ParseStudentID(raw string) (StudentID, error) { return parseID[StudentID](raw, "student_id") }

// NewStudentID returns a random StudentID.
func NewStudentID() StudentID { return StudentID(uuid.New()) }

func (s StudentID) String() string { return uuid.UUID(s).String() }
func (s StudentID) IsNil() bool    { return uuid.UUID(s) == uuid.Nil }

func (s StudentID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *StudentID) UnmarshalText(text []byte) error {
	return unmarshalID(s, text, "student_id")
}

// ParseCourseID parses external input into a CourseID.
func ParseCourseID(raw string) (CourseID, error) { return parseID[CourseID](raw, "course_id") }

// NewCourseID returns a random CourseID.
func NewCourseID() CourseID { return CourseID(uuid.New()) }

func (c CourseID) String() string { return uuid.UUID(c).String() }
func (c CourseID) IsNil() bool    { return uuid.UUID(c) == uuid.Nil }

func (c CourseID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *CourseID) UnmarshalText(text []byte) error {
	return unmarshalID(c, text, "course_id")
}

// ParseClassroomID parses external input into a ClassroomID.
func ParseClassroomID(raw string) (ClassroomID, error) { return parseID[ClassroomID](raw, "classroom_id") }

// NewClassroomID returns a random ClassroomID.
func NewClassroomID() ClassroomID { return ClassroomID(uuid.New()) }

func (c ClassroomID) String() string { return uuid.UUID(c).String() }
func (c ClassroomID) IsNil() bool    { return uuid.UUID(c) == uuid.Nil }

func (c ClassroomID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *ClassroomID) UnmarshalText(text []byte) error {
	return unmarshalID(c, text, "classroom_id")
}

// ParseInstructorID parses external input into a InstructorID.
func ParseInstructorID(raw string) (InstructorID, error) { return parseID[InstructorID](raw, "instructor_id") }

// NewInstructorID returns a random InstructorID.
func NewInstructorID() InstructorID { return InstructorID(uuid.New()) }

func (i InstructorID) String() string { return uuid.UUID(i).String() }
func (i InstructorID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i InstructorID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i *InstructorID) UnmarshalText(text []byte) error {
	return unmarshalID(i, text, "instructor_id")
}

// ParseDepartmentID parses external input into a DepartmentID.
func ParseDepartmentID(raw string) (DepartmentID, error) { return parseID[DepartmentID](raw, "department_id") }

// NewDepartmentID returns a random DepartmentID.
func NewDepartmentID() DepartmentID { return DepartmentID(uuid.New()) }

func (d DepartmentID) String() string { return uuid.UUID(d).String() }
func (d DepartmentID) IsNil() bool    { return uuid.UUID(d) == uuid.Nil }

func (d DepartmentID) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
func (d *DepartmentID) UnmarshalText(text []byte) error {
	return unmarshalID(d, text, "department_id")
}

// ParseAdvisorID parses external input into a AdvisorID.
func ParseAdvisorID(raw string) (AdvisorID, error) { return parseID[AdvisorID](raw, "advisor_id") }

// NewAdvisorID returns a random AdvisorID.
func NewAdvisorID() AdvisorID { return AdvisorID(uuid.New()) }

func (a AdvisorID) String() string { return uuid.UUID(a).String() }
func (a AdvisorID) IsNil() bool    { return uuid.UUID(a) == uuid.Nil }

func (a AdvisorID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
func (a *AdvisorID) UnmarshalText(text []byte) error {
	return unmarshalID(a, text, "advisor_id")
}

// ParseUserID parses external input into a UserID.
func ParseUserID(raw string) (UserID, error) { return parseID[UserID](raw, "user_id") }

// NewUserID returns a random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

func (u UserID) String() string { return uuid.UUID(u).String() }
func (u UserID) IsNil() bool    { return uuid.UUID(u) == uuid.Nil }

func (u UserID) MarshalText() ([]byte, error) { return []byte(u.String()), nil }
func (u *UserID) UnmarshalText(text []byte) error {
	return unmarshalID(u, text, "user_id")
}
