package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campus/internal/registration/service"
	"campus/internal/registration/store"
	"campus/pkg/testutil"
)

func TestRegistrationApprovalFlow(t *testing.T) {
	router := newRegistrationRouter(t)
	reg := createRegistration(t, router, uuid.New().String())
	courseID := uuid.New().String()

	added := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/courses", map[string]any{
		"course_id":       courseID,
		"credits":         4,
		"national_credit": 6,
	}, "")
	if added.Code != http.StatusCreated {
		t.Fatalf("expected 201 adding course, got %d: %s", added.Code, added.Body)
	}
	var enrollment EnrollmentResponse
	decode(t, added, &enrollment)
	if enrollment.Status != "active" || enrollment.Credits != 4 {
		t.Fatalf("unexpected enrollment: %+v", enrollment)
	}

	duplicate := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/courses", map[string]any{
		"course_id": courseID,
		"credits":   4,
	}, "")
	if duplicate.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate course, got %d", duplicate.Code)
	}

	submitted := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/submit", nil, "")
	if submitted.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting, got %d: %s", submitted.Code, submitted.Body)
	}

	unauthenticated := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/approve", nil, "")
	if unauthenticated.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 approving without a user, got %d", unauthenticated.Code)
	}
	advisor := uuid.New().String()
	approved := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/approve", nil, advisor)
	if approved.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", approved.Code, approved.Body)
	}
	decode(t, approved, &reg)
	if reg.Status != "approved" || reg.ApprovedBy == nil || *reg.ApprovedBy != advisor {
		t.Fatalf("unexpected approved registration: %+v", reg)
	}

	completed := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/courses/"+courseID+"/complete", map[string]any{"grade_point": 3.5}, "")
	if completed.Code != http.StatusOK {
		t.Fatalf("expected 200 completing course, got %d: %s", completed.Code, completed.Body)
	}
	decode(t, completed, &enrollment)
	if enrollment.Status != "passed" || enrollment.GradePoint == nil || *enrollment.GradePoint != 3.5 {
		t.Fatalf("unexpected completed enrollment: %+v", enrollment)
	}
}

func TestCreditLimitReportsArithmetic(t *testing.T) {
	router := newRegistrationRouter(t)
	reg := createRegistration(t, router, uuid.New().String())

	for _, credits := range []int{10, 10, 8} {
		rec := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/courses", map[string]any{
			"course_id": uuid.New().String(),
			"credits":   credits,
		}, "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 adding %d credits, got %d: %s", credits, rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/courses", map[string]any{
		"course_id": uuid.New().String(),
		"credits":   3,
	}, "")
	body := testutil.AssertStatusAndError(t, rec, http.StatusUnprocessableEntity, "credit_limit_exceeded")
	if body.Details["current_credits"] != float64(28) || body.Details["requested_credits"] != float64(3) {
		t.Fatalf("unexpected credit limit details: %v", body.Details)
	}
}

func TestRejectRemoveAndCancel(t *testing.T) {
	router := newRegistrationRouter(t)
	reg := createRegistration(t, router, uuid.New().String())
	courseID := uuid.New().String()
	doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/courses", map[string]any{"course_id": courseID, "credits": 3}, "")
	doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/submit", nil, "")

	advisor := uuid.New().String()
	missingReason := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/reject", map[string]any{}, advisor)
	if missingReason.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 rejecting without a reason, got %d", missingReason.Code)
	}
	rejected := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/reject", map[string]any{"reason": "prerequisite missing"}, advisor)
	if rejected.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting, got %d: %s", rejected.Code, rejected.Body)
	}
	decode(t, rejected, &reg)
	if reg.Status != "rejected" || reg.RejectionReason != "prerequisite missing" {
		t.Fatalf("unexpected rejected registration: %+v", reg)
	}

	removed := doJSON(t, router, http.MethodDelete, "/registrations/"+reg.ID+"/courses/"+courseID, nil, "")
	var result map[string]bool
	decode(t, removed, &result)
	if !result["removed"] {
		t.Fatalf("expected course to be removed, got %v", result)
	}
	removed = doJSON(t, router, http.MethodDelete, "/registrations/"+reg.ID+"/courses/"+courseID, nil, "")
	decode(t, removed, &result)
	if result["removed"] {
		t.Fatalf("expected second removal to be a no-op")
	}

	cancelled := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/cancel", nil, "")
	if cancelled.Code != http.StatusOK {
		t.Fatalf("expected 200 cancelling, got %d: %s", cancelled.Code, cancelled.Body)
	}
	again := doJSON(t, router, http.MethodPost, "/registrations/"+reg.ID+"/submit", nil, "")
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 submitting a cancelled registration, got %d", again.Code)
	}
}

func TestListAndDeleteRegistrations(t *testing.T) {
	router := newRegistrationRouter(t)
	student := uuid.New().String()
	kept := createRegistration(t, router, student)
	deleted := createRegistration(t, router, student)
	createRegistration(t, router, uuid.New().String())

	rec := doJSON(t, router, http.MethodDelete, "/registrations/"+deleted.ID, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting registration, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/registrations/"+deleted.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted registration, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/registrations?student_id="+student, nil, "")
	var list struct {
		Registrations []RegistrationResponse `json:"registrations"`
	}
	decode(t, rec, &list)
	if len(list.Registrations) != 1 || list.Registrations[0].ID != kept.ID {
		t.Fatalf("expected only the kept registration, got %+v", list.Registrations)
	}

	rec = doJSON(t, router, http.MethodGet, "/registrations", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 listing without student_id, got %d", rec.Code)
	}
}

func TestCreateRegistrationValidation(t *testing.T) {
	router := newRegistrationRouter(t)
	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing student", map[string]any{"academic_year": "2024-2025", "term": 1}},
		{"malformed student", map[string]any{"student_id": "abc", "academic_year": "2024-2025", "term": 1}},
		{"bad year", map[string]any{"student_id": uuid.New().String(), "academic_year": "2024", "term": 1}},
		{"bad term", map[string]any{"student_id": uuid.New().String(), "academic_year": "2024-2025", "term": 5}},
		{"unknown field", map[string]any{"student_id": uuid.New().String(), "academic_year": "2024-2025", "term": 1, "credits": 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/registrations", tc.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
}

func newRegistrationRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(store.NewInMemoryStore(), service.WithLogger(logger))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func createRegistration(t *testing.T, router http.Handler, studentID string) RegistrationResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/registrations", map[string]any{
		"student_id":    studentID,
		"academic_year": "2024-2025",
		"term":          1,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating registration, got %d: %s", rec.Code, rec.Body)
	}
	var reg RegistrationResponse
	decode(t, rec, &reg)
	return reg
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.WithRequestID(testutil.NewJSONRequest(t, method, path, body), "req-"+t.Name())
	if user != "" {
		req = testutil.AsUser(req, user)
	}
	return testutil.DoRequest(router, req)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
