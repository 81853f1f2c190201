package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campus/internal/registration/service"
	"campus/internal/registration/termreg"
	"campus/pkg/attrs"
	id "campus/pkg/domain"
	"campus/pkg/platform/httputil"
	"campus/pkg/requestcontext"
)

// Service defines the registration operations exposed over HTTP.
type Service interface {
	CreateRegistration(ctx context.Context, cmd service.CreateRegistrationCommand) (*termreg.TermRegistration, error)
	GetRegistration(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error)
	ListRegistrations(ctx context.Context, studentID id.StudentID) ([]*termreg.TermRegistration, error)
	AddCourse(ctx context.Context, registrationID id.RegistrationID, spec termreg.CourseSpec) (termreg.CourseEnrollment, error)
	RemoveCourse(ctx context.Context, registrationID id.RegistrationID, courseID id.CourseID) (bool, error)
	DropCourse(ctx context.Context, registrationID id.RegistrationID, courseID id.CourseID) (termreg.CourseEnrollment, error)
	CompleteCourse(ctx context.Context, registrationID id.RegistrationID, courseID id.CourseID, gradePoint float64) (termreg.CourseEnrollment, error)
	Submit(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error)
	Approve(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error)
	Reject(ctx context.Context, registrationID id.RegistrationID, reason string) (*termreg.TermRegistration, error)
	Cancel(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error)
	Delete(ctx context.Context, registrationID id.RegistrationID) error
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts registration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Post("/courses", h.HandleAddCourse)
			r.Delete("/courses/{courseID}", h.HandleRemoveCourse)
			r.Post("/courses/{courseID}/drop", h.HandleDropCourse)
			r.Post("/courses/{courseID}/complete", h.HandleCompleteCourse)
			r.Post("/submit", h.transition("submit", h.service.Submit))
			r.Post("/approve", h.transition("approve", h.service.Approve))
			r.Post("/reject", h.HandleReject)
			r.Post("/cancel", h.transition("cancel", h.service.Cancel))
		})
	})
}

// HandleCreate handles POST /registrations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateRegistrationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	reg, err := h.service.CreateRegistration(ctx, req.Command())
	if err != nil {
		h.fail(ctx, w, "create registration failed", err)
		return
	}
	h.logger.InfoContext(ctx, "registration created",
		"request_id", requestID,
		"registration_id", reg.ID().String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toRegistrationResponse(reg))
}

// HandleList handles GET /registrations?student_id=...
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, err := id.ParseStudentID(r.URL.Query().Get("student_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	regs, err := h.service.ListRegistrations(ctx, studentID)
	if err != nil {
		h.fail(ctx, w, "list registrations failed", err)
		return
	}
	out := make([]RegistrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, toRegistrationResponse(reg))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"registrations": out})
}

// HandleGet handles GET /registrations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, ok := registrationIDParam(w, r)
	if !ok {
		return
	}
	reg, err := h.service.GetRegistration(ctx, registrationID)
	if err != nil {
		h.fail(ctx, w, "get registration failed", err, "registration_id", registrationID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

// HandleDelete handles DELETE /registrations/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, ok := registrationIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, registrationID); err != nil {
		h.fail(ctx, w, "delete registration failed", err, "registration_id", registrationID.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddCourse handles POST /registrations/{id}/courses.
func (h *Handler) HandleAddCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	registrationID, ok := registrationIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddCourseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	enrollment, err := h.service.AddCourse(ctx, registrationID, req.Spec())
	if err != nil {
		h.fail(ctx, w, "add course failed", err, "registration_id", registrationID.String())
		return
	}
	h.logger.InfoContext(ctx, "course added",
		"request_id", requestID,
		"registration_id", registrationID.String(),
		"course_id", enrollment.CourseID().String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toEnrollmentResponse(enrollment))
}

// HandleRemoveCourse handles DELETE /registrations/{id}/courses/{courseID}.
// Removing a course that is not registered is a no-op.
func (h *Handler) HandleRemoveCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, courseID, ok := courseParams(w, r)
	if !ok {
		return
	}
	removed, err := h.service.RemoveCourse(ctx, registrationID, courseID)
	if err != nil {
		h.fail(ctx, w, "remove course failed", err, "registration_id", registrationID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// HandleDropCourse handles POST /registrations/{id}/courses/{courseID}/drop.
func (h *Handler) HandleDropCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registrationID, courseID, ok := courseParams(w, r)
	if !ok {
		return
	}
	enrollment, err := h.service.DropCourse(ctx, registrationID, courseID)
	if err != nil {
		h.fail(ctx, w, "drop course failed", err, "registration_id", registrationID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

// HandleCompleteCourse handles POST /registrations/{id}/courses/{courseID}/complete.
func (h *Handler) HandleCompleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	registrationID, courseID, ok := courseParams(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CompleteCourseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	enrollment, err := h.service.CompleteCourse(ctx, registrationID, courseID, *req.GradePoint)
	if err != nil {
		h.fail(ctx, w, "complete course failed", err, "registration_id", registrationID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEnrollmentResponse(enrollment))
}

// HandleReject handles POST /registrations/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	registrationID, ok := registrationIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	reg, err := h.service.Reject(ctx, registrationID, req.Reason)
	if err != nil {
		h.fail(ctx, w, "reject registration failed", err, "registration_id", registrationID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (h *Handler) transition(name string, apply func(context.Context, id.RegistrationID) (*termreg.TermRegistration, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		registrationID, ok := registrationIDParam(w, r)
		if !ok {
			return
		}
		reg, err := apply(ctx, registrationID)
		if err != nil {
			h.fail(ctx, w, name+" registration failed", err, "registration_id", registrationID.String())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRegistrationResponse(reg))
	}
}

func registrationIDParam(w http.ResponseWriter, r *http.Request) (id.RegistrationID, bool) {
	registrationID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RegistrationID{}, false
	}
	return registrationID, true
}

func courseParams(w http.ResponseWriter, r *http.Request) (id.RegistrationID, id.CourseID, bool) {
	registrationID, ok := registrationIDParam(w, r)
	if !ok {
		return id.RegistrationID{}, id.CourseID{}, false
	}
	courseID, err := id.ParseCourseID(chi.URLParam(r, "courseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RegistrationID{}, id.CourseID{}, false
	}
	return registrationID, courseID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attributes ...any) {
	h.logger.WarnContext(ctx, msg, attrs.Prepend(attributes, "request_id", requestcontext.RequestID(ctx), "error", err)...)
	httputil.WriteError(w, err)
}
