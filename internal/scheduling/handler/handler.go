package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"campus/internal/scheduling/schedule"
	"campus/internal/scheduling/service"
	"campus/pkg/attrs"
	id "campus/pkg/domain"
	"campus/pkg/platform/httputil"
	"campus/pkg/requestcontext"
)

// Service defines the schedule operations exposed over HTTP.
type Service interface {
	CreateSchedule(ctx context.Context, cmd service.CreateScheduleCommand) (*schedule.WeeklySchedule, error)
	GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error)
	ListSchedules(ctx context.Context, academicYear id.AcademicYear, term id.Term) ([]*schedule.WeeklySchedule, error)
	AddSession(ctx context.Context, scheduleID id.ScheduleID, spec schedule.SessionSpec) (schedule.CourseSession, error)
	RemoveSession(ctx context.Context, scheduleID id.ScheduleID, sessionID id.SessionID) error
	Publish(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error)
	Activate(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error)
	Suspend(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error)
	Archive(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error)
	Delete(ctx context.Context, scheduleID id.ScheduleID) error
	InstructorWorkload(ctx context.Context, scheduleID id.ScheduleID, instructorID id.InstructorID) (float64, error)
	CheckConflict(ctx context.Context, scheduleID id.ScheduleID, spec schedule.SessionSpec) ([]*schedule.SchedulingConflictError, error)
}

// Handler wires schedule endpoints to the scheduling service.
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

// Register mounts schedule endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/schedules", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Post("/sessions", h.HandleAddSession)
			r.Delete("/sessions/{sessionID}", h.HandleRemoveSession)
			r.Post("/conflicts", h.HandleCheckConflict)
			r.Post("/publish", h.transition("publish", h.service.Publish))
			r.Post("/activate", h.transition("activate", h.service.Activate))
			r.Post("/suspend", h.transition("suspend", h.service.Suspend))
			r.Post("/archive", h.transition("archive", h.service.Archive))
			r.Get("/workload/{instructorID}", h.HandleWorkload)
		})
	})
}

// HandleCreate handles POST /schedules.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateScheduleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sched, err := h.service.CreateSchedule(ctx, req.Command())
	if err != nil {
		h.fail(ctx, w, "create schedule failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toScheduleResponse(sched))
}

// HandleList handles GET /schedules?academic_year=2024-2025&term=1.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year, err := id.ParseAcademicYear(r.URL.Query().Get("academic_year"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("term"))
	term, err := id.ParseTerm(n)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	schedules, err := h.service.ListSchedules(ctx, year, term)
	if err != nil {
		h.fail(ctx, w, "list schedules failed", err)
		return
	}
	out := make([]ScheduleResponse, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, toScheduleResponse(sched))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"schedules": out})
}

// HandleGet handles GET /schedules/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scheduleID, ok := scheduleIDParam(w, r)
	if !ok {
		return
	}
	sched, err := h.service.GetSchedule(ctx, scheduleID)
	if err != nil {
		h.fail(ctx, w, "get schedule failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScheduleResponse(sched))
}

// HandleDelete handles DELETE /schedules/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scheduleID, ok := scheduleIDParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, scheduleID); err != nil {
		h.fail(ctx, w, "delete schedule failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddSession handles POST /schedules/{id}/sessions.
func (h *Handler) HandleAddSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	scheduleID, ok := scheduleIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	session, err := h.service.AddSession(ctx, scheduleID, req.Spec())
	if err != nil {
		h.fail(ctx, w, "add session failed", err, "schedule_id", scheduleID.String())
		return
	}
	h.logger.InfoContext(ctx, "session added",
		"request_id", requestID,
		"schedule_id", scheduleID.String(),
		"session_id", session.ID().String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(session))
}

// HandleRemoveSession handles DELETE /schedules/{id}/sessions/{sessionID}.
func (h *Handler) HandleRemoveSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scheduleID, ok := scheduleIDParam(w, r)
	if !ok {
		return
	}
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveSession(ctx, scheduleID, sessionID); err != nil {
		h.fail(ctx, w, "remove session failed", err, "schedule_id", scheduleID.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheckConflict handles POST /schedules/{id}/conflicts. Nothing is booked.
func (h *Handler) HandleCheckConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	scheduleID, ok := scheduleIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	conflicts, err := h.service.CheckConflict(ctx, scheduleID, req.Spec())
	if err != nil {
		h.fail(ctx, w, "check conflict failed", err, "schedule_id", scheduleID.String())
		return
	}
	resp := ConflictsResponse{HasConflict: len(conflicts) > 0, Conflicts: make([]map[string]any, 0, len(conflicts))}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, c.Details())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleWorkload handles GET /schedules/{id}/workload/{instructorID}.
func (h *Handler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scheduleID, ok := scheduleIDParam(w, r)
	if !ok {
		return
	}
	instructorID, err := id.ParseInstructorID(chi.URLParam(r, "instructorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hours, err := h.service.InstructorWorkload(ctx, scheduleID, instructorID)
	if err != nil {
		h.fail(ctx, w, "instructor workload failed", err, "schedule_id", scheduleID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WorkloadResponse{InstructorID: instructorID.String(), TeachingHours: hours})
}

func (h *Handler) transition(name string, apply func(context.Context, id.ScheduleID) (*schedule.WeeklySchedule, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		scheduleID, ok := scheduleIDParam(w, r)
		if !ok {
			return
		}
		sched, err := apply(ctx, scheduleID)
		if err != nil {
			h.fail(ctx, w, name+" schedule failed", err, "schedule_id", scheduleID.String())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toScheduleResponse(sched))
	}
}

func scheduleIDParam(w http.ResponseWriter, r *http.Request) (id.ScheduleID, bool) {
	scheduleID, err := id.ParseScheduleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ScheduleID{}, false
	}
	return scheduleID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attributes ...any) {
	h.logger.WarnContext(ctx, msg, attrs.Prepend(attributes, "request_id", requestcontext.RequestID(ctx), "error", err)...)
	httputil.WriteError(w, err)
}
