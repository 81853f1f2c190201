package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campus/pkg/platform/httputil"
	"campus/pkg/requestcontext"
)

// Lister reads an aggregate's audit trail.
type Lister interface {
	List(ctx context.Context, aggregateID string) ([]Event, error)
}

// Handler exposes GET /audit/{aggregateID}.
type Handler struct {
	lister Lister
	logger *slog.Logger
}

func NewHandler(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/{aggregateID}", h.HandleList)
}

type eventResponse struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	ActorID       string    `json:"actor_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	aggregateID := chi.URLParam(r, "aggregateID")
	events, err := h.lister.List(ctx, aggregateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit events failed",
			"request_id", requestcontext.RequestID(ctx),
			"aggregate_id", aggregateID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}
