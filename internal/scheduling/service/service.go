package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"campus/internal/audit"
	"campus/internal/platform/events"
	"campus/internal/platform/lock"
	"campus/internal/scheduling/metrics"
	"campus/internal/scheduling/models"
	"campus/internal/scheduling/schedule"
	"campus/pkg/attrs"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/sentinel"
	"campus/pkg/requestcontext"
)

// maxAttempts bounds optimistic retries when a concurrent writer bumped the version.
const maxAttempts = 3

// Store persists schedule records. Update must fail with sentinel.ErrStale when
// the stored version differs from record.Version.
type Store interface {
	Create(ctx context.Context, record models.ScheduleRecord) (int64, error)
	Update(ctx context.Context, record models.ScheduleRecord) (int64, error)
	FindByID(ctx context.Context, scheduleID id.ScheduleID) (models.ScheduleRecord, error)
	ListByTerm(ctx context.Context, academicYear id.AcademicYear, term id.Term) ([]models.ScheduleRecord, error)
}

// EffectPublisher delivers effects after the owning write committed.
type EffectPublisher interface {
	Publish(ctx context.Context, envelopes ...events.Envelope) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs schedule commands. Every mutating command executes
// load, check, mutate and persist under the schedule's lock.
type Service struct {
	store          Store
	locker         lock.Locker
	effects        EffectPublisher
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	commandTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithEffectPublisher(p EffectPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.effects = p
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithCommandTimeout bounds commands whose context carries no deadline.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.commandTimeout = d
		}
	}
}

// New constructs a Service. Without options it serializes commands with an
// in-process sharded lock and discards effects.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		locker:         lock.NewSharded(0),
		effects:        events.Discard{},
		tracer:         otel.Tracer("campus/scheduling"),
		commandTimeout: lock.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutation changes a loaded schedule and returns the effects to publish.
type mutation func(sched *schedule.WeeklySchedule, now time.Time) ([]schedule.Effect, error)

// mutate runs fn under the schedule lock and persists the result with an
// expected version, retrying when a concurrent writer got there first.
// Effects are published in order once the write committed.
func (s *Service) mutate(ctx context.Context, command string, scheduleID id.ScheduleID, fn mutation) (*schedule.WeeklySchedule, error) {
	start := time.Now()
	defer s.metrics.ObserveCommand(command, start)

	ctx, span := s.tracer.Start(ctx, "scheduling."+command,
		trace.WithAttributes(attribute.String("schedule.id", scheduleID.String())))
	defer span.End()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	var result *schedule.WeeklySchedule
	err := s.locker.Run(ctx, lockKey(scheduleID), func(ctx context.Context) error {
		for attempt := 1; ; attempt++ {
			sched, err := s.load(ctx, scheduleID)
			if err != nil {
				return err
			}
			effects, err := fn(sched, requestcontext.Now(ctx))
			if err != nil {
				return err
			}

			record := schedule.ToModel(sched)
			version, err := s.store.Update(ctx, record)
			if errors.Is(err, sentinel.ErrStale) && attempt < maxAttempts {
				s.metrics.IncrementStaleRetry()
				span.AddEvent("stale version, retrying", trace.WithAttributes(attribute.Int("attempt", attempt)))
				continue
			}
			if err != nil {
				return translateStoreError(err, "failed to save schedule")
			}

			record.Version = version
			if result, err = schedule.FromModel(record); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to rebuild saved schedule")
			}
			s.publish(ctx, effects)
			return nil
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, scheduleID id.ScheduleID) (*schedule.WeeklySchedule, error) {
	record, err := s.store.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load schedule")
	}
	sched, err := schedule.FromModel(record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored schedule is corrupt")
	}
	return sched, nil
}

func (s *Service) publish(ctx context.Context, effects []schedule.Effect) {
	if len(effects) == 0 {
		return
	}
	envelopes := make([]events.Envelope, 0, len(effects))
	for _, effect := range effects {
		env, err := toEnvelope(effect)
		if err != nil {
			s.logError(ctx, "failed to encode effect", err, "effect", effect.EffectName())
			s.metrics.IncrementPublishFailure()
			continue
		}
		env.RequestID = requestcontext.RequestID(ctx)
		envelopes = append(envelopes, env)
	}
	if err := s.effects.Publish(ctx, envelopes...); err != nil {
		s.logError(ctx, "failed to publish schedule effects", err, "count", len(envelopes))
		s.metrics.IncrementPublishFailure()
	}
}

func lockKey(scheduleID id.ScheduleID) string {
	return "schedule:" + scheduleID.String()
}

func translateStoreError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "schedule not found")
	case errors.Is(err, sentinel.ErrStale):
		return dErrors.Wrap(err, dErrors.CodeConflict, "schedule was modified concurrently, retry the request")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "schedule already exists")
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	actor := requestcontext.UserID(ctx)
	e := audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		Action:        event,
		AggregateType: "schedule",
		AggregateID:   attrs.ExtractString(attributes, "schedule_id"),
		Reason:        attrs.ExtractString(attributes, "reason"),
		RequestID:     requestID,
	}
	if !actor.IsNil() {
		e.ActorID = actor.String()
	}
	_ = s.auditPublisher.Emit(ctx, e)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attributes ...any) {
	if s.logger == nil {
		return
	}
	args := append(attributes, "error", err, "request_id", requestcontext.RequestID(ctx))
	s.logger.ErrorContext(ctx, msg, args...)
}
