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
	"campus/internal/registration/metrics"
	"campus/internal/registration/models"
	"campus/internal/registration/termreg"
	"campus/pkg/attrs"
	id "campus/pkg/domain"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/sentinel"
	"campus/pkg/requestcontext"
)

const maxAttempts = 3

// Store persists registration records. Update must fail with sentinel.ErrStale
// when the stored version differs from record.Version.
type Store interface {
	Create(ctx context.Context, record models.RegistrationRecord) (int64, error)
	Update(ctx context.Context, record models.RegistrationRecord) (int64, error)
	FindByID(ctx context.Context, registrationID id.RegistrationID) (models.RegistrationRecord, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]models.RegistrationRecord, error)
}

// EffectPublisher delivers effects after the owning write committed.
type EffectPublisher interface {
	Publish(ctx context.Context, envelopes ...events.Envelope) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs term registration commands. Mutations of one registration are
// serialized by its lock and guarded by its stored version.
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

func WithCommandTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.commandTimeout = d
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		locker:         lock.NewSharded(0),
		effects:        events.Discard{},
		tracer:         otel.Tracer("campus/registration"),
		commandTimeout: lock.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutation changes a loaded registration. Returning no effects means nothing
// changed and the write is skipped.
type mutation func(reg *termreg.TermRegistration, now time.Time) ([]termreg.Effect, error)

func (s *Service) mutate(ctx context.Context, command string, registrationID id.RegistrationID, fn mutation) (*termreg.TermRegistration, error) {
	start := time.Now()
	defer s.metrics.ObserveCommand(command, start)

	ctx, span := s.tracer.Start(ctx, "registration."+command,
		trace.WithAttributes(attribute.String("registration.id", registrationID.String())))
	defer span.End()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	var result *termreg.TermRegistration
	err := s.locker.Run(ctx, lockKey(registrationID), func(ctx context.Context) error {
		for attempt := 1; ; attempt++ {
			reg, err := s.load(ctx, registrationID)
			if err != nil {
				return err
			}
			effects, err := fn(reg, requestcontext.Now(ctx))
			if err != nil {
				return err
			}
			if len(effects) == 0 {
				result = reg
				return nil
			}

			record := termreg.ToModel(reg)
			version, err := s.store.Update(ctx, record)
			if errors.Is(err, sentinel.ErrStale) && attempt < maxAttempts {
				s.metrics.IncrementStaleRetry()
				span.AddEvent("stale version, retrying", trace.WithAttributes(attribute.Int("attempt", attempt)))
				continue
			}
			if err != nil {
				return translateStoreError(err, "failed to save registration")
			}

			record.Version = version
			if result, err = termreg.FromModel(record); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to rebuild saved registration")
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

func (s *Service) load(ctx context.Context, registrationID id.RegistrationID) (*termreg.TermRegistration, error) {
	record, err := s.store.FindByID(ctx, registrationID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load registration")
	}
	reg, err := termreg.FromModel(record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored registration is corrupt")
	}
	return reg, nil
}

func (s *Service) publish(ctx context.Context, effects []termreg.Effect) {
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
		s.logError(ctx, "failed to publish registration effects", err, "count", len(envelopes))
		s.metrics.IncrementPublishFailure()
	}
}

func lockKey(registrationID id.RegistrationID) string {
	return "registration:" + registrationID.String()
}

func translateStoreError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrStale):
		return dErrors.Wrap(err, dErrors.CodeConflict, "registration was modified concurrently, retry the request")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "registration already exists")
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

// actingAdvisor resolves the authenticated user as the deciding advisor.
func actingAdvisor(ctx context.Context) (id.AdvisorID, error) {
	user := requestcontext.UserID(ctx)
	if user.IsNil() {
		return id.AdvisorID{}, dErrors.New(dErrors.CodeUnauthorized, "advisor decisions require an authenticated user")
	}
	return id.AdvisorID(user), nil
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
	e := audit.Event{
		Timestamp:     requestcontext.Now(ctx),
		Action:        event,
		AggregateType: aggregateType,
		AggregateID:   attrs.ExtractString(attributes, "registration_id"),
		Reason:        attrs.ExtractString(attributes, "reason"),
		RequestID:     requestID,
	}
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
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
