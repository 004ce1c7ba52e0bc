package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/filesearch/internal/domain"
	"github.com/kailas-cloud/filesearch/internal/domain/operation"
	"github.com/kailas-cloud/filesearch/internal/domain/record"
	"github.com/kailas-cloud/filesearch/internal/metrics"
)

const (
	// DefaultPollInterval is the wait between operation status checks.
	DefaultPollInterval = 3 * time.Second
	// DefaultTimeout is the total wait budget for indexing to complete.
	DefaultTimeout = 300 * time.Second

	// persistTimeout bounds the FAILED write issued after the caller's context ended.
	persistTimeout = 10 * time.Second
)

// Service drives a record through the ingestion state machine:
// UPLOADING -> PROCESSING -> READY, or FAILED on any error.
type Service struct {
	records   RecordStore
	gateway   Gateway
	waiter    Waiter
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	interval  time.Duration
	budget    time.Duration
	inflight  singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the cancellation scope of one shared attempt. Its context is
// detached from any single caller and ends when the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New creates an ingestion service with the default polling protocol.
func New(records RecordStore, gateway Gateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:  records,
		gateway:  gateway,
		waiter:   TimerWaiter{},
		logger:   logger,
		now:      time.Now,
		interval: DefaultPollInterval,
		budget:   DefaultTimeout,
		flights:  make(map[string]*flight),
	}
}

// WithPolling overrides the poll interval and the total wait budget.
func (s *Service) WithPolling(interval, budget time.Duration) *Service {
	if interval > 0 {
		s.interval = interval
	}
	if budget > 0 {
		s.budget = budget
	}
	return s
}

// WithWaiter replaces the poll loop suspension.
func (s *Service) WithWaiter(w Waiter) *Service {
	if w != nil {
		s.waiter = w
	}
	return s
}

// WithPublisher sets the lifecycle event sink. Nil disables events.
func (s *Service) WithPublisher(p EventPublisher) *Service {
	s.publisher = p
	return s
}

// WithClock sets the time source for record timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Ingest runs one ingestion attempt for the record and blocks until it
// reaches READY or FAILED. Concurrent calls for the same ID share a single
// attempt and its result. A caller that gives up only stops waiting; the
// attempt is cancelled once every waiting caller has given up, and that last
// caller still receives the FAILED outcome.
//
// On failure the returned record reflects the last persisted state and the
// error is a *domain.IngestionError naming the failing step.
func (s *Service) Ingest(ctx context.Context, recordID string) (record.Record, error) {
	f := s.join(ctx, recordID)
	ch := s.inflight.DoChan(recordID, func() (any, error) {
		rec, err := s.run(f.ctx, recordID)
		return rec, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
		s.leave(recordID, f)
	case <-ctx.Done():
		if !s.leave(recordID, f) {
			return record.Record{}, fmt.Errorf("wait for ingestion of %s: %w: %w",
				recordID, domain.ErrIngestionCancelled, ctx.Err())
		}
		res = <-ch
	}

	if res.Shared {
		s.logger.Debug("Joined in-flight ingestion", zap.String("record_id", recordID))
	}
	rec, _ := res.Val.(record.Record)
	return rec, res.Err //nolint:wrapcheck // errors are wrapped inside run
}

// join registers a waiter on the record's flight, opening one if needed.
// The flight context keeps the opening caller's values, not its cancellation.
func (s *Service) join(ctx context.Context, recordID string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[recordID]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		s.flights[recordID] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter and reports whether it was the last one, in which
// case the flight is cancelled and forgotten.
func (s *Service) leave(recordID string, f *flight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if s.flights[recordID] == f {
		delete(s.flights, recordID)
	}
	return true
}

func (s *Service) run(ctx context.Context, recordID string) (record.Record, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return record.Record{}, fmt.Errorf("load record %s: %w", recordID, err)
	}

	metrics.IngestionsInFlight.Inc()
	defer metrics.IngestionsInFlight.Dec()

	started := time.Now()
	a := &attempt{svc: s, rec: rec, log: s.logger.With(zap.String("record_id", recordID))}
	err = a.execute(ctx)

	outcome := outcomeOf(err)
	metrics.IngestionsTotal.WithLabelValues(outcome).Inc()
	metrics.IngestionDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	metrics.IngestionPollChecks.Observe(float64(a.polls))

	if err != nil {
		a.log.Error("Ingestion failed",
			zap.String("outcome", outcome),
			zap.Int("polls", a.polls),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		return a.rec, err
	}

	a.log.Info("Ingestion completed",
		zap.String("store_ref", a.rec.StoreRef()),
		zap.Int("polls", a.polls),
		zap.Duration("duration", time.Since(started)),
	)
	return a.rec, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ready"
	case errors.Is(err, domain.ErrIngestionTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrIngestionCancelled):
		return "cancelled"
	default:
		return "failed"
	}
}

// attempt holds the state of one ingestion run.
type attempt struct {
	svc   *Service
	rec   record.Record
	log   *zap.Logger
	polls int
}

func (a *attempt) execute(ctx context.Context) error {
	s := a.svc

	if err := a.advance(ctx, domain.StepBegin, func(r *record.Record) (record.Diff, error) {
		return r.BeginIngestion(s.now()), nil
	}); err != nil {
		return err
	}

	storeRef, err := s.gateway.CreateStore(ctx, a.rec.Title())
	if err != nil {
		return a.fail(ctx, domain.StepCreateStore, domain.ErrStoreCreationFailed, err)
	}
	if err := a.advance(ctx, domain.StepCreateStore, func(r *record.Record) (record.Diff, error) {
		return r.AttachStore(storeRef, s.now())
	}); err != nil {
		return err
	}

	if a.rec.SourceFile() == "" {
		return a.fail(ctx, domain.StepUpload, domain.ErrUploadFailed, errors.New("record has no source file"))
	}
	op, err := s.gateway.UploadFile(ctx, a.rec.StoreRef(), a.rec.SourceFile())
	if err != nil {
		return a.fail(ctx, domain.StepUpload, domain.ErrUploadFailed, err)
	}
	a.log.Debug("Upload started", zap.String("operation", op.Name))

	if err := a.await(ctx, op); err != nil {
		return err
	}

	return a.advance(ctx, domain.StepFinish, func(r *record.Record) (record.Diff, error) {
		return r.MarkReady(s.now())
	})
}

// await polls the upload operation until it is done or the budget runs out.
// The number of checks never exceeds ceil(budget/interval).
func (a *attempt) await(ctx context.Context, op operation.Operation) error {
	s := a.svc
	var waited time.Duration

	for !op.Done {
		if waited >= s.budget {
			return a.fail(ctx, domain.StepPoll, domain.ErrIngestionTimeout,
				fmt.Errorf("upload timeout: indexing did not complete within %s", s.budget))
		}
		if err := s.waiter.Wait(ctx, s.interval); err != nil {
			return a.fail(ctx, domain.StepPoll, domain.ErrIngestionCancelled, err)
		}
		waited += s.interval

		a.polls++
		next, err := s.gateway.PollOperation(ctx, op)
		if err != nil {
			return a.fail(ctx, domain.StepPoll, domain.ErrPollFailed, err)
		}
		op = next
		a.log.Debug("Operation checked",
			zap.String("operation", op.Name),
			zap.Bool("done", op.Done),
			zap.Int("poll", a.polls),
		)
	}

	if op.Failed() {
		return a.fail(ctx, domain.StepPoll, domain.ErrUploadFailed,
			fmt.Errorf("operation %s: %s", op.Name, op.Error))
	}
	return nil
}

// advance applies a transition to a copy of the record, persists it and only
// then adopts it. A storage failure leaves the in-memory record at the last
// persisted state and triggers a best-effort FAILED write that still carries
// any store reference the transition introduced.
func (a *attempt) advance(
	ctx context.Context, step domain.Step,
	transition func(r *record.Record) (record.Diff, error),
) error {
	next := a.rec
	d, err := transition(&next)
	if err != nil {
		return domain.NewIngestionError(a.rec.ID(), step, err)
	}

	if err := a.svc.records.Update(ctx, next.ID(), d); err != nil {
		storeErr := fmt.Errorf("persist %s: %w", next.Status(), err)
		a.markFailed(ctx, storeErr.Error(), next.StoreRef())
		return domain.NewIngestionError(a.rec.ID(), step, storeErr)
	}

	from := a.rec.Status()
	a.rec = next
	a.emit(ctx, from)
	return nil
}

// fail persists FAILED for a step error and returns the typed error.
// Cancellation and remote errors observed after the context ended are both
// reported as ErrIngestionCancelled.
func (a *attempt) fail(ctx context.Context, step domain.Step, kind, cause error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(kind, domain.ErrIngestionCancelled) {
		cause = fmt.Errorf("%w (%w)", ctxErr, cause)
		kind = domain.ErrIngestionCancelled
	}

	var err error
	switch {
	case errors.Is(kind, domain.ErrIngestionTimeout):
		// cause already carries the "upload timeout" message
		err = fmt.Errorf("%w: %w", cause, kind)
	case errors.Is(kind, domain.ErrPollFailed):
		err = fmt.Errorf("%w: %w: %w", domain.ErrUploadFailed, kind, cause)
	default:
		err = fmt.Errorf("%w: %w", kind, cause)
	}

	msg := err.Error()
	if errors.Is(kind, domain.ErrIngestionTimeout) {
		msg = cause.Error()
	}
	a.markFailed(ctx, msg, "")
	return domain.NewIngestionError(a.rec.ID(), step, err)
}

// markFailed records FAILED on a context detached from the caller's
// cancellation. A non-empty storeRef not yet persisted is written with it.
// Errors are logged, never returned.
func (a *attempt) markFailed(ctx context.Context, message, storeRef string) {
	next := a.rec
	d, err := next.MarkFailed(message, a.svc.now())
	if err != nil {
		a.log.Warn("Cannot mark record failed", zap.String("status", string(a.rec.Status())), zap.Error(err))
		return
	}
	if storeRef != "" && storeRef != next.StoreRef() {
		d = d.WithStoreRef(storeRef)
		next.Apply(d)
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := a.svc.records.Update(pctx, next.ID(), d); err != nil {
		a.log.Error("Failed to persist FAILED status", zap.String("message", message), zap.Error(err))
		return
	}

	from := a.rec.Status()
	a.rec = next
	a.emit(pctx, from)
}

func (a *attempt) emit(ctx context.Context, from record.Status) {
	ev := record.NewEvent(&a.rec, from)
	a.log.Info("Record transition",
		zap.String("from", string(ev.From)),
		zap.String("to", string(ev.To)),
		zap.String("store_ref", ev.StoreRef),
	)

	if a.svc.publisher == nil {
		return
	}
	if err := a.svc.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		a.log.Warn("Failed to publish record event",
			zap.String("to", string(ev.To)),
			zap.Error(err),
		)
	}
}
