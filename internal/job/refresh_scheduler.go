package job

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"coin-pulse/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const DefaultRefreshInterval = 5 * time.Minute

type TopPairsFetcher interface {
	FetchTopPairs(ctx context.Context) ([]domain.TickerSnapshot, error)
}

type CoinStore interface {
	UpsertAll(snapshots []domain.TickerSnapshot)
}

type State int32

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	if s == StateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// Status describes the outcome of past refresh cycles.
type Status struct {
	State       State     `json:"-"`
	StateName   string    `json:"state"`
	Runs        int64     `json:"runs"`
	Failures    int64     `json:"failures"`
	LastSuccess time.Time `json:"lastSuccess"`
	LastError   string    `json:"lastError,omitempty"`
	LastErrorAt time.Time `json:"lastErrorAt"`
}

// RefreshScheduler keeps the coin store populated with the latest top pairs.
// Cycles never overlap: scheduled ticks are skipped while one is running and
// concurrent Refresh calls share the in-flight cycle.
type RefreshScheduler struct {
	tracer   trace.Tracer
	logger   *logrus.Logger
	fetcher  TopPairsFetcher
	store    CoinStore
	interval time.Duration

	group singleflight.Group
	state atomic.Int32

	statusMu sync.Mutex
	status   Status

	lifecycleMu sync.Mutex
	cron        *cron.Cron
	cancel      context.CancelFunc
	initial     sync.WaitGroup

	// runCtx is cancelled by Stop. Cycles read it under runMu, never lifecycleMu.
	runMu  sync.Mutex
	runCtx context.Context
}

func NewRefreshScheduler(
	tracer trace.Tracer,
	logger *logrus.Logger,
	fetcher TopPairsFetcher,
	store CoinStore,
	interval time.Duration,
) *RefreshScheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &RefreshScheduler{
		tracer:   tracer,
		logger:   logger,
		fetcher:  fetcher,
		store:    store,
		interval: interval,
	}
}

func (s *RefreshScheduler) Interval() time.Duration {
	return s.interval
}

// Start runs a refresh right away and schedules one every interval until
// Stop is called or ctx is cancelled. It does not block.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cron != nil {
		return errors.New("refresh scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	logger := cronLogger{s.logger}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	c.Schedule(every(s.interval), cron.FuncJob(func() { s.runOnce(ctx) }))

	s.cron = c
	s.cancel = cancel
	s.runMu.Lock()
	s.runCtx = ctx
	s.runMu.Unlock()

	s.logger.WithField("interval", s.interval.String()).Info("Refresh scheduler starting")

	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.runOnce(ctx)
	}()
	c.Start()
	return nil
}

// Stop cancels the schedule and waits for any running cycle to return.
func (s *RefreshScheduler) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.cron = nil
	s.cancel = nil
	s.runMu.Lock()
	s.runCtx = nil
	s.runMu.Unlock()
	s.logger.Info("Refresh scheduler stopped")
}

// Refresh runs one cycle, or joins the one already in flight. The cycle is
// detached from ctx and only stopped by Stop; ctx bounds how long this caller
// waits for it.
func (s *RefreshScheduler) Refresh(ctx context.Context) error {
	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		cycleCtx, cancel := s.cycleContext(ctx)
		defer cancel()
		return nil, s.refresh(cycleCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RefreshScheduler) cycleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	cycleCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	s.runMu.Lock()
	run := s.runCtx
	s.runMu.Unlock()
	if run == nil {
		return cycleCtx, cancel
	}
	stop := context.AfterFunc(run, cancel)
	return cycleCtx, func() {
		stop()
		cancel()
	}
}

func (s *RefreshScheduler) State() State {
	return State(s.state.Load())
}

func (s *RefreshScheduler) Status() Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status
	st.State = s.State()
	st.StateName = st.State.String()
	return st
}

func (s *RefreshScheduler) runOnce(ctx context.Context) {
	// failures are logged inside refresh; the cache stays as it was
	_ = s.Refresh(ctx)
}

func (s *RefreshScheduler) refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "refresh-scheduler.refresh")
	defer span.End()

	s.state.Store(int32(StateRefreshing))
	defer s.state.Store(int32(StateIdle))

	start := time.Now()
	snapshots, err := s.fetcher.FetchTopPairs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch top pairs")
		s.recordFailure(err)
		s.logger.WithError(err).Error("Coin refresh failed, keeping cached data")
		return err
	}

	s.store.UpsertAll(snapshots)
	s.recordSuccess()

	span.SetAttributes(attribute.Int("coins", len(snapshots)))
	s.logger.WithFields(logrus.Fields{
		"coins":       len(snapshots),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Coin data refreshed")
	for _, snap := range snapshots {
		s.logger.WithFields(logrus.Fields{
			"base_asset": snap.BaseAsset,
			"last_price": snap.LastPrice,
		}).Debug("Updated coin")
	}
	return nil
}

func (s *RefreshScheduler) recordSuccess() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Runs++
	s.status.LastSuccess = time.Now()
}

func (s *RefreshScheduler) recordFailure(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Runs++
	s.status.Failures++
	s.status.LastError = err.Error()
	s.status.LastErrorAt = time.Now()
}

// every is a fixed-delay schedule with sub-second precision; cron's @every
// truncates to whole seconds.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

type cronLogger struct {
	logger *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).WithFields(kvFields(keysAndValues)).Error("cron: " + msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			fields[k] = keysAndValues[i+1]
		}
	}
	return fields
}
