package schedulers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cpusched/domain"
	"cpusched/schedule_algorithms"
	"cpusched/tracing"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
)

// Orchestrator runs policies over clones of an admitted baseline
type Orchestrator struct {
	cfg      domain.SchedulerConfig
	baseline []domain.ProcessRecord
	logger   *zap.Logger
	sink     domain.EventSink
	reporter Reporter
	registry metrics.Registry
	cache    *ristretto.Cache

	// runs are simulated one at a time, like the single CPU they model
	mu sync.Mutex
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithEventSink routes the policies' events to sink
func WithEventSink(sink domain.EventSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithReporter hands every report and selection error to reporter
func WithReporter(reporter Reporter) Option {
	return func(o *Orchestrator) { o.reporter = reporter }
}

// WithRegistry records run metrics in registry
func WithRegistry(registry metrics.Registry) Option {
	return func(o *Orchestrator) { o.registry = registry }
}

// WithCache stores reports in cache instead of a private one
func WithCache(cache *ristretto.Cache) Option {
	return func(o *Orchestrator) { o.cache = cache }
}

// NewOrchestrator snapshots admitted by value; later changes to the records do not affect runs
func NewOrchestrator(admitted []*domain.ProcessRecord, cfg domain.SchedulerConfig, logger *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		baseline: make([]domain.ProcessRecord, 0, len(admitted)),
		logger:   logger,
		sink:     domain.NopSink,
		reporter: nopReporter{},
	}
	for _, p := range admitted {
		o.baseline = append(o.baseline, *p.Clone())
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = metrics.NewRegistry()
	}
	if o.cache == nil && cfg.CacheReports {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 1000,
			MaxCost:     1 << 20,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create report cache: %w", err)
		}
		o.cache = cache
	}
	return o, nil
}

// Baseline returns copies of the admitted records
func (o *Orchestrator) Baseline() []domain.ProcessRecord {
	out := make([]domain.ProcessRecord, len(o.baseline))
	copy(out, o.baseline)
	return out
}

// Close releases the report cache
func (o *Orchestrator) Close() {
	if o.cache != nil {
		o.cache.Close()
	}
}

// Run schedules a fresh clone of the baseline with the selected policy.
// Identical selections produce identical reports regardless of what ran before.
func (o *Orchestrator) Run(ctx context.Context, selection domain.Selection) (*domain.ScheduleReport, error) {
	if selection.Policy == domain.PolicyRoundRobin && selection.Quantum == 0 {
		selection.Quantum = o.cfg.Quantum
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	policy, err := schedule_algorithms.New(selection, o.cfg, o.sink, o.logger)
	if err != nil {
		o.reporter.ReportError(err)
		return nil, err
	}

	_, span := tracing.StartSpan(ctx, "schedule."+slug(selection.Policy), "INTERNAL")
	span.WithAttributes(map[string]string{
		"policy":    policy.Name(),
		"quantum":   strconv.Itoa(selection.Quantum),
		"processes": strconv.Itoa(len(o.baseline)),
	})

	processes := make([]*domain.ProcessRecord, 0, len(o.baseline))
	for _, p := range o.baseline {
		processes = append(processes, p.Clone())
	}

	// policies run on every call, cache hits included, so each run emits its events
	start := time.Now()
	result, err := policy.Run(processes)
	if err != nil {
		tracing.EndSpan(span, err)
		o.reporter.ReportError(err)
		return nil, err
	}
	metrics.GetOrRegisterTimer("schedule."+slug(selection.Policy)+".latency", o.registry).UpdateSince(start)

	if o.cache != nil {
		if value, found := o.cache.Get(selection.Key()); found {
			cached := *value.(*domain.ScheduleReport)
			cached.Cached = true
			metrics.GetOrRegisterCounter("schedule.cache_hits", o.registry).Inc(1)
			tracing.EndSpan(span, nil)
			o.logger.Info("serving cached schedule", zap.String("policy", policy.Name()), zap.String("run_id", cached.RunID))
			o.reporter.ReportSchedule(&cached)
			return &cached, nil
		}
	}
	metrics.GetOrRegisterCounter("schedule.runs", o.registry).Inc(1)
	metrics.GetOrRegisterCounter("schedule.starvation", o.registry).Inc(int64(len(result.Starvation)))

	report := &domain.ScheduleReport{
		RunID:      uuid.NewString(),
		Policy:     selection.Policy,
		Quantum:    selection.Quantum,
		Result:     result,
		Statistics: schedule_algorithms.Summarize(result),
	}
	if o.cache != nil {
		o.cache.Set(selection.Key(), report, 1)
		o.cache.Wait()
	}
	tracing.EndSpan(span, nil)

	o.logger.Info("schedule finished",
		zap.String("run_id", report.RunID),
		zap.String("policy", policy.Name()),
		zap.Float64("average_waiting_time", report.Statistics.AvgWaiting),
		zap.Float64("average_turnaround_time", report.Statistics.AvgTurnaround),
		zap.Int("starving", len(result.Starvation)))
	o.reporter.ReportSchedule(report)
	return report, nil
}

func slug(kind domain.PolicyKind) string {
	return strings.ReplaceAll(strings.ToLower(kind.String()), " ", "_")
}
