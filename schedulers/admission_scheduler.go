package schedulers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cpusched/domain"
	"cpusched/helpers"
	"cpusched/tracing"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const defaultPollInterval = 100 * time.Millisecond

var descriptorFields = [4]string{"id", "burstTime", "priority", "memoryRequired"}

// AdmissionState is the pending list and memory counter shared by the ingestion stages.
// Every access goes through its lock.
type AdmissionState struct {
	mu       sync.Mutex
	pending  []*domain.ProcessRecord
	admitted []*domain.ProcessRecord
	used     int
	budget   int
	finished bool
	// wake holds at most one signal so the producer never blocks on it
	wake chan struct{}
}

// NewAdmissionState returns an empty state with the given memory budget
func NewAdmissionState(budget int) *AdmissionState {
	return &AdmissionState{budget: budget, wake: make(chan struct{}, 1)}
}

// Append adds a validated record to the tail of pending
func (s *AdmissionState) Append(p *domain.ProcessRecord) {
	s.mu.Lock()
	s.pending = append(s.pending, p)
	s.mu.Unlock()
	s.signal()
}

// Finish marks that no more records will be appended
func (s *AdmissionState) Finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.signal()
}

func (s *AdmissionState) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// admitNext moves the first pending record that fits the remaining budget.
// done is true once the producer finished and nothing left can be moved.
func (s *AdmissionState) admitNext() (p *domain.ProcessRecord, used int, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.pending {
		if s.used+candidate.MemoryRequired > s.budget {
			continue
		}
		if err = candidate.Transition(domain.StateReady); err != nil {
			return nil, s.used, false, err
		}
		s.pending = slices.Delete(s.pending, i, i+1)
		s.used += candidate.MemoryRequired
		s.admitted = append(s.admitted, candidate)
		return candidate, s.used, false, nil
	}
	return nil, s.used, s.finished, nil
}

// Snapshot returns copies of the admitted and pending lists and the memory in use
func (s *AdmissionState) Snapshot() (admitted, pending []*domain.ProcessRecord, used int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.admitted), slices.Clone(s.pending), s.used
}

// AdmissionController validates job descriptors and admits them first-fit into a memory budget
type AdmissionController struct {
	cfg      *domain.Config
	logger   *zap.Logger
	registry metrics.Registry

	sinkMu sync.Mutex
	sink   domain.EventSink
}

// NewAdmissionController returns a controller; nil sink, logger or registry fall back to no-ops
func NewAdmissionController(cfg *domain.Config, sink domain.EventSink, logger *zap.Logger, registry metrics.Registry) *AdmissionController {
	if cfg == nil {
		cfg = domain.DefaultConfig()
	}
	if sink == nil {
		sink = domain.NopSink
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &AdmissionController{cfg: cfg, sink: sink, logger: logger, registry: registry}
}

// emit serializes events coming from the producer and the consumer
func (c *AdmissionController) emit(event domain.Event) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	c.sink.Emit(event)
}

// Validate parses id:burstTime:priority:memoryRequired into a NEW record
func (c *AdmissionController) Validate(descriptor domain.JobDescriptor) (*domain.ProcessRecord, error) {
	invalid := func(format string, args ...any) error {
		return &domain.ValidationError{Line: descriptor.Line, Raw: descriptor.Raw, Reason: fmt.Sprintf(format, args...)}
	}

	fields := helpers.SplitDescriptor(descriptor.Raw)
	if len(fields) != len(descriptorFields) {
		return nil, invalid("expected %d fields, got %d", len(descriptorFields), len(fields))
	}
	var values [4]int
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, invalid("%s %q is not an integer", descriptorFields[i], field)
		}
		values[i] = v
	}

	id, burst, priority, memory := values[0], values[1], values[2], values[3]
	switch {
	case burst <= 0:
		return nil, invalid("burstTime must be > 0, got %d", burst)
	case priority < c.cfg.MinPriority || priority > c.cfg.MaxPriority:
		return nil, invalid("priority must be in [%d, %d], got %d", c.cfg.MinPriority, c.cfg.MaxPriority, priority)
	case memory <= 0:
		return nil, invalid("memoryRequired must be > 0, got %d", memory)
	}

	p := domain.NewProcessRecord(id, burst, priority, memory)
	c.emit(domain.Event{Kind: domain.EventCreate, PID: id, State: p.State, Memory: memory, Clock: -1})
	return p, nil
}

// Admit runs one first-fit pass over records under budget.
// It returns the admitted records in admission order and those left pending.
// Records must all be NEW; otherwise none is touched.
func (c *AdmissionController) Admit(records []*domain.ProcessRecord, budget int) (admitted, pending []*domain.ProcessRecord, err error) {
	for _, p := range records {
		if p.State != domain.StateNew {
			return nil, nil, &domain.TransitionError{PID: p.ID, From: p.State, To: domain.StateReady}
		}
	}
	state := NewAdmissionState(budget)
	state.pending = slices.Clone(records)
	state.finished = true
	for {
		p, used, _, err := state.admitNext()
		if err != nil {
			return nil, nil, err
		}
		if p == nil {
			break
		}
		c.onAdmitted(p, used)
	}
	admitted, pending, _ = state.Snapshot()
	return admitted, pending, nil
}

func (c *AdmissionController) onAdmitted(p *domain.ProcessRecord, used int) {
	c.emit(domain.Event{Kind: domain.EventAllocate, PID: p.ID, State: p.State, Memory: p.MemoryRequired, Clock: -1})
	c.emit(domain.Event{Kind: domain.EventSetState, PID: p.ID, State: domain.StateReady, Clock: -1})
	metrics.GetOrRegisterCounter("admission.admitted", c.registry).Inc(1)
	metrics.GetOrRegisterGauge("admission.memory_used", c.registry).Update(int64(used))
	c.logger.Debug("admitted process", zap.Int("pid", p.ID), zap.Int("memory", p.MemoryRequired), zap.Int("used_memory", used))
}

// Ingest streams source through validation into admission, the two stages running concurrently.
// A failing or stalled source is returned as *domain.SourceUnavailableError next to the partial result.
func (c *AdmissionController) Ingest(ctx context.Context, source JobSource) (*domain.AdmissionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "admission.ingest", "CONSUMER")
	span.WithAttributes(map[string]string{"source": source.Name()})

	if c.cfg.IngestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.IngestTimeout)
		defer cancel()
	}

	state := NewAdmissionState(c.cfg.MemoryBudget)
	lines := make(chan domain.JobDescriptor)
	var rejected []*domain.ValidationError

	// the stream goroutine owns lines; Ingest stops waiting for it once ctx is done
	streamErr := make(chan error, 1)
	go func() {
		defer close(lines)
		streamErr <- source.Stream(ctx, lines)
	}()

	var g errgroup.Group
	g.Go(func() error {
		defer state.Finish()
		rejected = c.produce(ctx, lines, state)
		return nil
	})
	g.Go(func() error {
		return c.consume(ctx, state)
	})

	var err error
	select {
	case err = <-streamErr:
	case <-ctx.Done():
		select {
		case err = <-streamErr:
		default:
			c.logger.Warn("stopped waiting for job source", zap.String("source", source.Name()))
			err = ctx.Err()
		}
	}
	if err != nil {
		err = &domain.SourceUnavailableError{Source: source.Name(), Err: err}
	}
	if consumeErr := g.Wait(); consumeErr != nil && err == nil {
		err = consumeErr
	}

	admitted, pending, used := state.Snapshot()
	result := &domain.AdmissionResult{
		Admitted:   admitted,
		Pending:    pending,
		Rejected:   rejected,
		UsedMemory: used,
		Budget:     c.cfg.MemoryBudget,
	}
	metrics.GetOrRegisterGauge("admission.pending", c.registry).Update(int64(len(pending)))

	c.logger.Info("ingestion finished",
		zap.String("source", source.Name()),
		zap.Int("admitted", len(admitted)),
		zap.Int("pending", len(pending)),
		zap.Int("rejected", len(rejected)),
		zap.Int("used_memory", used),
		zap.Int("budget", c.cfg.MemoryBudget))
	if err != nil {
		c.logger.Error("job source failed", zap.String("source", source.Name()), zap.Error(err))
	}
	tracing.EndSpan(span, err)
	return result, err
}

// produce validates every line and appends accepted records to state until lines closes or ctx is done
func (c *AdmissionController) produce(ctx context.Context, lines <-chan domain.JobDescriptor, state *AdmissionState) []*domain.ValidationError {
	var rejected []*domain.ValidationError
	seen := make(map[int]bool)
	seq := 0
	for {
		var descriptor domain.JobDescriptor
		var ok bool
		select {
		case descriptor, ok = <-lines:
		case <-ctx.Done():
			return rejected
		}
		if !ok {
			return rejected
		}
		p, err := c.Validate(descriptor)
		if err == nil && seen[p.ID] {
			err = &domain.ValidationError{Line: descriptor.Line, Raw: descriptor.Raw, Reason: fmt.Sprintf("duplicate id %d", p.ID)}
		}
		if err != nil {
			var validationErr *domain.ValidationError
			if errors.As(err, &validationErr) {
				rejected = append(rejected, validationErr)
			}
			metrics.GetOrRegisterCounter("admission.rejected", c.registry).Inc(1)
			c.logger.Warn("skipping job descriptor", zap.Int("line", descriptor.Line), zap.Error(err))
			continue
		}
		seen[p.ID] = true
		p.Seq = seq
		seq++
		state.Append(p)
	}
}

// consume admits one record per critical section and idles on the wake signal or the poll interval.
// After ctx is done it keeps draining until the producer has finished.
func (c *AdmissionController) consume(ctx context.Context, state *AdmissionState) error {
	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cancelled := ctx.Done()
	for {
		p, used, done, err := state.admitNext()
		if err != nil {
			return err
		}
		if p != nil {
			c.onAdmitted(p, used)
			continue
		}
		if done {
			return nil
		}
		select {
		case <-state.wake:
		case <-ticker.C:
		case <-cancelled:
			cancelled = nil
		}
	}
}
