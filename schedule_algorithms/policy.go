package schedule_algorithms

import (
	"fmt"

	"cpusched/domain"

	"go.uber.org/zap"
)

// Policy runs a scheduling algorithm over processes it exclusively owns
type Policy interface {
	Name() string
	Run(processes []*domain.ProcessRecord) (*domain.ScheduleResult, error)
}

// New returns the policy for a selection
func New(selection domain.Selection, cfg domain.SchedulerConfig, sink domain.EventSink, logger *zap.Logger) (Policy, error) {
	switch selection.Policy {
	case domain.PolicyFCFS:
		return NewFCFS(sink, logger), nil
	case domain.PolicyRoundRobin:
		quantum := selection.Quantum
		if quantum == 0 {
			quantum = cfg.Quantum
		}
		return NewRoundRobin(quantum, sink, logger)
	case domain.PolicyPriority:
		return NewPriority(cfg, sink, logger), nil
	}
	return nil, &domain.SelectionError{Input: selection.Policy.String()}
}

// dispatcher carries the event plumbing shared by all policies
type dispatcher struct {
	sink   domain.EventSink
	logger *zap.Logger
}

func newDispatcher(sink domain.EventSink, logger *zap.Logger) dispatcher {
	if sink == nil {
		sink = domain.NopSink
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return dispatcher{sink: sink, logger: logger}
}

func (d dispatcher) setState(p *domain.ProcessRecord, to domain.ProcessState, clock int) error {
	if err := p.Transition(to); err != nil {
		return err
	}
	d.sink.Emit(domain.Event{Kind: domain.EventSetState, PID: p.ID, State: to, Clock: clock})
	return nil
}

func (d dispatcher) terminate(p *domain.ProcessRecord, clock int) error {
	if err := d.setState(p, domain.StateTerminated, clock); err != nil {
		return err
	}
	d.sink.Emit(domain.Event{Kind: domain.EventTerminate, PID: p.ID, State: p.State, Clock: clock})
	d.sink.Emit(domain.Event{Kind: domain.EventDeallocate, PID: p.ID, State: p.State, Memory: p.MemoryRequired, Clock: clock})
	return nil
}

// runToCompletion dispatches processes in the given order without preemption.
// onDone is called once a process has its metrics set.
func (d dispatcher) runToCompletion(name string, order []*domain.ProcessRecord, onDone func(p *domain.ProcessRecord, clock int)) (*domain.ScheduleResult, error) {
	result := &domain.ScheduleResult{
		Policy:   name,
		Timeline: make([]domain.DispatchEvent, 0, len(order)),
	}
	clock := 0
	for _, p := range order {
		if err := d.setState(p, domain.StateRunning, clock); err != nil {
			return nil, fmt.Errorf("%s dispatch: %w", name, err)
		}
		p.StartTime = clock
		run, err := p.Execute(p.RemainingTime)
		if err != nil {
			return nil, fmt.Errorf("%s dispatch: %w", name, err)
		}
		clock += run
		p.EndTime = clock
		p.WaitingTime = p.StartTime
		p.TurnaroundTime = p.EndTime
		result.Timeline = append(result.Timeline, domain.DispatchEvent{PID: p.ID, Start: p.StartTime, End: clock, Slice: run})
		if onDone != nil {
			onDone(p, clock)
		}
		if err = d.terminate(p, clock); err != nil {
			return nil, fmt.Errorf("%s dispatch: %w", name, err)
		}
	}
	return result, nil
}

func metricsOf(processes []*domain.ProcessRecord) []domain.ProcessMetrics {
	metrics := make([]domain.ProcessMetrics, 0, len(processes))
	for _, p := range processes {
		metrics = append(metrics, p.Metrics())
	}
	return metrics
}
