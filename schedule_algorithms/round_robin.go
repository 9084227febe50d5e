package schedule_algorithms

import (
	"fmt"

	"cpusched/domain"

	"go.uber.org/zap"
)

// DefaultQuantum is the reference time slice
const DefaultQuantum = 7

// RoundRobin preempts the running process after each quantum and requeues it at the tail
type RoundRobin struct {
	dispatcher
	quantum int
}

// NewRoundRobin returns a Round-Robin policy, rejecting a quantum below 1
func NewRoundRobin(quantum int, sink domain.EventSink, logger *zap.Logger) (*RoundRobin, error) {
	if quantum < 1 {
		return nil, fmt.Errorf("round robin quantum must be >= 1, got %d", quantum)
	}
	return &RoundRobin{dispatcher: newDispatcher(sink, logger), quantum: quantum}, nil
}

// Name returns the policy label used in reports
func (r *RoundRobin) Name() string { return domain.PolicyRoundRobin.String() }

// Quantum returns the time slice
func (r *RoundRobin) Quantum() int { return r.quantum }

// Run cycles through a FIFO ready queue seeded in admission order until every process terminates
func (r *RoundRobin) Run(processes []*domain.ProcessRecord) (*domain.ScheduleResult, error) {
	result := &domain.ScheduleResult{
		Policy:   r.Name(),
		Timeline: make([]domain.DispatchEvent, 0, len(processes)),
	}
	queue := make([]*domain.ProcessRecord, len(processes))
	copy(queue, processes)

	clock := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if err := r.setState(p, domain.StateRunning, clock); err != nil {
			return nil, fmt.Errorf("round robin dispatch: %w", err)
		}
		if p.StartTime == -1 {
			p.StartTime = clock
		}
		run, err := p.Execute(r.quantum)
		if err != nil {
			return nil, fmt.Errorf("round robin dispatch: %w", err)
		}
		start := clock
		clock += run
		result.Timeline = append(result.Timeline, domain.DispatchEvent{PID: p.ID, Start: start, End: clock, Slice: run})

		if p.RemainingTime > 0 {
			if err = r.setState(p, domain.StateReady, clock); err != nil {
				return nil, fmt.Errorf("round robin preempt: %w", err)
			}
			queue = append(queue, p)
			continue
		}
		p.EndTime = clock
		p.TurnaroundTime = p.EndTime
		p.WaitingTime = p.TurnaroundTime - p.BurstTime
		if err = r.terminate(p, clock); err != nil {
			return nil, fmt.Errorf("round robin terminate: %w", err)
		}
	}
	result.Processes = metricsOf(processes)
	r.logger.Info("ROUND ROBIN ALGORITHM SCHEDULED ALL PROCESSES",
		zap.Int("quantum", r.quantum), zap.Int("slices", len(result.Timeline)))
	return result, nil
}
