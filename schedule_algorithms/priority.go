package schedule_algorithms

import (
	"cpusched/domain"
	"cpusched/priority_queue"

	"go.uber.org/zap"
)

// Priority dispatches by priority without preemption and flags starving processes
type Priority struct {
	dispatcher
	ordering        priority_queue.Ordering
	lowerFirst      bool
	minPriority     int
	maxPriority     int
	starvationBase  int
	starvationScale int
}

// NewPriority returns a Priority policy configured by cfg
func NewPriority(cfg domain.SchedulerConfig, sink domain.EventSink, logger *zap.Logger) *Priority {
	return &Priority{
		dispatcher:      newDispatcher(sink, logger),
		ordering:        priority_queue.OrderingFor(cfg.PriorityOrder),
		lowerFirst:      cfg.PriorityOrder == domain.PriorityLowerFirst,
		minPriority:     cfg.MinPriority,
		maxPriority:     cfg.MaxPriority,
		starvationBase:  cfg.StarvationBase,
		starvationScale: cfg.StarvationScale,
	}
}

// Name returns the policy label used in reports
func (p *Priority) Name() string { return domain.PolicyPriority.String() }

// StarvationThreshold returns the longest wait tolerated for a priority.
// Urgent processes tolerate less waiting than low priority ones.
func (p *Priority) StarvationThreshold(priority int) int {
	rank := priority
	if p.lowerFirst {
		rank = p.minPriority + p.maxPriority - priority
	}
	return (p.starvationBase - rank) * p.starvationScale
}

// Run dispatches in priority order, equal priorities in admission order
func (p *Priority) Run(processes []*domain.ProcessRecord) (*domain.ScheduleResult, error) {
	pq := priority_queue.CreatePQ(processes, p.ordering)
	order := make([]*domain.ProcessRecord, 0, len(processes))
	for next := pq.Dequeue(); next != nil; next = pq.Dequeue() {
		order = append(order, next)
	}

	var warnings []domain.StarvationWarning
	result, err := p.runToCompletion(p.Name(), order, func(process *domain.ProcessRecord, clock int) {
		threshold := p.StarvationThreshold(process.Priority)
		if process.WaitingTime <= threshold {
			return
		}
		warnings = append(warnings, domain.StarvationWarning{
			PID:         process.ID,
			Priority:    process.Priority,
			WaitingTime: process.WaitingTime,
			Threshold:   threshold,
		})
		p.sink.Emit(domain.Event{Kind: domain.EventStarvation, PID: process.ID, State: process.State, Clock: clock})
	})
	if err != nil {
		return nil, err
	}
	result.Processes = metricsOf(processes)
	result.Starvation = warnings
	p.logger.Info("PRIORITY ALGORITHM SCHEDULED ALL PROCESSES",
		zap.Int("processes", len(processes)), zap.Int("starving", len(warnings)))
	return result, nil
}
