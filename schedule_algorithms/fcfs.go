package schedule_algorithms

import (
	"cpusched/domain"

	"go.uber.org/zap"
)

// FCFS dispatches processes strictly in admission order
type FCFS struct {
	dispatcher
}

// NewFCFS returns a First-Come-First-Served policy
func NewFCFS(sink domain.EventSink, logger *zap.Logger) *FCFS {
	return &FCFS{dispatcher: newDispatcher(sink, logger)}
}

// Name returns the policy label used in reports
func (f *FCFS) Name() string { return domain.PolicyFCFS.String() }

// Run executes every process to completion in the order given
func (f *FCFS) Run(processes []*domain.ProcessRecord) (*domain.ScheduleResult, error) {
	result, err := f.runToCompletion(f.Name(), processes, nil)
	if err != nil {
		return nil, err
	}
	result.Processes = metricsOf(processes)
	f.logger.Info("FCFS ALGORITHM SCHEDULED ALL PROCESSES", zap.Int("processes", len(processes)))
	return result, nil
}
