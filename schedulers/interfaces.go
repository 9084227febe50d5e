package schedulers

import (
	"context"

	"cpusched/domain"
)

// JobSource yields raw job descriptors in arrival order.
// Stream sends to lines until the source is exhausted or ctx is done; it never closes lines.
// A Stream blocked in a read that ignores ctx is abandoned by Ingest when ctx expires and
// keeps its goroutine until the read returns.
type JobSource interface {
	Name() string
	Stream(ctx context.Context, lines chan<- domain.JobDescriptor) error
}

// Reporter renders admission and scheduling outcomes
type Reporter interface {
	ReportAdmission(result *domain.AdmissionResult)
	ReportSchedule(report *domain.ScheduleReport)
	ReportError(err error)
}

type nopReporter struct{}

func (nopReporter) ReportAdmission(*domain.AdmissionResult) {}
func (nopReporter) ReportSchedule(*domain.ScheduleReport)   {}
func (nopReporter) ReportError(error)                       {}
