package clients

import (
	"fmt"
	"io"
	"strings"

	"cpusched/domain"
	"cpusched/schedulers"

	"go.uber.org/zap"
)

// ConsoleReporter renders Gantt charts and averages as plain text
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter returns ConsoleReporter writing to w
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// GanttLine renders a timeline as "0 | P1 | 5 | P2 | 8"
func GanttLine(timeline []domain.DispatchEvent) string {
	var sb strings.Builder
	sb.WriteString("0")
	for _, e := range timeline {
		fmt.Fprintf(&sb, " | P%d | %d", e.PID, e.End)
	}
	return sb.String()
}

// Title returns the heading of a report, with the quantum for Round Robin
func Title(report *domain.ScheduleReport) string {
	if report.Policy == domain.PolicyRoundRobin {
		return fmt.Sprintf("%s (Quantum=%d)", report.Policy, report.Quantum)
	}
	return report.Policy.String()
}

func (c *ConsoleReporter) ReportAdmission(result *domain.AdmissionResult) {
	fmt.Fprintf(c.w, "Admitted %d process(es), %d pending, %d rejected; memory %d/%d\n",
		len(result.Admitted), len(result.Pending), len(result.Rejected), result.UsedMemory, result.Budget)
	for _, rejected := range result.Rejected {
		fmt.Fprintf(c.w, "Skipped: %v\n", rejected)
	}
	for _, p := range result.Pending {
		fmt.Fprintf(c.w, "Waiting for memory: P%d (memory=%d)\n", p.ID, p.MemoryRequired)
	}
}

func (c *ConsoleReporter) ReportSchedule(report *domain.ScheduleReport) {
	name := report.Policy.String()
	fmt.Fprintf(c.w, "\n%s Gantt Chart:\n", Title(report))
	fmt.Fprintln(c.w, GanttLine(report.Result.Timeline))
	for _, w := range report.Result.Starvation {
		fmt.Fprintf(c.w, "Starvation detected for P%d (priority %d, waited %d ms, threshold %d ms)\n",
			w.PID, w.Priority, w.WaitingTime, w.Threshold)
	}
	fmt.Fprintln(c.w)
	fmt.Fprintf(c.w, "%s - Average Waiting Time: %.2f ms\n", name, report.Statistics.AvgWaiting)
	fmt.Fprintf(c.w, "%s - Average Turnaround Time: %.2f ms\n", name, report.Statistics.AvgTurnaround)
}

func (c *ConsoleReporter) ReportError(err error) {
	fmt.Fprintf(c.w, "Error: %v\n", err)
}

// ZapReporter writes reports as structured log entries
type ZapReporter struct {
	logger *zap.Logger
}

// NewZapReporter returns ZapReporter
func NewZapReporter(logger *zap.Logger) *ZapReporter {
	return &ZapReporter{logger: logger}
}

func (z *ZapReporter) ReportAdmission(result *domain.AdmissionResult) {
	summary := result.Summary()
	z.logger.Info("admission",
		zap.Int("admitted", summary.AdmittedCount),
		zap.Int("pending", summary.PendingCount),
		zap.Int("rejected", summary.RejectedCount),
		zap.Int("used_memory", summary.UsedMemory),
		zap.Int("budget", summary.Budget))
}

func (z *ZapReporter) ReportSchedule(report *domain.ScheduleReport) {
	z.logger.Info("schedule",
		zap.String("run_id", report.RunID),
		zap.String("policy", Title(report)),
		zap.String("gantt", GanttLine(report.Result.Timeline)),
		zap.Float64("average_waiting_time", report.Statistics.AvgWaiting),
		zap.Float64("average_turnaround_time", report.Statistics.AvgTurnaround),
		zap.Int("total_time", report.Statistics.TotalTime),
		zap.Int("context_switches", report.Statistics.ContextSwitches),
		zap.Bool("cached", report.Cached))
	for _, w := range report.Result.Starvation {
		z.logger.Warn("starvation",
			zap.Int("pid", w.PID),
			zap.Int("priority", w.Priority),
			zap.Int("waiting_time", w.WaitingTime),
			zap.Int("threshold", w.Threshold))
	}
}

func (z *ZapReporter) ReportError(err error) {
	z.logger.Error("scheduling request failed", zap.Error(err))
}

// MultiReporter fans reports out to several reporters
type MultiReporter []schedulers.Reporter

func (m MultiReporter) ReportAdmission(result *domain.AdmissionResult) {
	for _, r := range m {
		r.ReportAdmission(result)
	}
}

func (m MultiReporter) ReportSchedule(report *domain.ScheduleReport) {
	for _, r := range m {
		r.ReportSchedule(report)
	}
}

func (m MultiReporter) ReportError(err error) {
	for _, r := range m {
		r.ReportError(err)
	}
}
