package schedule_algorithms

import "cpusched/domain"

// Aggregate averages waiting and turnaround times; an empty list yields zero values
func Aggregate(metrics []domain.ProcessMetrics) domain.Statistics {
	stats := domain.Statistics{}
	if len(metrics) == 0 {
		return stats
	}
	var waiting, turnaround float64
	for _, m := range metrics {
		waiting += float64(m.WaitingTime)
		turnaround += float64(m.TurnaroundTime)
		stats.TotalTime = max(stats.TotalTime, m.EndTime)
	}
	n := float64(len(metrics))
	stats.AvgWaiting = waiting / n
	stats.AvgTurnaround = turnaround / n
	if stats.TotalTime > 0 {
		stats.Throughput = n / float64(stats.TotalTime)
	}
	return stats
}

// Summarize aggregates a result and counts switches between timeline slices
func Summarize(result *domain.ScheduleResult) domain.Statistics {
	if result == nil {
		return domain.Statistics{}
	}
	stats := Aggregate(result.Processes)
	stats.ContextSwitches = max(len(result.Timeline)-1, 0)
	return stats
}
