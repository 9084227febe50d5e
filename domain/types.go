package domain

// JobDescriptor represents a raw job line as yielded by a job source
type JobDescriptor struct {
	Line int    `json:"line"`
	Raw  string `json:"raw"`
}

// DispatchEvent represents one slice of CPU time on the timeline
type DispatchEvent struct {
	PID   int `json:"pid"`
	Start int `json:"start"`
	End   int `json:"end"`
	Slice int `json:"slice"`
}

// ProcessMetrics represents the per process outcome of a policy run
type ProcessMetrics struct {
	PID            int `json:"pid"`
	BurstTime      int `json:"burst_time"`
	Priority       int `json:"priority"`
	StartTime      int `json:"start_time"`
	EndTime        int `json:"end_time"`
	WaitingTime    int `json:"waiting_time"`
	TurnaroundTime int `json:"turnaround_time"`
}

// StarvationWarning represents a process that waited longer than its priority tolerates
type StarvationWarning struct {
	PID         int `json:"pid"`
	Priority    int `json:"priority"`
	WaitingTime int `json:"waiting_time"`
	Threshold   int `json:"threshold"`
}

// Statistics represents aggregates over a policy run
type Statistics struct {
	AvgWaiting      float64 `json:"average_waiting_time"`
	AvgTurnaround   float64 `json:"average_turnaround_time"`
	TotalTime       int     `json:"total_time"`
	Throughput      float64 `json:"throughput"`
	ContextSwitches int     `json:"context_switches"`
}

// ScheduleResult represents the timeline and metrics produced by one policy
type ScheduleResult struct {
	Policy     string              `json:"policy"`
	Timeline   []DispatchEvent     `json:"timeline"`
	Processes  []ProcessMetrics    `json:"processes"`
	Starvation []StarvationWarning `json:"starvation,omitempty"`
}

// ScheduleReport represents everything handed to a reporter for one run
type ScheduleReport struct {
	RunID      string          `json:"run_id"`
	Policy     PolicyKind      `json:"policy"`
	Quantum    int             `json:"quantum,omitempty"`
	Result     *ScheduleResult `json:"result"`
	Statistics Statistics      `json:"statistics"`
	Cached     bool            `json:"cached"`
}

// AdmissionResult represents the outcome of an ingestion pass
type AdmissionResult struct {
	Admitted   []*ProcessRecord   `json:"admitted"`
	Pending    []*ProcessRecord   `json:"pending"`
	Rejected   []*ValidationError `json:"rejected"`
	UsedMemory int                `json:"used_memory"`
	Budget     int                `json:"budget"`
}

// AdmissionSummary represents counts about an ingestion pass
type AdmissionSummary struct {
	AdmittedCount int `json:"admitted_count"`
	PendingCount  int `json:"pending_count"`
	RejectedCount int `json:"rejected_count"`
	UsedMemory    int `json:"used_memory"`
	Budget        int `json:"budget"`
}

// Summary returns the counts of an admission result
func (r *AdmissionResult) Summary() AdmissionSummary {
	if r == nil {
		return AdmissionSummary{}
	}
	return AdmissionSummary{
		AdmittedCount: len(r.Admitted),
		PendingCount:  len(r.Pending),
		RejectedCount: len(r.Rejected),
		UsedMemory:    r.UsedMemory,
		Budget:        r.Budget,
	}
}

// ErrorResponse represents error info
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}
