package domain

import "fmt"

// ProcessState represents a step of the process lifecycle
type ProcessState int

const (
	StateNew ProcessState = iota
	StateReady
	StateRunning
	StateTerminated
)

var stateNames = map[ProcessState]string{
	StateNew:        "NEW",
	StateReady:      "READY",
	StateRunning:    "RUNNING",
	StateTerminated: "TERMINATED",
}

// String returns the upper case state name
func (s ProcessState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ProcessState(%d)", int(s))
}

// MarshalText encodes the state by name
func (s ProcessState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *ProcessState) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown process state %q", string(text))
}

// allowedTransitions lists every legal edge of the lifecycle
var allowedTransitions = map[ProcessState][]ProcessState{
	StateNew:     {StateReady},
	StateReady:   {StateRunning},
	StateRunning: {StateReady, StateTerminated},
}

// ProcessRecord represents one job through its lifecycle
type ProcessRecord struct {
	ID             int          `json:"id"`
	BurstTime      int          `json:"burst_time"`
	RemainingTime  int          `json:"remaining_time"`
	Priority       int          `json:"priority"`
	MemoryRequired int          `json:"memory_required"`
	WaitingTime    int          `json:"waiting_time"`
	TurnaroundTime int          `json:"turnaround_time"`
	StartTime      int          `json:"start_time"`
	EndTime        int          `json:"end_time"`
	State          ProcessState `json:"state"`
	// Seq is the arrival position assigned on ingestion; it breaks ties between equal keys.
	Seq int `json:"seq"`
}

// NewProcessRecord returns a record in the NEW state
func NewProcessRecord(id, burstTime, priority, memoryRequired int) *ProcessRecord {
	return &ProcessRecord{
		ID:             id,
		BurstTime:      burstTime,
		RemainingTime:  burstTime,
		Priority:       priority,
		MemoryRequired: memoryRequired,
		StartTime:      -1,
		EndTime:        -1,
		State:          StateNew,
	}
}

// Transition moves the record to the given state or rejects the edge
func (p *ProcessRecord) Transition(to ProcessState) error {
	legal := false
	for _, next := range allowedTransitions[p.State] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal || (to == StateTerminated && p.RemainingTime != 0) {
		return &TransitionError{PID: p.ID, From: p.State, To: to}
	}
	p.State = to
	return nil
}

// Execute runs the process for at most slice time units and returns the units consumed
func (p *ProcessRecord) Execute(slice int) (int, error) {
	if p.State != StateRunning {
		return 0, fmt.Errorf("process P%d cannot execute in state %s: %w", p.ID, p.State, ErrIllegalTransition)
	}
	if slice < 0 {
		slice = 0
	}
	run := min(slice, p.RemainingTime)
	p.RemainingTime -= run
	return run, nil
}

// Clone returns an independent admitted copy; only identity fields survive
func (p ProcessRecord) Clone() *ProcessRecord {
	clone := NewProcessRecord(p.ID, p.BurstTime, p.Priority, p.MemoryRequired)
	clone.Seq = p.Seq
	clone.State = StateReady
	return clone
}

// Metrics returns the per process result of a run
func (p ProcessRecord) Metrics() ProcessMetrics {
	return ProcessMetrics{
		PID:            p.ID,
		BurstTime:      p.BurstTime,
		Priority:       p.Priority,
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		WaitingTime:    p.WaitingTime,
		TurnaroundTime: p.TurnaroundTime,
	}
}

func (p ProcessRecord) String() string {
	return fmt.Sprintf("P%d(burst=%d, priority=%d, memory=%d, state=%s)",
		p.ID, p.BurstTime, p.Priority, p.MemoryRequired, p.State)
}
