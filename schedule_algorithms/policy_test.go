package schedule_algorithms

import (
	"errors"
	"testing"

	"cpusched/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// job is id, burst, priority, memory
type job [4]int

func admitted(jobs ...job) []*domain.ProcessRecord {
	out := make([]*domain.ProcessRecord, 0, len(jobs))
	for i, j := range jobs {
		p := domain.NewProcessRecord(j[0], j[1], j[2], j[3])
		p.Seq = i
		out = append(out, p.Clone())
	}
	return out
}

type recordingSink struct {
	events []domain.Event
}

func (r *recordingSink) Emit(event domain.Event) { r.events = append(r.events, event) }

func (r *recordingSink) count(kind domain.EventKind) map[int]int {
	counts := map[int]int{}
	for _, e := range r.events {
		if e.Kind == kind {
			counts[e.PID]++
		}
	}
	return counts
}

func TestFCFSScenario(t *testing.T) {
	sink := &recordingSink{}
	processes := admitted(job{1, 5, 3, 100}, job{2, 3, 5, 100})
	result, err := NewFCFS(sink, zaptest.NewLogger(t)).Run(processes)
	require.NoError(t, err)

	assert.Equal(t, []domain.DispatchEvent{
		{PID: 1, Start: 0, End: 5, Slice: 5},
		{PID: 2, Start: 5, End: 8, Slice: 3},
	}, result.Timeline)
	assert.Equal(t, 0, processes[0].StartTime)
	assert.Equal(t, 5, processes[0].EndTime)
	assert.Equal(t, 5, processes[1].StartTime)
	assert.Equal(t, 8, processes[1].EndTime)

	stats := Summarize(result)
	assert.InDelta(t, 2.5, stats.AvgWaiting, 1e-9)
	assert.InDelta(t, 6.5, stats.AvgTurnaround, 1e-9)
	assert.Equal(t, 8, stats.TotalTime)
	assert.Equal(t, 1, stats.ContextSwitches)

	for _, p := range processes {
		assert.Equal(t, domain.StateTerminated, p.State)
		assert.Equal(t, p.StartTime, p.WaitingTime)
		assert.Equal(t, p.EndTime, p.TurnaroundTime)
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1}, sink.count(domain.EventTerminate))
	assert.Equal(t, map[int]int{1: 1, 2: 1}, sink.count(domain.EventDeallocate))
}

func TestNonPreemptivePolicies(t *testing.T) {
	jobs := []job{{1, 4, 2, 10}, {2, 9, 7, 10}, {3, 1, 7, 10}, {4, 6, 1, 10}}
	policies := []Policy{
		NewFCFS(nil, zaptest.NewLogger(t)),
		NewPriority(domain.DefaultConfig().SchedulerConfig, nil, zaptest.NewLogger(t)),
	}
	for _, policy := range policies {
		processes := admitted(jobs...)
		result, err := policy.Run(processes)
		require.NoError(t, err, policy.Name())
		require.Len(t, result.Timeline, len(jobs), policy.Name())
		for _, p := range processes {
			assert.Equal(t, p.BurstTime, p.EndTime-p.StartTime, "%s P%d", policy.Name(), p.ID)
			assert.Equal(t, 0, p.RemainingTime)
		}
	}
}

func TestRoundRobinSingleProcessSlices(t *testing.T) {
	rr, err := NewRoundRobin(2, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	processes := admitted(job{1, 5, 3, 100})

	result, err := rr.Run(processes)
	require.NoError(t, err)

	slices := make([]int, 0, len(result.Timeline))
	for _, e := range result.Timeline {
		slices = append(slices, e.Slice)
	}
	assert.Equal(t, []int{2, 2, 1}, slices)
	assert.Equal(t, 5, processes[0].EndTime)
	assert.Equal(t, 0, processes[0].WaitingTime)
	assert.Equal(t, 0, processes[0].StartTime)
}

func TestRoundRobinConservesWork(t *testing.T) {
	sink := &recordingSink{}
	rr, err := NewRoundRobin(DefaultQuantum, sink, zaptest.NewLogger(t))
	require.NoError(t, err)
	processes := admitted(job{1, 20, 3, 10}, job{2, 3, 5, 10}, job{3, 7, 1, 10}, job{4, 15, 8, 10})

	result, err := rr.Run(processes)
	require.NoError(t, err)

	allocated := map[int]int{}
	for _, e := range result.Timeline {
		assert.LessOrEqual(t, e.Slice, DefaultQuantum)
		assert.Equal(t, e.Start+e.Slice, e.End)
		allocated[e.PID] += e.Slice
	}
	for _, p := range processes {
		assert.Equal(t, p.BurstTime, allocated[p.ID], "P%d", p.ID)
		assert.Equal(t, p.TurnaroundTime-p.BurstTime, p.WaitingTime, "P%d", p.ID)
		assert.Equal(t, domain.StateTerminated, p.State)
	}
	assert.Equal(t, 45, result.Timeline[len(result.Timeline)-1].End)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1}, sink.count(domain.EventTerminate))
}

func TestRoundRobinFIFOFairness(t *testing.T) {
	rr, err := NewRoundRobin(2, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	// priorities and memory differ but must not reorder equal bursts
	processes := admitted(job{9, 4, 1, 500}, job{3, 4, 8, 10}, job{5, 4, 4, 100})

	result, err := rr.Run(processes)
	require.NoError(t, err)

	order := make([]int, 0, len(result.Timeline))
	for _, e := range result.Timeline {
		order = append(order, e.PID)
	}
	assert.Equal(t, []int{9, 3, 5, 9, 3, 5}, order)
}

func TestRoundRobinRejectsQuantum(t *testing.T) {
	_, err := NewRoundRobin(0, nil, nil)
	assert.Error(t, err)
}

func TestPriorityStableOrder(t *testing.T) {
	policy := NewPriority(domain.DefaultConfig().SchedulerConfig, nil, zaptest.NewLogger(t))
	processes := admitted(job{1, 2, 3, 1}, job{2, 2, 8, 1}, job{3, 2, 3, 1}, job{4, 2, 8, 1}, job{5, 2, 1, 1})

	result, err := policy.Run(processes)
	require.NoError(t, err)

	order := make([]int, 0, len(result.Timeline))
	for _, e := range result.Timeline {
		order = append(order, e.PID)
	}
	assert.Equal(t, []int{2, 4, 1, 3, 5}, order)
}

func TestPriorityLowerFirst(t *testing.T) {
	cfg := domain.DefaultConfig().SchedulerConfig
	cfg.PriorityOrder = domain.PriorityLowerFirst
	policy := NewPriority(cfg, nil, zaptest.NewLogger(t))
	processes := admitted(job{1, 2, 3, 1}, job{2, 2, 8, 1}, job{3, 2, 1, 1})

	result, err := policy.Run(processes)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Timeline[0].PID)
	assert.Equal(t, 2, result.Timeline[2].PID)
	// priority 1 ranks like 8 when lower values come first
	assert.Equal(t, 20, policy.StarvationThreshold(1))
	assert.Equal(t, 90, policy.StarvationThreshold(8))
}

func TestPriorityStarvationFlags(t *testing.T) {
	sink := &recordingSink{}
	policy := NewPriority(domain.DefaultConfig().SchedulerConfig, sink, zaptest.NewLogger(t))
	// dispatch order P1 P2 P5 P3 P4
	// P1 (prio 8) waits 0, threshold 20; P2 (prio 8) waits 25 > 20;
	// P5 (prio 6) waits 45 > 40; P3 (prio 5) waits 50, threshold 50;
	// P4 (prio 1) waits 65, threshold 90
	processes := admitted(job{1, 25, 8, 1}, job{2, 20, 8, 1}, job{3, 15, 5, 1}, job{4, 1, 1, 1}, job{5, 5, 6, 1})

	result, err := policy.Run(processes)
	require.NoError(t, err)

	flagged := map[int]bool{}
	for _, w := range result.Starvation {
		flagged[w.PID] = true
		assert.Equal(t, policy.StarvationThreshold(w.Priority), w.Threshold)
		assert.Greater(t, w.WaitingTime, w.Threshold)
	}
	for _, p := range processes {
		expected := p.WaitingTime > (10-p.Priority)*10
		assert.Equal(t, expected, flagged[p.ID], "P%d waiting %d", p.ID, p.WaitingTime)
	}
	assert.Equal(t, map[int]bool{2: true, 5: true}, flagged)
	assert.Equal(t, map[int]int{2: 1, 5: 1}, sink.count(domain.EventStarvation))
}

func TestEmptyAdmittedSet(t *testing.T) {
	rr, err := NewRoundRobin(DefaultQuantum, nil, nil)
	require.NoError(t, err)
	for _, policy := range []Policy{NewFCFS(nil, nil), rr, NewPriority(domain.DefaultConfig().SchedulerConfig, nil, nil)} {
		result, err := policy.Run(nil)
		require.NoError(t, err, policy.Name())
		assert.Empty(t, result.Timeline)
		assert.Empty(t, result.Processes)
		assert.Equal(t, domain.Statistics{}, Summarize(result))
	}
}

func TestPolicyRejectsUnadmittedRecords(t *testing.T) {
	processes := []*domain.ProcessRecord{domain.NewProcessRecord(1, 3, 2, 10)}
	_, err := NewFCFS(nil, nil).Run(processes)
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition))
}

func TestNewPolicy(t *testing.T) {
	cfg := domain.DefaultConfig().SchedulerConfig
	policy, err := New(domain.Selection{Policy: domain.PolicyRoundRobin}, cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, policy.(*RoundRobin).Quantum())

	policy, err = New(domain.Selection{Policy: domain.PolicyPriority}, cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Priority", policy.Name())

	_, err = New(domain.Selection{Policy: domain.PolicyExit}, cfg, nil, nil)
	var selectionErr *domain.SelectionError
	assert.True(t, errors.As(err, &selectionErr))
}

func TestAggregate(t *testing.T) {
	assert.Equal(t, domain.Statistics{}, Aggregate(nil))

	single := []domain.ProcessMetrics{{PID: 1, BurstTime: 4, StartTime: 3, EndTime: 7, WaitingTime: 3, TurnaroundTime: 7}}
	stats := Aggregate(single)
	assert.Equal(t, 3.0, stats.AvgWaiting)
	assert.Equal(t, 7.0, stats.AvgTurnaround)
}
