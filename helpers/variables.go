package helpers

import "cpusched/domain"

var (
	// SelectionAliases maps accepted menu inputs to policies
	SelectionAliases = map[string]domain.PolicyKind{
		"0":           domain.PolicyExit,
		"exit":        domain.PolicyExit,
		"quit":        domain.PolicyExit,
		"1":           domain.PolicyFCFS,
		"fcfs":        domain.PolicyFCFS,
		"2":           domain.PolicyRoundRobin,
		"rr":          domain.PolicyRoundRobin,
		"round_robin": domain.PolicyRoundRobin,
		"roundrobin":  domain.PolicyRoundRobin,
		"3":           domain.PolicyPriority,
		"priority":    domain.PolicyPriority,
	}
	// QuantumSelections are the inputs that may carry a ":<quantum>" suffix
	QuantumSelections = []string{"2", "rr", "round_robin", "roundrobin"}
	// DescriptorSeparators split the four fields of a job line
	DescriptorSeparators = ":;"
	// QuantumSeparator splits a menu choice from its quantum, as in "rr:4"
	QuantumSeparator = ":"
	// CommentPrefix marks job lines that are skipped
	CommentPrefix = "#"
	// MetricsName represents metrics that are unregistered when closing app
	MetricsName = []string{"admission.admitted", "admission.rejected", "admission.pending",
		"admission.memory_used", "schedule.runs", "schedule.cache_hits", "schedule.starvation",
		"schedule.fcfs.latency", "schedule.round_robin.latency", "schedule.priority.latency",
		"events.create", "events.allocate", "events.set_state", "events.terminate", "events.deallocate",
		"events.starvation"}
)
