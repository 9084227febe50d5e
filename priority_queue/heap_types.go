package priority_queue

import "cpusched/domain"

// Item is something we manage in a priority queue.
type Item struct {
	Process *domain.ProcessRecord
	// Seq is the insertion position, used to keep equal priorities stable
	Seq   int
	Index int
}

// Ordering decides which of two priorities is dispatched first
type Ordering func(a, b int) bool

// HigherFirst dispatches the larger priority value first
func HigherFirst(a, b int) bool { return a > b }

// LowerFirst dispatches the smaller priority value first
func LowerFirst(a, b int) bool { return a < b }

// OrderingFor maps the configured priority order to an Ordering
func OrderingFor(order string) Ordering {
	if order == domain.PriorityLowerFirst {
		return LowerFirst
	}
	return HigherFirst
}
