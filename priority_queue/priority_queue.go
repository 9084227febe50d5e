package priority_queue

import (
	"container/heap"

	"cpusched/domain"
)

// A PriorityQueue implements heap.Interface and holds Items.
type PriorityQueue struct {
	items   []*Item
	ordered Ordering
	nextSeq int
}

// New returns an empty queue dispatching by the given ordering
func New(ordered Ordering) *PriorityQueue {
	if ordered == nil {
		ordered = HigherFirst
	}
	return &PriorityQueue{ordered: ordered}
}

// Len returns length of priorityQueue
func (pq PriorityQueue) Len() int { return len(pq.items) }

// Less is the function used for priority queue order
func (pq PriorityQueue) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.Process.Priority != b.Process.Priority {
		return pq.ordered(a.Process.Priority, b.Process.Priority)
	}
	// equal priorities keep insertion order
	return a.Seq < b.Seq
}

// Swap swaps 2 elements
func (pq PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].Index = i
	pq.items[j].Index = j
}

// Push adds item in queue
func (pq *PriorityQueue) Push(x any) {
	n := len(pq.items)
	item := x.(*Item)
	item.Index = n
	pq.items = append(pq.items, item)
}

// Pop returns first item in queue and removes it
func (pq *PriorityQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.Index = -1 // for safety
	pq.items = old[0 : n-1]
	return item
}

// Enqueue adds a process keeping heap order
func (pq *PriorityQueue) Enqueue(process *domain.ProcessRecord) {
	heap.Push(pq, &Item{Process: process, Seq: pq.nextSeq})
	pq.nextSeq++
}

// Dequeue removes the next process to dispatch, nil when empty
func (pq *PriorityQueue) Dequeue() *domain.ProcessRecord {
	if pq.Len() == 0 {
		return nil
	}
	return heap.Pop(pq).(*Item).Process
}

// CreatePQ builds a queue from processes in admission order
func CreatePQ(processes []*domain.ProcessRecord, ordered Ordering) *PriorityQueue {
	pq := New(ordered)
	pq.items = make([]*Item, 0, len(processes))
	for i, process := range processes {
		pq.items = append(pq.items, &Item{Process: process, Seq: i, Index: i})
	}
	pq.nextSeq = len(processes)
	heap.Init(pq)
	return pq
}
