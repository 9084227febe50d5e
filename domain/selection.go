package domain

import "fmt"

// PolicyKind represents one entry of the selection menu
type PolicyKind int

const (
	PolicyExit PolicyKind = iota
	PolicyFCFS
	PolicyRoundRobin
	PolicyPriority
)

var policyNames = map[PolicyKind]string{
	PolicyExit:       "Exit",
	PolicyFCFS:       "FCFS",
	PolicyRoundRobin: "Round Robin",
	PolicyPriority:   "Priority",
}

func (k PolicyKind) String() string {
	if name, ok := policyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PolicyKind(%d)", int(k))
}

// MarshalText encodes the policy by name
func (k PolicyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Selection represents a policy choice; Quantum only matters for Round Robin
type Selection struct {
	Policy  PolicyKind
	Quantum int
}

// Key returns the cache key of a selection
func (s Selection) Key() string {
	if s.Policy == PolicyRoundRobin {
		return fmt.Sprintf("%d:%d", s.Policy, s.Quantum)
	}
	return fmt.Sprintf("%d", s.Policy)
}
