package model

// CompanyState tracks a single company's progress through the collection
// pipeline. FAILED is terminal and reachable from any non-terminal state.
type CompanyState string

const (
	StatePending          CompanyState = "pending"
	StatePrimaryFetched   CompanyState = "primary_fetched"
	StateSecondaryAttempt CompanyState = "secondary_attempted"
	StateReconciled       CompanyState = "reconciled"
	StateStored           CompanyState = "stored"
	StateFailed           CompanyState = "failed"
)

// next maps each state to its single forward successor.
var next = map[CompanyState]CompanyState{
	StatePending:          StatePrimaryFetched,
	StatePrimaryFetched:   StateSecondaryAttempt,
	StateSecondaryAttempt: StateReconciled,
	StateReconciled:       StateStored,
}

// CanTransition reports whether moving from s to to is a legal transition.
func (s CompanyState) CanTransition(to CompanyState) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[s] == to
}

// Terminal reports whether s is an end state.
func (s CompanyState) Terminal() bool {
	return s == StateStored || s == StateFailed
}
