package model

import "fmt"

// AccountStatus is the lifecycle state of an admin account.
type AccountStatus string

const (
	StatusActive      AccountStatus = "active"
	StatusSuspended   AccountStatus = "suspended"
	StatusDeactivated AccountStatus = "deactivated"
)

// allowedTransitions lists the source states each target state may be reached from.
// Deletion removes the record and is not modelled as a state.
var allowedTransitions = map[AccountStatus][]AccountStatus{
	StatusSuspended:   {StatusActive},
	StatusActive:      {StatusSuspended, StatusDeactivated},
	StatusDeactivated: {StatusActive, StatusSuspended},
}

// IsValid reports whether s is a known status.
func (s AccountStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s -> to.
func (s AccountStatus) CanTransitionTo(to AccountStatus) bool {
	for _, from := range allowedTransitions[to] {
		if from == s {
			return true
		}
	}
	return false
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From AccountStatus
	To   AccountStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition account from %s to %s", e.From, e.To)
}

// Transition validates s -> to and returns the new state.
func (s AccountStatus) Transition(to AccountStatus) (AccountStatus, error) {
	if !s.CanTransitionTo(to) {
		return s, &TransitionError{From: s, To: to}
	}
	return to, nil
}
