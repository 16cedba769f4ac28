package offer

import "fmt"

// OfferStatus represents the current state of a route offer in its lifecycle.
type OfferStatus string

const (
	StatusPending   OfferStatus = "pending"
	StatusActive    OfferStatus = "active"
	StatusFull      OfferStatus = "full"
	StatusCompleted OfferStatus = "completed"
	StatusCancelled OfferStatus = "cancelled"
)

// validTransitions defines the state machine for offer status transitions.
var validTransitions = map[OfferStatus][]OfferStatus{
	StatusPending:   {StatusActive, StatusCancelled},
	StatusActive:    {StatusFull, StatusCompleted, StatusCancelled},
	StatusFull:      {StatusActive, StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// SearchableStatuses are the statuses eligible for passenger search.
var SearchableStatuses = []OfferStatus{StatusActive, StatusPending}

// IsValid returns true if the status is a recognized offer status.
func (s OfferStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s OfferStatus) CanTransitionTo(target OfferStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s OfferStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s OfferStatus) String() string {
	return string(s)
}

// ParseOfferStatus converts a string to an OfferStatus, returning an error if invalid.
func ParseOfferStatus(s string) (OfferStatus, error) {
	status := OfferStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid offer status: %s", s)
	}
	return status, nil
}
