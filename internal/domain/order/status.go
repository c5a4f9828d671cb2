package order

import "fmt"

// Status is one of the eight ordered stages an order passes through from
// placement to delivery. Transitions only move forward; Delivered is
// terminal.
type Status string

const (
	StatusPlaced         Status = "Order Placed"
	StatusPickedUp       Status = "Picked Up"
	StatusProcessing     Status = "Processing"
	StatusWashing        Status = "Washing"
	StatusIroning        Status = "Ironing"
	StatusReady          Status = "Ready"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusDelivered      Status = "Delivered"
)

// statusSequence lists all statuses in lifecycle order.
var statusSequence = []Status{
	StatusPlaced,
	StatusPickedUp,
	StatusProcessing,
	StatusWashing,
	StatusIroning,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
}

var statusIndex = func() map[Status]int {
	m := make(map[Status]int, len(statusSequence))
	for i, s := range statusSequence {
		m[s] = i
	}
	return m
}()

// ParseStatus maps a string to a known Status.
func ParseStatus(s string) (Status, bool) {
	_, ok := statusIndex[Status(s)]
	return Status(s), ok
}

// Index returns the position of the status in the lifecycle sequence,
// or -1 for an unknown status.
func (s Status) Index() int {
	i, ok := statusIndex[s]
	if !ok {
		return -1
	}
	return i
}

// IsValid reports whether s is a known lifecycle status.
func (s Status) IsValid() bool {
	_, ok := statusIndex[s]
	return ok
}

// IsTerminal reports whether no transition leaves this status.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered
}

// InvalidTransitionError indicates a status move that the lifecycle does
// not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.From, e.To)
}

// TransitionPolicy decides which forward moves an administrator may make.
//
// Observed behavior lets admins jump ahead (for example straight from
// "Order Placed" to "Ready"); PolicyForward keeps that. PolicyStrict
// restricts moves to the immediate next stage for deployments that want
// every stage accounted for.
type TransitionPolicy string

const (
	PolicyForward TransitionPolicy = "forward"
	PolicyStrict  TransitionPolicy = "strict"
)

// Allows reports whether the policy permits moving from one status to
// another. Backward moves, self moves, and moves out of a terminal status
// are never allowed.
func (p TransitionPolicy) Allows(from, to Status) bool {
	fi, ti := from.Index(), to.Index()
	if fi < 0 || ti < 0 || from.IsTerminal() {
		return false
	}
	if p == PolicyStrict {
		return ti == fi+1
	}
	return ti > fi
}
