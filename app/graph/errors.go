package graph

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why an edge was rejected or a snapshot is unusable.
type ErrorKind string

const (
	// InvalidIdentifier means an id was missing, non-numeric or not positive.
	InvalidIdentifier ErrorKind = "InvalidIdentifier"
	// SelfDependency means the parent and child of an edge are the same task.
	SelfDependency ErrorKind = "SelfDependency"
	// TaskNotFound means an edge endpoint does not exist.
	TaskNotFound ErrorKind = "TaskNotFound"
	// CycleDetected means the edge would close a cycle.
	CycleDetected ErrorKind = "CycleDetected"
	// IntegrityViolation means the stored graph is already broken: a cycle or
	// a dangling edge. It signals corruption upstream, not bad user input.
	IntegrityViolation ErrorKind = "IntegrityViolation"
)

// EdgeError is returned when a proposed dependency is rejected.
type EdgeError struct {
	Kind     ErrorKind
	ParentID int64
	ChildID  int64
	// MissingID is set for TaskNotFound.
	MissingID int64
	// Raw is the unparsable input for InvalidIdentifier.
	Raw string
}

func (e *EdgeError) Error() string {
	switch e.Kind {
	case InvalidIdentifier:
		if e.Raw != "" {
			return fmt.Sprintf("invalid task id %q", e.Raw)
		}
		return "invalid task id"
	case SelfDependency:
		return fmt.Sprintf("task %d cannot depend on itself", e.ChildID)
	case TaskNotFound:
		return fmt.Sprintf("task %d not found", e.MissingID)
	case CycleDetected:
		return fmt.Sprintf("dependency %d -> %d would create a cycle", e.ParentID, e.ChildID)
	default:
		return fmt.Sprintf("dependency %d -> %d rejected: %s", e.ParentID, e.ChildID, e.Kind)
	}
}

// IntegrityError reports a snapshot that violates the DAG invariant.
type IntegrityError struct {
	// Sorted and Total are set when a topological sort could not consume
	// every task.
	Sorted, Total int
	// Detail describes other violations, such as a dangling edge.
	Detail string
}

func (e *IntegrityError) Error() string {
	if e.Detail != "" {
		return "graph integrity violation: " + e.Detail
	}
	return fmt.Sprintf("graph integrity violation: topological sort failed, graph has a cycle (%d of %d tasks sorted)", e.Sorted, e.Total)
}

// KindOf returns the ErrorKind carried by err, looking through wrapping. It
// returns "" for errors that did not originate here.
func KindOf(err error) ErrorKind {
	var edgeErr *EdgeError
	if errors.As(err, &edgeErr) {
		return edgeErr.Kind
	}
	var integrityErr *IntegrityError
	if errors.As(err, &integrityErr) {
		return IntegrityViolation
	}
	return ""
}
