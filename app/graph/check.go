package graph

import (
	"strconv"
	"strings"

	"todo-dag/app/models"
)

// TaskLookup resolves a task id to the task, if it exists.
type TaskLookup interface {
	LookupTask(id int64) (models.Task, bool)
}

// TaskIndex is a TaskLookup backed by a map.
type TaskIndex map[int64]models.Task

// LookupTask implements TaskLookup.
func (idx TaskIndex) LookupTask(id int64) (models.Task, bool) {
	t, ok := idx[id]
	return t, ok
}

// NewTaskIndex indexes tasks by id.
func NewTaskIndex(tasks ...models.Task) TaskIndex {
	idx := make(TaskIndex, len(tasks))
	for _, t := range tasks {
		idx[t.ID] = t
	}
	return idx
}

// Decision is the outcome of CheckNewEdge.
type Decision struct {
	Accepted bool      `json:"accepted"`
	Reason   ErrorKind `json:"reason,omitempty"`

	parentID, childID, missingID int64
}

// Err returns nil for an accepted edge and an *EdgeError otherwise.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return &EdgeError{
		Kind:      d.Reason,
		ParentID:  d.parentID,
		ChildID:   d.childID,
		MissingID: d.missingID,
	}
}

func reject(kind ErrorKind, parentID, childID int64) Decision {
	return Decision{Reason: kind, parentID: parentID, childID: childID}
}

func validateIDs(parentID, childID int64) ErrorKind {
	if parentID <= 0 || childID <= 0 {
		return InvalidIdentifier
	}
	if parentID == childID {
		return SelfDependency
	}
	return ""
}

// ValidateEdge checks the ids of a proposed edge without looking at any
// graph. It returns an *EdgeError for InvalidIdentifier or SelfDependency.
func ValidateEdge(parentID, childID int64) error {
	if kind := validateIDs(parentID, childID); kind != "" {
		return reject(kind, parentID, childID).Err()
	}
	return nil
}

// CheckNewEdge decides whether parentID -> childID may be added to edges.
// Identifiers and self-loops are validated before any lookup or traversal.
func CheckNewEdge(lookup TaskLookup, edges []models.Dependency, parentID, childID int64) Decision {
	if kind := validateIDs(parentID, childID); kind != "" {
		return reject(kind, parentID, childID)
	}
	for _, id := range []int64{parentID, childID} {
		if _, ok := lookup.LookupTask(id); !ok {
			d := reject(TaskNotFound, parentID, childID)
			d.missingID = id
			return d
		}
	}
	if WouldCreateCycle(parentID, childID, edges) {
		return reject(CycleDetected, parentID, childID)
	}
	return Decision{Accepted: true, parentID: parentID, childID: childID}
}

// ParseID parses a task id received from a transport. Ids are positive
// integers.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &EdgeError{Kind: InvalidIdentifier, Raw: raw}
	}
	return id, nil
}
