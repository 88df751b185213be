package models

import "time"

// Task represents a unit of work that may depend on other tasks.
type Task struct {
	ID        int64      `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	DueDate   *time.Time `json:"due_date" yaml:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	ImageURL  string     `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// FinishTime is the due date when one is set, otherwise the creation time.
func (t Task) FinishTime() time.Time {
	if t.DueDate != nil {
		return *t.DueDate
	}
	return t.CreatedAt
}

// Dependency is a directed edge: Parent must finish before Child starts.
type Dependency struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	ParentID  int64     `json:"parent_id" yaml:"parent_id"`
	ChildID   int64     `json:"child_id" yaml:"child_id"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Edge returns the (parent, child) pair that identifies the dependency.
func (d Dependency) Edge() [2]int64 {
	return [2]int64{d.ParentID, d.ChildID}
}
