package models

import "time"

// ScheduledTask is a Task annotated with its computed schedule.
type ScheduledTask struct {
	Task          `yaml:",inline"`
	EarliestStart time.Time     `json:"earliest_start" yaml:"earliest_start"`
	FinishTime    time.Time     `json:"finish_time" yaml:"finish_time"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Critical      bool          `json:"critical" yaml:"critical"`
}

// Schedule is the result of scheduling one graph snapshot.
type Schedule struct {
	Tasks         []ScheduledTask `json:"tasks" yaml:"tasks"` // topological order
	Order         []int64         `json:"order" yaml:"order"`
	CriticalPath  []int64         `json:"critical_path" yaml:"critical_path"`
	TotalDuration time.Duration   `json:"total_duration" yaml:"total_duration"`
}

// IsCriticalEdge reports whether parent -> child is a consecutive pair on the
// critical path.
func (s *Schedule) IsCriticalEdge(parentID, childID int64) bool {
	for i := 0; i+1 < len(s.CriticalPath); i++ {
		if s.CriticalPath[i] == parentID && s.CriticalPath[i+1] == childID {
			return true
		}
	}
	return false
}

// Task returns the scheduled task with the given id.
func (s *Schedule) Task(id int64) (ScheduledTask, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return ScheduledTask{}, false
}
