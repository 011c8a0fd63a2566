package tasks

import (
	"time"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/progress"
)

// TaskStatus is the terminal state of a single run.
type TaskStatus string

const (
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFound    TaskStatus = "found"
	TaskStatusNotFound TaskStatus = "not_found"
	TaskStatusFailed   TaskStatus = "failed"
)

// Outcome describes one finished check. It replaces a shared spinner: the
// final progress state travels with the result.
type Outcome struct {
	RunID     string             `json:"run_id"`
	Status    TaskStatus         `json:"status"`
	State     progress.State     `json:"state"`
	Result    *apple.CheckResult `json:"result,omitempty"`
	Notified  bool               `json:"notified"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Duration  time.Duration      `json:"duration"`
	Error     string             `json:"error,omitempty"`
}
