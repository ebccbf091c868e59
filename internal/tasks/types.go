package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeSessionSweep = "auth:session_sweep"
	TypeResetSweep   = "auth:reset_sweep"
)

// SweepPayload bounds a sweep run so a backlogged queue never deletes rows
// that were still live when the task was enqueued.
type SweepPayload struct {
	Before time.Time `json:"before"`
}

func NewSessionSweepTask(before time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(SweepPayload{Before: before})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSessionSweep, data), nil
}

func NewResetSweepTask(before time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(SweepPayload{Before: before})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResetSweep, data), nil
}
