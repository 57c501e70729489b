package queue

import (
	"encoding/json"
	"fmt"
)

const (
	TaskDiscardUpload      = "discard_upload"
	TaskSweepUploads       = "sweep_uploads"
	TaskExpireSubscription = "expire_subscription"
)

// Task is the unit of maintenance work carried on the stream.
type Task struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

func (t Task) values() map[string]any {
	values := map[string]any{"type": t.Type}
	if t.Key != "" {
		values["key"] = t.Key
	}
	return values
}

// DecodeTask reads a task back from stream message values.
func DecodeTask(values map[string]any) (Task, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return Task{}, err
	}
	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return Task{}, err
	}
	if task.Type == "" {
		return Task{}, fmt.Errorf("task without type")
	}
	return task, nil
}
