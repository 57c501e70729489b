package queue

import (
	"context"
	"testing"
)

func TestDecodeTask(t *testing.T) {
	task, err := DecodeTask(map[string]any{"type": TaskDiscardUpload, "key": "lessons/a.mp4"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Type != TaskDiscardUpload || task.Key != "lessons/a.mp4" {
		t.Fatalf("unexpected task: %+v", task)
	}

	if _, err := DecodeTask(map[string]any{"key": "x"}); err == nil {
		t.Fatalf("expected error for task without type")
	}
}

func TestTaskValuesOmitEmptyKey(t *testing.T) {
	values := Task{Type: TaskSweepUploads}.values()
	if _, ok := values["key"]; ok {
		t.Fatalf("expected no key field, got %v", values)
	}
	if values["type"] != TaskSweepUploads {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestProducerWithoutRedis(t *testing.T) {
	var p *Producer
	if err := p.Enqueue(context.Background(), Task{Type: TaskSweepUploads}); err != nil {
		t.Fatalf("expected nil producer to be a no-op, got %v", err)
	}
	if err := NewProducer(nil, "s").Enqueue(context.Background(), Task{Type: TaskSweepUploads}); err != nil {
		t.Fatalf("expected producer without client to be a no-op, got %v", err)
	}
}
