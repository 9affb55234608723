package queue

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/checkout-core/internal/config"
)

func TestDisabledClientRejectsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueAuditRecord(AuditRecordPayload{Action: "order_placed"}); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should not be enabled")
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" || cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected defaults: addr=%s concurrency=%d queues=%v", opt.Addr, cfg.Concurrency, cfg.Queues)
	}
	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, Concurrency: 3, Queues: map[string]int{"audit": 2}})
	if opt.Addr != "redis:6380" || cfg.Concurrency != 3 || cfg.Queues["audit"] != 2 {
		t.Fatalf("unexpected config: addr=%s concurrency=%d queues=%v", opt.Addr, cfg.Concurrency, cfg.Queues)
	}
}

func TestNewAuditRecordTask(t *testing.T) {
	task, err := NewAuditRecordTask(AuditRecordPayload{UserID: 4, Action: "wallet_top_up", RequestID: "req-1", OccurredAt: 100})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskAuditRecord {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload AuditRecordPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.UserID != 4 || payload.RequestID != "req-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
