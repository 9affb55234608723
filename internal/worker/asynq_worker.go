package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/provider"
	"github.com/checkout-core/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAuditRecord, c.handleAuditRecord)
}

func (c *Consumer) handleAuditRecord(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_audit_record_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AuditRecordPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// 载荷损坏时重试无意义，直接跳过
		logger.Warnw("worker_audit_record_unmarshal_failed", "error", err)
		return asynq.SkipRetry
	}
	if strings.TrimSpace(payload.Action) == "" {
		logger.Debugw("worker_audit_record_skip_empty_action", "user_id", payload.UserID)
		return nil
	}
	if c.Container == nil || c.AuditService == nil {
		logger.Warnw("worker_audit_record_skip_service_nil", "action", payload.Action)
		return nil
	}
	if err := c.AuditService.Persist(payload); err != nil {
		logger.Warnw("worker_audit_record_persist_failed",
			"action", payload.Action,
			"user_id", payload.UserID,
			"request_id", payload.RequestID,
			"error", err,
		)
		return err
	}
	return nil
}
