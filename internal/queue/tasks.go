package queue

import (
	"encoding/json"

	"github.com/checkout-core/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuditRecord 审计日志写入任务
	TaskAuditRecord = constants.TaskAuditRecord
)

// AuditRecordPayload 审计日志任务载荷
type AuditRecordPayload struct {
	UserID     uint                   `json:"user_id,omitempty"`
	Action     string                 `json:"action"`
	RequestID  string                 `json:"request_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt int64                  `json:"occurred_at"`
}

// NewAuditRecordTask 创建审计日志任务
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, body), nil
}
