package service

import (
	"context"
	"time"

	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/queue"
	"github.com/checkout-core/internal/repository"
)

type requestIDContextKey struct{}

// WithRequestID 将请求 ID 写入上下文，供审计记录关联
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return value
	}
	return ""
}

// AuditService 审计日志服务（尽力而为，失败只记录日志）
type AuditService struct {
	repo        repository.AuditLogRepository
	queueClient *queue.Client
}

// NewAuditService 创建审计服务
func NewAuditService(repo repository.AuditLogRepository, queueClient *queue.Client) *AuditService {
	return &AuditService{repo: repo, queueClient: queueClient}
}

// Record 记录审计日志：队列可用时异步写入，否则直接落库
func (s *AuditService) Record(ctx context.Context, userID uint, action string, metadata map[string]interface{}) {
	if s == nil {
		return
	}
	payload := queue.AuditRecordPayload{
		UserID:     userID,
		Action:     action,
		RequestID:  requestIDFromContext(ctx),
		Metadata:   metadata,
		OccurredAt: time.Now().Unix(),
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueAuditRecord(payload)
		if err == nil {
			return
		}
		logger.Warnw("audit_enqueue_failed", "action", action, "user_id", userID, "error", err)
	}
	if err := s.Persist(payload); err != nil {
		logger.Warnw("audit_record_failed", "action", action, "user_id", userID, "error", err)
	}
}

// Persist 写入审计日志
func (s *AuditService) Persist(payload queue.AuditRecordPayload) error {
	if s == nil || s.repo == nil {
		return nil
	}
	entry := &models.AuditLog{
		Action:       payload.Action,
		RequestID:    payload.RequestID,
		MetadataJSON: models.JSON(payload.Metadata),
		CreatedAt:    time.Now(),
	}
	if payload.OccurredAt > 0 {
		entry.CreatedAt = time.Unix(payload.OccurredAt, 0)
	}
	if payload.UserID != 0 {
		userID := payload.UserID
		entry.UserID = &userID
	}
	return s.repo.Create(entry)
}

// List 查询审计日志
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	return s.repo.List(filter)
}
