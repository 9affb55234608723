package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/provider"
	"github.com/checkout-core/internal/queue"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.AuditLog{}, &models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	container := provider.NewContainerWithDB(&config.Config{}, db, nil)
	return NewConsumer(container), db
}

func TestHandleAuditRecordPersists(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	occurred := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	task, err := queue.NewAuditRecordTask(queue.AuditRecordPayload{
		UserID:     5,
		Action:     "order_placed",
		RequestID:  "req-123",
		Metadata:   map[string]interface{}{"order_id": 9},
		OccurredAt: occurred.Unix(),
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}

	if err := consumer.handleAuditRecord(context.Background(), task); err != nil {
		t.Fatalf("handle audit record failed: %v", err)
	}

	var logs []models.AuditLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("load audit logs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit log, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Action != "order_placed" || entry.RequestID != "req-123" || entry.UserID == nil || *entry.UserID != 5 {
		t.Fatalf("unexpected audit log: %+v", entry)
	}
	if !entry.CreatedAt.Equal(occurred) {
		t.Fatalf("expected occurred_at preserved, got %s", entry.CreatedAt)
	}
}

func TestHandleAuditRecordSkipsBadPayload(t *testing.T) {
	consumer, db := setupWorkerTest(t)

	err := consumer.handleAuditRecord(context.Background(), asynq.NewTask(queue.TaskAuditRecord, []byte("{broken")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}

	body, _ := json.Marshal(queue.AuditRecordPayload{UserID: 1})
	if err := consumer.handleAuditRecord(context.Background(), asynq.NewTask(queue.TaskAuditRecord, body)); err != nil {
		t.Fatalf("empty action should be skipped, got %v", err)
	}

	var count int64
	if err := db.Model(&models.AuditLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no audit logs, got %d", count)
	}
}

func TestConsumerRegisterNil(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
	if err := consumer.handleAuditRecord(context.Background(), nil); err != nil {
		t.Fatalf("nil consumer should be a no-op, got %v", err)
	}
}
