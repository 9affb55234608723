//go:build integration
// +build integration

package repository

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/checkout-core/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.WalletTransaction{},
		&models.WalletAccount{},
		&models.CouponRedemption{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := db.AutoMigrate(cleanupModels...); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// 并发扣款在行锁上串行化：余额 100，10 个并发各扣 20，恰好成功 5 个
func TestPostgresConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewWalletRepository(db)
	if _, err := repo.ApplyDelta(1, decimal.NewFromInt(100), time.Now()); err != nil {
		t.Fatalf("seed balance failed: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := repo.WithTx(tx).ApplyDelta(1, decimal.NewFromInt(-20), time.Now())
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrWalletBalanceNegative) {
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 {
		t.Fatalf("expected 5 successful debits, got %d", succeeded)
	}
	account, err := repo.GetAccountByUserID(1)
	if err != nil || account == nil {
		t.Fatalf("load account failed: %v", err)
	}
	if !account.Balance.Decimal.IsZero() {
		t.Fatalf("expected zero balance, got %s", account.Balance)
	}
}

// 单次券唯一键冲突时只保留一条核销记录
func TestPostgresSingleUseRedemptionIsUnique(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCouponRedemptionRepository(db)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			key := "7:3"
			ok, err := repo.Create(&models.CouponRedemption{
				CouponID:     7,
				UserID:       3,
				OrderID:      orderID,
				SingleUseKey: &key,
				CreatedAt:    time.Now(),
			})
			if err != nil {
				t.Errorf("create redemption failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(uint(i + 1))
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one redemption, got %d", created)
	}
	count, err := repo.CountByUser(7, 3)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d %v", count, err)
	}
}
