package service

import (
	"context"
	"strings"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"

	"gorm.io/gorm"
)

// 订单状态允许的流转；送达与取消为终态
var allowedOrderTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipping, constants.OrderStatusCancelled},
	constants.OrderStatusShipping:   {constants.OrderStatusDelivered, constants.OrderStatusCancelled},
}

// AdvanceOrderStatusInput 订单状态推进输入
type AdvanceOrderStatusInput struct {
	OrderID       uint
	Status        string
	PaymentStatus string
	OperatorID    uint
}

func isValidOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipping,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func isValidPaymentStatus(status string) bool {
	switch status {
	case constants.PaymentStatusPending, constants.PaymentStatusPaid, constants.PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

func isTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusDelivered || status == constants.OrderStatusCancelled
}

// canTransitionOrder 判断状态流转是否合法，同状态重复流转一律拒绝
func canTransitionOrder(from, to string) bool {
	for _, next := range allowedOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// resolvePaymentStatusUpdate 校验运营指定的支付状态
// 钱包订单的支付状态由账本决定，不接受人工修改。
func resolvePaymentStatusUpdate(order *models.Order, next string) (string, error) {
	if next == "" || next == order.PaymentStatus {
		return "", nil
	}
	if !isValidPaymentStatus(next) {
		return "", ErrPaymentStatusInvalid
	}
	if order.PaymentMethod == constants.PaymentMethodWallet {
		return "", ErrPaymentStatusInvalid
	}
	switch {
	case order.PaymentStatus == constants.PaymentStatusPending && next == constants.PaymentStatusPaid:
	case order.PaymentStatus == constants.PaymentStatusPaid && next == constants.PaymentStatusRefunded:
	default:
		return "", ErrPaymentStatusInvalid
	}
	return next, nil
}

// AdvanceOrderStatus 推进订单状态
// 送达时累计积分；取消时退回钱包支付、奖励券与优惠券核销。全部在同一事务内完成。
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, input AdvanceOrderStatusInput) (*models.Order, error) {
	target := strings.ToLower(strings.TrimSpace(input.Status))
	if input.OrderID == 0 {
		return nil, ErrOrderNotFound
	}
	if !isValidOrderStatus(target) {
		return nil, ErrOrderStatusInvalid
	}
	paymentStatus := strings.ToLower(strings.TrimSpace(input.PaymentStatus))
	if paymentStatus != "" && !isValidPaymentStatus(paymentStatus) {
		return nil, ErrPaymentStatusInvalid
	}
	settings, err := s.settingSvc.Current(ctx)
	if err != nil {
		return nil, err
	}
	policy := settings.MembershipPolicy()

	var fromStatus string
	var accrual *AccrualResult
	var userID uint
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		fromStatus = order.Status
		userID = order.UserID
		if isTerminalOrderStatus(order.Status) || !canTransitionOrder(order.Status, target) {
			return ErrOrderTransitionInvalid
		}

		updates := map[string]interface{}{"updated_at": now}
		nextPayment, err := resolvePaymentStatusUpdate(order, paymentStatus)
		if err != nil {
			return err
		}
		if nextPayment != "" {
			updates["payment_status"] = nextPayment
			if nextPayment == constants.PaymentStatusPaid && order.PaidAt == nil {
				updates["paid_at"] = now
			}
		}

		switch target {
		case constants.OrderStatusDelivered:
			updates["delivered_at"] = now
			if !order.PointsAccrued {
				updates["points_accrued"] = true
			}
		case constants.OrderStatusCancelled:
			updates["cancelled_at"] = now
			if s.walletRefundable(order) {
				updates["payment_status"] = constants.PaymentStatusRefunded
			}
		}

		ok, err := orderRepo.TransitionStatus(order.ID, order.Status, target, updates)
		if err != nil {
			logger.Errorw("order_status_update_failed", "order_id", order.ID, "target", target, "error", err)
			return ErrOrderUpdateFailed
		}
		if !ok {
			return ErrOrderTransitionInvalid
		}
		if err := orderRepo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.Status,
			Status:     target,
			OperatorID: input.OperatorID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		switch target {
		case constants.OrderStatusDelivered:
			if order.PointsAccrued {
				return nil
			}
			accrual, err = s.loyaltySvc.AccrueForOrderTx(tx, order, settings, now)
			return err
		case constants.OrderStatusCancelled:
			return s.cancelSettlementTx(tx, order, policy, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_status_changed",
		"order_id", input.OrderID,
		"from", fromStatus,
		"to", target,
		"operator_id", input.OperatorID,
	)
	metadata := map[string]interface{}{
		"order_id":    input.OrderID,
		"from":        fromStatus,
		"to":          target,
		"operator_id": input.OperatorID,
	}
	if accrual != nil {
		metadata["points_earned"] = accrual.Earned
		metadata["reward_tokens_minted"] = accrual.TokensMinted
	}
	s.auditSvc.Record(ctx, userID, constants.AuditActionOrderStatusChanged, metadata)

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) walletRefundable(order *models.Order) bool {
	return order.PaymentMethod == constants.PaymentMethodWallet &&
		order.PaymentStatus == constants.PaymentStatusPaid &&
		order.Total.Decimal.IsPositive()
}

// cancelSettlementTx 取消订单时回滚结算副作用
func (s *OrderService) cancelSettlementTx(tx *gorm.DB, order *models.Order, policy MembershipPolicy, now time.Time) error {
	if s.walletRefundable(order) {
		orderID := order.ID
		if _, err := s.walletSvc.CreditTx(tx, LedgerEntry{
			UserID:     order.UserID,
			Amount:     order.Total.Decimal,
			Source:     constants.WalletSourceOrderRefund,
			Reference:  buildOrderWalletReference(order.ID, "refund"),
			OrderID:    &orderID,
			Remark:     order.OrderNo,
			Membership: &policy,
		}, now); err != nil {
			return err
		}
	}
	if order.RewardApplied {
		if _, err := s.loyaltySvc.RestoreRewardTx(tx, order.ID); err != nil {
			return err
		}
	}
	if order.CouponID != nil {
		if err := s.couponSvc.releaseTx(tx, order.ID, now); err != nil {
			return err
		}
	}
	return nil
}
