package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/checkout-core/internal/constants"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单结算编排服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	walletSvc   *WalletService
	couponSvc   *CouponService
	loyaltySvc  *LoyaltyService
	settingSvc  *SettlementSettingService
	auditSvc    *AuditService
}

// OrderServiceOptions 订单服务依赖
type OrderServiceOptions struct {
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	UserRepo    repository.UserRepository
	WalletSvc   *WalletService
	CouponSvc   *CouponService
	LoyaltySvc  *LoyaltyService
	SettingSvc  *SettlementSettingService
	AuditSvc    *AuditService
}

// NewOrderService 创建订单服务
func NewOrderService(opts OrderServiceOptions) *OrderService {
	return &OrderService{
		orderRepo:   opts.OrderRepo,
		productRepo: opts.ProductRepo,
		cartRepo:    opts.CartRepo,
		userRepo:    opts.UserRepo,
		walletSvc:   opts.WalletSvc,
		couponSvc:   opts.CouponSvc,
		loyaltySvc:  opts.LoyaltySvc,
		settingSvc:  opts.SettingSvc,
		auditSvc:    opts.AuditSvc,
	}
}

// OrderLineInput 下单商品行
type OrderLineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PlaceOrderInput 下单输入，Items 为空时使用购物车
type PlaceOrderInput struct {
	UserID        uint
	Items         []OrderLineInput
	Address       string
	Latitude      float64
	Longitude     float64
	PaymentMethod string
	CouponCode    string
	UseReward     bool
}

// OrderQuoteLine 报价行（价格快照）
type OrderQuoteLine struct {
	ProductID   uint         `json:"product_id"`
	ProductName string       `json:"product_name"`
	UnitPrice   models.Money `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	TotalPrice  models.Money `json:"total_price"`
}

// OrderQuote 订单金额明细
type OrderQuote struct {
	Items              []OrderQuoteLine `json:"items"`
	Subtotal           models.Money     `json:"subtotal"`
	DeliveryDistanceKm float64          `json:"delivery_distance_km"`
	DeliveryFee        models.Money     `json:"delivery_fee"`
	FreeDelivery       bool             `json:"free_delivery"`
	Discount           models.Money     `json:"discount"`
	RewardDiscount     models.Money     `json:"reward_discount"`
	RewardApplied      bool             `json:"reward_applied"`
	Total              models.Money     `json:"total"`
	Coupon             *DiscountQuote   `json:"coupon,omitempty"`
}

// PreviewOrder 计算订单金额，不产生任何写入
func (s *OrderService) PreviewOrder(ctx context.Context, input PlaceOrderInput) (*OrderQuote, error) {
	if err := validatePlaceOrderInput(&input); err != nil {
		return nil, err
	}
	settings, err := s.settingSvc.Current(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.loadActiveUser(s.userRepo, input.UserID)
	if err != nil {
		return nil, err
	}
	lines, err := s.resolveLines(s.cartRepo, input)
	if err != nil {
		return nil, err
	}
	quote, err := s.priceLines(s.productRepo, lines)
	if err != nil {
		return nil, err
	}
	applyDelivery(quote, settings, input.Latitude, input.Longitude)

	if input.CouponCode != "" {
		_, couponQuote, err := s.couponSvc.check(s.couponSvc.couponRepo, s.couponSvc.redemptionRepo, user, couponInputFor(input, quote), false, time.Now())
		if err != nil {
			return nil, err
		}
		applyCouponQuote(quote, couponQuote)
	}
	if input.UseReward {
		available, err := s.loyaltySvc.HasAvailableReward(user.ID)
		if err != nil {
			return nil, err
		}
		if available {
			applyReward(quote, settings.RewardValue.Decimal)
		}
	}
	finalizeTotal(quote)
	return quote, nil
}

// PlaceOrder 下单结算：价格快照、优惠、奖励券、钱包扣款与清空购物车在同一事务内完成
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validatePlaceOrderInput(&input); err != nil {
		return nil, err
	}
	settings, err := s.settingSvc.Current(ctx)
	if err != nil {
		return nil, err
	}
	policy := settings.MembershipPolicy()

	var order *models.Order
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		user, err := s.loadActiveUser(s.userRepo.WithTx(tx), input.UserID)
		if err != nil {
			return err
		}
		lines, err := s.resolveLines(s.cartRepo.WithTx(tx), input)
		if err != nil {
			return err
		}
		quote, err := s.priceLines(s.productRepo.WithTx(tx), lines)
		if err != nil {
			return err
		}
		applyDelivery(quote, settings, input.Latitude, input.Longitude)

		var coupon *models.Coupon
		if input.CouponCode != "" {
			var couponQuote *DiscountQuote
			coupon, couponQuote, err = s.couponSvc.checkTx(tx, user, couponInputFor(input, quote), now)
			if err != nil {
				return err
			}
			applyCouponQuote(quote, couponQuote)
		}

		var rewardToken *models.RewardToken
		if input.UseReward {
			rewardToken, err = s.loyaltySvc.peekRewardTx(tx, user.ID)
			if err != nil {
				return err
			}
			if rewardToken != nil {
				applyReward(quote, settings.RewardValue.Decimal)
			}
		}
		finalizeTotal(quote)

		order = buildOrder(user.ID, input, quote, coupon, now)
		items := buildOrderItems(quote, now)
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.Create(order, items); err != nil {
			logger.Errorw("order_create_failed", "user_id", user.ID, "error", err)
			return ErrOrderCreateFailed
		}
		order.Items = items
		if err := orderRepo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    constants.OrderStatusPending,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if coupon != nil {
			if err := s.couponSvc.redeemTx(tx, coupon, user.ID, order.ID, quote.Discount.Decimal, now); err != nil {
				return err
			}
		}
		if rewardToken != nil {
			consumed, err := s.loyaltySvc.ConsumeRewardTx(tx, user.ID, order.ID, now)
			if err != nil {
				return err
			}
			if consumed == nil {
				return ErrRewardUnavailable
			}
		}

		if order.PaymentMethod == constants.PaymentMethodWallet && order.Total.Decimal.IsPositive() {
			orderID := order.ID
			if _, err := s.walletSvc.DebitTx(tx, LedgerEntry{
				UserID:     user.ID,
				Amount:     order.Total.Decimal,
				Source:     constants.WalletSourceOrderPay,
				Reference:  buildOrderWalletReference(order.ID, "pay"),
				OrderID:    &orderID,
				Remark:     order.OrderNo,
				Membership: &policy,
			}, now); err != nil {
				return err
			}
		}

		return s.cartRepo.WithTx(tx).ClearByUser(user.ID)
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientFunds) && !errors.Is(err, ErrCouponRejected) {
			logger.Warnw("order_place_failed", "user_id", input.UserID, "error", err)
		}
		return nil, err
	}

	logger.Infow("order_placed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"payment_method", order.PaymentMethod,
		"total", order.Total.String(),
	)
	s.auditSvc.Record(ctx, order.UserID, constants.AuditActionOrderPlaced, map[string]interface{}{
		"order_id":       order.ID,
		"order_no":       order.OrderNo,
		"total":          order.Total.String(),
		"payment_method": order.PaymentMethod,
		"coupon_code":    order.CouponCode,
		"reward_applied": order.RewardApplied,
	})

	full, err := s.orderRepo.GetByID(order.ID)
	if err != nil || full == nil {
		return order, nil
	}
	return full, nil
}

func validatePlaceOrderInput(input *PlaceOrderInput) error {
	if input == nil || input.UserID == 0 {
		return ErrInvalidOrderInput
	}
	input.PaymentMethod = strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	switch input.PaymentMethod {
	case constants.PaymentMethodWallet, constants.PaymentMethodCash, constants.PaymentMethodCard:
	default:
		return ErrPaymentMethodInvalid
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return ErrInvalidCoordinates
	}
	input.Address = strings.TrimSpace(input.Address)
	input.CouponCode = NormalizeCouponCode(input.CouponCode)
	for _, item := range input.Items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			return ErrInvalidOrderItem
		}
	}
	return nil
}

func (s *OrderService) loadActiveUser(userRepo repository.UserRepository, userID uint) (*models.User, error) {
	user, err := userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if strings.ToLower(user.Status) == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}
	return user, nil
}

// resolveLines 显式商品行优先，否则取购物车
func (s *OrderService) resolveLines(cartRepo repository.CartRepository, input PlaceOrderInput) ([]OrderLineInput, error) {
	lines := input.Items
	if len(lines) == 0 {
		cartItems, err := cartRepo.ListByUser(input.UserID)
		if err != nil {
			return nil, err
		}
		for _, item := range cartItems {
			if item.Quantity <= 0 {
				continue
			}
			lines = append(lines, OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}
	}
	merged := mergeOrderLines(lines)
	if len(merged) == 0 {
		return nil, ErrEmptyBasket
	}
	return merged, nil
}

// mergeOrderLines 合并同一商品的数量，保持首次出现顺序
func mergeOrderLines(lines []OrderLineInput) []OrderLineInput {
	index := make(map[uint]int, len(lines))
	merged := make([]OrderLineInput, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == 0 || line.Quantity <= 0 {
			continue
		}
		if pos, ok := index[line.ProductID]; ok {
			merged[pos].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// priceLines 读取商品价格快照并计算小计，任一商品缺失则整单失败
func (s *OrderService) priceLines(productRepo repository.ProductRepository, lines []OrderLineInput) (*OrderQuote, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	quote := &OrderQuote{Items: make([]OrderQuoteLine, 0, len(lines))}
	subtotal := decimal.Zero
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, line.ProductID)
		}
		unit := product.PriceAmount.Decimal.Round(2)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
		quote.Items = append(quote.Items, OrderQuoteLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   models.NewMoneyFromDecimal(unit),
			Quantity:    line.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
		})
	}
	quote.Subtotal = models.NewMoneyFromDecimal(subtotal)
	return quote, nil
}

func applyDelivery(quote *OrderQuote, settings SettlementSettings, lat, lng float64) {
	quote.DeliveryDistanceKm = DistanceKm(settings.StoreLat, settings.StoreLng, lat, lng)
	fee := DeliveryFee(quote.DeliveryDistanceKm, settings.DeliveryFreeKm, settings.DeliveryRatePerKm.Decimal)
	quote.DeliveryFee = models.NewMoneyFromDecimal(fee)
}

func couponInputFor(input PlaceOrderInput, quote *OrderQuote) CouponCheckInput {
	productIDs := make([]uint, 0, len(quote.Items))
	for _, item := range quote.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })
	return CouponCheckInput{
		Code:        input.CouponCode,
		UserID:      input.UserID,
		Subtotal:    quote.Subtotal.Decimal,
		DeliveryFee: quote.DeliveryFee.Decimal,
		ProductIDs:  productIDs,
	}
}

// applyCouponQuote 免配送券将配送费置零，折扣券记录折扣金额
func applyCouponQuote(quote *OrderQuote, couponQuote *DiscountQuote) {
	if couponQuote == nil {
		return
	}
	quote.Coupon = couponQuote
	if couponQuote.FreeDelivery {
		quote.FreeDelivery = true
		quote.DeliveryFee = models.NewMoneyFromInt(0)
		quote.Discount = models.NewMoneyFromInt(0)
		return
	}
	quote.Discount = couponQuote.Discount
}

// applyReward 奖励抵扣不超过扣除优惠后的剩余应付
func applyReward(quote *OrderQuote, rewardValue decimal.Decimal) {
	remaining := quote.Subtotal.Decimal.Add(quote.DeliveryFee.Decimal).Sub(quote.Discount.Decimal)
	quote.RewardDiscount = models.NewMoneyFromDecimal(clampDiscount(rewardValue, remaining))
	quote.RewardApplied = true
}

func finalizeTotal(quote *OrderQuote) {
	total := quote.Subtotal.Decimal.
		Add(quote.DeliveryFee.Decimal).
		Sub(quote.Discount.Decimal).
		Sub(quote.RewardDiscount.Decimal)
	if total.IsNegative() {
		total = decimal.Zero
	}
	quote.Total = models.NewMoneyFromDecimal(total)
}

func buildOrder(userID uint, input PlaceOrderInput, quote *OrderQuote, coupon *models.Coupon, now time.Time) *models.Order {
	order := &models.Order{
		OrderNo:            generateOrderNo(now),
		UserID:             userID,
		Status:             constants.OrderStatusPending,
		PaymentMethod:      input.PaymentMethod,
		PaymentStatus:      constants.PaymentStatusPending,
		Address:            input.Address,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		Subtotal:           quote.Subtotal,
		DeliveryFee:        quote.DeliveryFee,
		DeliveryDistanceKm: quote.DeliveryDistanceKm,
		FreeDelivery:       quote.FreeDelivery,
		Discount:           quote.Discount,
		RewardDiscount:     quote.RewardDiscount,
		RewardApplied:      quote.RewardApplied,
		Total:              quote.Total,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if coupon != nil {
		couponID := coupon.ID
		order.CouponID = &couponID
		order.CouponCode = coupon.Code
	}
	if order.PaymentMethod == constants.PaymentMethodWallet {
		order.PaymentStatus = constants.PaymentStatusPaid
		paidAt := now
		order.PaidAt = &paidAt
	}
	return order
}

func buildOrderItems(quote *OrderQuote, now time.Time) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(quote.Items))
	for _, line := range quote.Items {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			TotalPrice:  line.TotalPrice,
			CreatedAt:   now,
		})
	}
	return items
}

func generateOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("CK%s%s", now.Format("20060102150405"), suffix)
}
