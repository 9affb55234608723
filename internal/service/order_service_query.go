package service

import (
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/repository"
)

// ListUserOrders 获取用户订单列表
func (s *OrderService) ListUserOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrInvalidOrderInput
	}
	return s.orderRepo.ListByUser(filter)
}

// GetUserOrder 获取用户订单详情
func (s *OrderService) GetUserOrder(userID, orderID uint) (*models.Order, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrder 运营查询订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
