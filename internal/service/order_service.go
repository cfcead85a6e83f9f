package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eshop-service/internal/broker"
	"eshop-service/internal/errs"
	"eshop-service/internal/models"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// legalTransitions is the set of allowed order status changes.
var legalTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

// OrderService handles order business logic
type OrderService struct {
	store          *store.Store
	payments       *PaymentService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, payments *PaymentService, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		payments:       payments,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateOrderResponse is returned after placing an order
type CreateOrderResponse struct {
	OrderID       int64  `json:"orderId"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	Message       string `json:"message"`
	PaymentURL    string `json:"paymentUrl"`
	PaymentLinkID string `json:"paymentLinkId"`
}

// CreateOrder freezes the cart into an order in a single transaction,
// then creates a payment link for it.
func (s *OrderService) CreateOrder(ctx context.Context, email string, address *models.Address, paymentMethod string) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if paymentMethod != "" && paymentMethod != models.PaymentMethodRazorpay {
		return nil, errs.Validation("UNSUPPORTED_PAYMENT_METHOD", "unsupported payment method")
	}

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	cart, err := s.store.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.CreateOrderTx(ctx, user.ID, address, cart)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(errs.CodeOf(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", user.ID),
		zap.Int64("total", order.TotalSellingPrice))

	if err := s.eventPublisher.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{
		OrderID:     order.ID,
		UserEmail:   user.Email,
		UserName:    user.FullName,
		TotalAmount: order.TotalSellingPrice,
		TotalItems:  order.TotalItem,
	}); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}

	link, err := s.payments.EnsurePaymentLink(ctx, user, order)
	if err != nil {
		return nil, err
	}

	return &CreateOrderResponse{
		OrderID:       order.ID,
		Amount:        order.TotalSellingPrice,
		PaymentMethod: models.PaymentMethodRazorpay,
		Message:       "Order placed successfully",
		PaymentURL:    link.PaymentURL,
		PaymentLinkID: link.PaymentLinkID,
	}, nil
}

// GetOrder returns a single order. Shoppers may only read their own.
func (s *OrderService) GetOrder(ctx context.Context, email, role string, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, errs.NotFound("ORDER_NOT_FOUND", "order not found")
	}

	if role == models.RoleShopper {
		user, err := s.requireUser(ctx, email)
		if err != nil {
			return nil, err
		}
		if order.UserID != user.ID {
			return nil, errs.Forbidden("FORBIDDEN", "order belongs to another user")
		}
	}
	return order, nil
}

// ListUserOrders returns the caller's order history.
func (s *OrderService) ListUserOrders(ctx context.Context, email string) ([]models.Order, error) {
	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.ListOrdersByUser(ctx, user.ID)
}

// ListOrders returns all orders, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	return s.store.ListOrders(ctx, status)
}

// CancelOrder cancels an order owned by the caller and restores stock.
func (s *OrderService) CancelOrder(ctx context.Context, email string, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, errs.NotFound("ORDER_NOT_FOUND", "order not found")
	}
	if order.UserID != user.ID {
		return nil, errs.Forbidden("FORBIDDEN", "order belongs to another user")
	}

	if err := s.store.CancelOrderTx(ctx, orderID); err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled", zap.Int64("order_id", orderID), zap.Int64("user_id", user.ID))

	if err := s.eventPublisher.PublishOrderCancelled(ctx, &models.OrderCancelledEvent{
		OrderID:   orderID,
		UserEmail: user.Email,
		UserName:  user.FullName,
	}); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event",
			zap.Int64("order_id", orderID), zap.Error(err))
	}

	return s.store.GetOrderByID(ctx, orderID)
}

// UpdateOrderStatus applies an administrative status change, rejecting
// transitions outside PENDING→CONFIRMED→SHIPPED→DELIVERED with
// CANCELLED reachable from PENDING or CONFIRMED.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return nil, errs.NotFound("ORDER_NOT_FOUND", "order not found")
	}

	if !transitionAllowed(order.OrderStatus, status) {
		return nil, errs.Conflict("ILLEGAL_TRANSITION",
			fmt.Sprintf("cannot move order from %s to %s", order.OrderStatus, status))
	}

	if status == models.OrderStatusCancelled {
		if err := s.store.CancelOrderTx(ctx, orderID); err != nil {
			return nil, err
		}
		util.OrdersCancelledTotal.Inc()
	} else if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", order.OrderStatus),
		zap.String("to", status))
	return s.store.GetOrderByID(ctx, orderID)
}

func transitionAllowed(from, to string) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *OrderService) requireUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("USER_NOT_FOUND", "user not found")
	}
	return user, nil
}
