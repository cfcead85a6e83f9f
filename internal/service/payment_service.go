package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eshop-service/internal/broker"
	"eshop-service/internal/errs"
	"eshop-service/internal/models"
	"eshop-service/internal/payment"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// PaymentService coordinates payment links and capture verification
type PaymentService struct {
	store          *store.Store
	provider       payment.Client
	eventPublisher *broker.EventPublisher
	frontendURL    string
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store *store.Store, provider payment.Client, eventPublisher *broker.EventPublisher, frontendURL string) *PaymentService {
	return &PaymentService{
		store:          store,
		provider:       provider,
		eventPublisher: eventPublisher,
		frontendURL:    frontendURL,
		logger:         util.GetLogger(),
	}
}

// PaymentLinkResponse carries the hosted link back to the client
type PaymentLinkResponse struct {
	PaymentLinkID string `json:"paymentLinkId"`
	PaymentURL    string `json:"paymentUrl"`
}

// EnsurePaymentLink returns the payment link for an order, creating the
// PaymentOrder row and the provider link if they do not exist yet. Safe
// to call again after a provider failure.
func (s *PaymentService) EnsurePaymentLink(ctx context.Context, user *models.User, order *models.Order) (*PaymentLinkResponse, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.EnsurePaymentLink")
	defer span.End()

	po, err := s.store.GetPaymentOrderByOrderID(ctx, order.ID)
	if errs.KindOf(err) == errs.KindNotFound {
		po = &models.PaymentOrder{
			UserID:        user.ID,
			OrderID:       order.ID,
			Amount:        order.TotalSellingPrice,
			PaymentMethod: models.PaymentMethodRazorpay,
			Status:        models.PaymentOrderPending,
		}
		if createErr := s.store.CreatePaymentOrder(ctx, po); createErr != nil {
			return nil, createErr
		}
	} else if err != nil {
		return nil, err
	}

	if po.PaymentLinkID != "" {
		return &PaymentLinkResponse{PaymentLinkID: po.PaymentLinkID, PaymentURL: po.PaymentURL}, nil
	}

	start := time.Now()
	link, err := s.provider.CreatePaymentLink(ctx, payment.LinkRequest{
		AmountPaise:   po.Amount,
		CustomerName:  user.FullName,
		CustomerEmail: user.Email,
		CallbackURL:   fmt.Sprintf("%s/payment-success/%d", s.frontendURL, order.ID),
	})
	util.ProviderCallLatency.WithLabelValues("create_link").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if err := s.store.AttachPaymentLink(ctx, po.ID, link.LinkID, link.ShortURL); err != nil {
		return nil, fmt.Errorf("failed to attach payment link: %w", err)
	}

	util.PaymentLinksCreatedTotal.Inc()
	s.logger.Info("Payment link created",
		zap.Int64("order_id", order.ID),
		zap.String("link_id", link.LinkID))

	return &PaymentLinkResponse{PaymentLinkID: link.LinkID, PaymentURL: link.ShortURL}, nil
}

// ProceedPayment verifies a provider payment against its payment link
// and settles the order. Repeating the call yields the same outcome.
func (s *PaymentService) ProceedPayment(ctx context.Context, paymentID, linkID string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProceedPayment")
	defer span.End()

	po, err := s.store.GetPaymentOrderByLinkID(ctx, linkID)
	if err != nil {
		return false, err
	}

	// Idempotent on settled payment orders.
	switch po.Status {
	case models.PaymentOrderSuccess:
		return true, nil
	case models.PaymentOrderFailed:
		return false, nil
	}

	start := time.Now()
	result, err := s.provider.FetchPayment(ctx, paymentID)
	util.ProviderCallLatency.WithLabelValues("fetch_payment").Observe(time.Since(start).Seconds())
	if err != nil {
		return false, err
	}

	if !result.Captured() {
		if err := s.store.MarkPaymentFailed(ctx, po.ID); err != nil {
			return false, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		util.PaymentsFailedTotal.WithLabelValues("not_captured").Inc()
		s.logger.Warn("Payment not captured",
			zap.Int64("order_id", po.OrderID),
			zap.String("payment_id", paymentID),
			zap.String("provider_status", result.Status))
		s.publishPaymentFailed(ctx, po, paymentID)
		return false, nil
	}

	if err := s.store.MarkPaymentCapturedTx(ctx, po, paymentID); err != nil {
		// A concurrent callback won the PENDING flip; report its outcome.
		if errs.KindOf(err) == errs.KindConflict {
			settled, lookupErr := s.store.GetPaymentOrderByOrderID(ctx, po.OrderID)
			if lookupErr != nil {
				return false, lookupErr
			}
			return settled.Status == models.PaymentOrderSuccess, nil
		}
		return false, err
	}

	util.PaymentsCapturedTotal.Inc()
	s.logger.Info("Payment captured",
		zap.Int64("order_id", po.OrderID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", po.Amount))
	s.publishPaymentCaptured(ctx, po, paymentID)
	return true, nil
}

func (s *PaymentService) publishPaymentCaptured(ctx context.Context, po *models.PaymentOrder, paymentID string) {
	user, err := s.store.GetUserByID(ctx, po.UserID)
	if err != nil || user == nil {
		s.logger.Error("Failed to load user for payment event",
			zap.Int64("user_id", po.UserID), zap.Error(err))
		return
	}
	if err := s.eventPublisher.PublishPaymentCaptured(ctx, &models.PaymentCapturedEvent{
		OrderID:   po.OrderID,
		UserEmail: user.Email,
		UserName:  user.FullName,
		Amount:    po.Amount,
		PaymentID: paymentID,
	}); err != nil {
		s.logger.Error("Failed to publish PaymentCaptured event",
			zap.Int64("order_id", po.OrderID), zap.Error(err))
	}
}

func (s *PaymentService) publishPaymentFailed(ctx context.Context, po *models.PaymentOrder, paymentID string) {
	user, err := s.store.GetUserByID(ctx, po.UserID)
	if err != nil || user == nil {
		s.logger.Error("Failed to load user for payment event",
			zap.Int64("user_id", po.UserID), zap.Error(err))
		return
	}
	if err := s.eventPublisher.PublishPaymentFailed(ctx, &models.PaymentFailedEvent{
		OrderID:   po.OrderID,
		UserEmail: user.Email,
		PaymentID: paymentID,
	}); err != nil {
		s.logger.Error("Failed to publish PaymentFailed event",
			zap.Int64("order_id", po.OrderID), zap.Error(err))
	}
}

// ListUserTransactions returns the caller's settled transactions.
func (s *PaymentService) ListUserTransactions(ctx context.Context, email string) ([]models.Transaction, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("USER_NOT_FOUND", "user not found")
	}
	return s.store.ListTransactionsByUser(ctx, user.ID)
}

// ListTransactions returns every transaction for administrators.
func (s *PaymentService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx)
}
