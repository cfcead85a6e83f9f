package worker

import (
	"context"
	"fmt"
	"log"

	"eshop-service/internal/broker"
	"eshop-service/internal/mailer"
	"eshop-service/internal/models"
)

// NotificationWorker sends customer emails for order lifecycle events
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       mailer.Mailer
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, m mailer.Mailer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		mailer:   m,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderCancelled(w.handleOrderCancelled)
	eventHandler.OnPaymentCaptured(w.handlePaymentCaptured)
	eventHandler.OnPaymentFailed(w.handlePaymentFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	subject := fmt.Sprintf("Order #%d received", event.OrderID)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWe have received your order #%d (%d items, total %s).\r\n"+
			"You will get another email once your payment is confirmed.\r\n",
		event.UserName, event.OrderID, event.TotalItems, formatAmount(event.TotalAmount))
	return w.send(event.UserEmail, subject, body)
}

func (w *NotificationWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	subject := fmt.Sprintf("Order #%d cancelled", event.OrderID)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour order #%d has been cancelled. "+
			"If you already paid, the refund will be processed separately.\r\n",
		event.UserName, event.OrderID)
	return w.send(event.UserEmail, subject, body)
}

func (w *NotificationWorker) handlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	subject := fmt.Sprintf("Payment confirmed for order #%d", event.OrderID)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWe received your payment of %s for order #%d.\r\n"+
			"Your order is confirmed and will be shipped soon.\r\n",
		event.UserName, formatAmount(event.Amount), event.OrderID)
	return w.send(event.UserEmail, subject, body)
}

func (w *NotificationWorker) handlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	subject := fmt.Sprintf("Payment failed for order #%d", event.OrderID)
	body := fmt.Sprintf(
		"Hi,\r\n\r\nYour payment for order #%d could not be completed. "+
			"Please try again from your orders page.\r\n",
		event.OrderID)
	return w.send(event.UserEmail, subject, body)
}

// send logs and swallows mailer errors so a broken SMTP server does not
// block the consumer offset forever.
func (w *NotificationWorker) send(to, subject, body string) error {
	if err := w.mailer.Send(to, subject, body); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
	}
	return nil
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("₹%d.%02d", minor/100, minor%100)
}
