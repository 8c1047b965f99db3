package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/plateful/server/internal/module/billing/provider"
	"github.com/plateful/server/internal/shared/metrics"
)

// WebhookHandler receives billing-provider lifecycle events.
type WebhookHandler struct {
	service  *Service
	provider provider.Provider
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service *Service, p provider.Provider, m *metrics.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:  service,
		provider: p,
		metrics:  m,
		logger:   logger,
	}
}

// RegisterRoutes registers the webhook route. It must sit outside the
// authenticated group; the provider signs requests instead.
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhook", h.HandleWebhook)
}

// HandleWebhook verifies and applies a provider event. The signature is
// checked against the raw body before any event-type logic runs.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	event, err := h.provider.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("invalid webhook signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ctx := c.Request.Context()

	var (
		outcome    string
		processErr error
	)
	switch event.Type {
	case "checkout.session.completed":
		outcome, processErr = h.handleCheckoutCompleted(ctx, event)
	case "invoice.payment_failed":
		outcome, processErr = h.handleInvoicePaymentFailed(ctx, event)
	case "customer.subscription.deleted":
		outcome, processErr = h.handleSubscriptionDeleted(ctx, event)
	case "customer.subscription.updated":
		outcome, processErr = h.handleSubscriptionUpdated(ctx, event)
	default:
		h.logger.Debug("unhandled webhook event type", zap.String("type", string(event.Type)))
		outcome = OutcomeIgnored
	}

	if processErr != nil {
		h.metrics.RecordWebhookEvent(string(event.Type), "error")
		h.logger.Error("failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(processErr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "processing failed"})
		return
	}

	h.metrics.RecordWebhookEvent(string(event.Type), outcome)
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) (string, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return "", fmt.Errorf("unmarshal checkout session: %w", err)
	}

	var subscriptionID string
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	return h.service.ProcessCheckoutCompleted(ctx,
		sess.Metadata["userId"], subscriptionID,
		sess.Metadata["tier"], sess.Metadata["interval"])
}

func (h *WebhookHandler) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) (string, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return "", fmt.Errorf("unmarshal invoice: %w", err)
	}

	var subscriptionID string
	if inv.Subscription != nil {
		subscriptionID = inv.Subscription.ID
	}

	return h.service.ProcessPaymentFailed(ctx, subscriptionID)
}

func (h *WebhookHandler) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) (string, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return "", fmt.Errorf("unmarshal subscription: %w", err)
	}

	return h.service.ProcessSubscriptionDeleted(ctx, sub.ID)
}

func (h *WebhookHandler) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) (string, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return "", fmt.Errorf("unmarshal subscription: %w", err)
	}

	var priceID string
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	return h.service.ProcessSubscriptionUpdated(ctx,
		sub.ID, string(sub.Status), priceID, sub.CancelAtPeriodEnd)
}
