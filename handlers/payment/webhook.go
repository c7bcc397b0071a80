// Package payment receives gateway webhook deliveries.
package payment

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/services"
	"github.com/skillforest/lms-api/services/payment"
	"github.com/skillforest/lms-api/utils/response"
)

// WebhookHandler settles purchases from gateway events
type WebhookHandler struct {
	client            *payment.Client
	enrollmentService *services.EnrollmentService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(client *payment.Client, enrollmentService *services.EnrollmentService) *WebhookHandler {
	return &WebhookHandler{
		client:            client,
		enrollmentService: enrollmentService,
	}
}

// HandleWebhook verifies and processes one gateway delivery. The gateway
// retries on non-2xx, so anything already settled answers 200.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	event, err := h.client.ParseWebhook(c.Body(), c.Get("X-Gateway-Signature"))
	if err != nil {
		return response.FromError(c, err)
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		result, err := h.enrollmentService.CompletePurchase(c.Context(), event.Data.Reference)
		if err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				// Settled the other way before this delivery arrived; ack so
				// the gateway stops retrying
				return response.SuccessWithMessage(c, "Already handled", nil)
			}
			return response.FromError(c, err)
		}
		if result.AlreadyCompleted {
			return response.SuccessWithMessage(c, "Already handled", nil)
		}
		return response.SuccessWithMessage(c, "Purchase completed", nil)

	case payment.EventCheckoutFailed:
		if _, err := h.enrollmentService.FailPurchase(c.Context(), event.Data.Reference); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				return response.SuccessWithMessage(c, "Already handled", nil)
			}
			return response.FromError(c, err)
		}
		return response.SuccessWithMessage(c, "Purchase failed", nil)

	default:
		log.Printf("ignoring unknown webhook event type %q", event.Type)
		return response.SuccessWithMessage(c, "Ignored", nil)
	}
}
