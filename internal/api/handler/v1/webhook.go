package v1

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/request"
	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/service"
)

const webhookTokenHeader = "asaas-access-token"

var errBadWebhookToken = errors.New("invalid webhook token")

type PaymentService interface {
	HandleWebhook(ctx context.Context, ev service.WebhookEvent) (service.Outcome, error)
	RecentEvents(ctx context.Context, limit int) ([]domain.GatewayEvent, error)
}

type WebhookHandler struct {
	token string
	svc   PaymentService
}

func NewWebhookHandler(token string, svc PaymentService) *WebhookHandler {
	return &WebhookHandler{
		token: token,
		svc:   svc,
	}
}

// HandleAsaas godoc
// @Summary      Payment gateway notifications
// @Description  Answers 200 for every well-formed delivery, including unknown payments, so the gateway stops retrying.
// @Tags         webhooks
// @Produce      json
// @Param        asaas-access-token header string false "Webhook token"
// @Success      200      {object}   response.WebhookResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Router       /webhooks/asaas [post]
func (h *WebhookHandler) HandleAsaas(ctx *gin.Context) {
	if h.token != "" {
		got := ctx.GetHeader(webhookTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			response.RenderErr(ctx, response.ErrForbidden(errBadWebhookToken))
			return
		}
	}

	raw, err := ctx.GetRawData()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.WebhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	outcome, err := h.svc.HandleWebhook(ctx.Request.Context(), service.WebhookEvent{
		Event:     req.Event,
		PaymentID: req.Payment.ID,
		Value:     domain.MoneyFromDecimal(req.Payment.Value),
		Raw:       raw,
	})
	if err != nil {
		// The reconcile job picks the payment up again.
		zap.L().Error("webhook processing failed",
			zap.String("event", req.Event),
			zap.String("gateway_id", req.Payment.ID),
			zap.Error(err))
		outcome = service.OutcomeUnhandled
	}

	ctx.JSON(http.StatusOK, response.WebhookResponse{Status: outcome})
}

// HandleRecentEvents godoc
// @Summary      Latest gateway deliveries
// @Tags         admin
// @Produce      json
// @Param        limit query int false "Number of events (default 20)"
// @Success      200      {array}    domain.GatewayEvent
// @Router       /admin/webhooks [get]
// @Security     BearerAuth
func (h *WebhookHandler) HandleRecentEvents(ctx *gin.Context) {
	events, err := h.svc.RecentEvents(ctx.Request.Context(), queryLimit(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRecentEvents -> h.svc.RecentEvents", err)
		return
	}

	ctx.JSON(http.StatusOK, events)
}
