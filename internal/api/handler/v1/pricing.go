package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/request"
	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/domain"
)

type PricingService interface {
	Config(ctx context.Context) (domain.PriceConfig, error)
	Current(ctx context.Context) (domain.Money, error)
	Update(ctx context.Context, cfg domain.PriceConfig) (domain.PriceConfig, error)
}

type PricingHandler struct {
	svc PricingService
}

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{
		svc: svc,
	}
}

// HandleCurrentPrice godoc
// @Summary      Price of one pack right now
// @Tags         pricing
// @Produce      json
// @Success      200      {object}   response.PriceResponse
// @Router       /price [get]
func (h *PricingHandler) HandleCurrentPrice(ctx *gin.Context) {
	price, err := h.svc.Current(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCurrentPrice -> h.svc.Current", err)
		return
	}

	ctx.JSON(http.StatusOK, response.PriceResponse{Price: price, Formatted: price.String()})
}

// HandleGetPriceConfig godoc
// @Summary      Price configuration
// @Tags         admin
// @Produce      json
// @Success      200      {object}   domain.PriceConfig
// @Router       /admin/price [get]
// @Security     BearerAuth
func (h *PricingHandler) HandleGetPriceConfig(ctx *gin.Context) {
	cfg, err := h.svc.Config(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetPriceConfig -> h.svc.Config", err)
		return
	}

	ctx.JSON(http.StatusOK, cfg)
}

// HandleUpdatePriceConfig godoc
// @Summary      Replace the price configuration
// @Tags         admin
// @Produce      json
// @Param        request   body      request.PriceConfigRequest true "request body"
// @Success      200      {object}   domain.PriceConfig
// @Failure      400      {object}   response.Err
// @Router       /admin/price [put]
// @Security     BearerAuth
func (h *PricingHandler) HandleUpdatePriceConfig(ctx *gin.Context) {
	var req request.PriceConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	cfg, err := h.svc.Update(ctx.Request.Context(), req.Config())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdatePriceConfig -> h.svc.Update", err)
		return
	}

	ctx.JSON(http.StatusOK, cfg)
}
