package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/service"
)

type ResultsService interface {
	Latest(ctx context.Context) (service.LatestResult, error)
}

type ResultsHandler struct {
	svc ResultsService
}

func NewResultsHandler(svc ResultsService) *ResultsHandler {
	return &ResultsHandler{
		svc: svc,
	}
}

// HandleLatest godoc
// @Summary      Latest published official result
// @Description  Informational only. Rounds are settled by an admin.
// @Tags         results
// @Produce      json
// @Success      200      {object}   service.LatestResult
// @Failure      502      {object}   response.Err
// @Router       /results/latest [get]
func (h *ResultsHandler) HandleLatest(ctx *gin.Context) {
	latest, err := h.svc.Latest(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrBadGateway(err))
		return
	}

	ctx.JSON(http.StatusOK, latest)
}
