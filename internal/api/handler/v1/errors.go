package v1

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/service"
)

// renderServiceErr maps a service error to its HTTP form. op names the failing call for the log.
func renderServiceErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		response.RenderErr(ctx, response.ErrInsufficientFunds(err))
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrContestNotFound),
		errors.Is(err, service.ErrDrawNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrBetNotFound),
		errors.Is(err, service.ErrAdminNotFound):
		response.RenderErr(ctx, response.ErrNotFound(err))
	case errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrKeyConflict),
		errors.Is(err, service.ErrAlreadyDrawn),
		errors.Is(err, service.ErrContestNotOpen),
		errors.Is(err, service.ErrContestInactive),
		errors.Is(err, service.ErrEntryAlreadySettled),
		errors.Is(err, service.ErrAdminExists):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, service.ErrAccountArchived):
		response.RenderErr(ctx, response.ErrForbidden(err))
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidSelectionCount),
		errors.Is(err, service.ErrInvalidNumberRange),
		errors.Is(err, service.ErrInvalidPriceConfig),
		errors.Is(err, service.ErrInvalidEntryStatus),
		errors.Is(err, service.ErrProfileIncomplete),
		errors.Is(err, service.ErrWeakPassword):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrWrongPassword):
		response.RenderErr(ctx, response.ErrWrongCredentials(err))
	case errors.Is(err, service.ErrRemoteGatewayUnavailable):
		response.RenderErr(ctx, response.ErrBadGateway(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", op, err)))
	}
}
