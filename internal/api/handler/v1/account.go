package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/request"
	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/service"
)

type AccountService interface {
	Register(ctx context.Context, externalID, name string) (domain.Account, error)
	Get(ctx context.Context, externalID string) (domain.Account, error)
	UpdateProfile(ctx context.Context, externalID string, profile domain.Profile) (domain.Account, error)
	Archive(ctx context.Context, externalID string) (domain.Account, error)
	Balance(ctx context.Context, externalID string) (domain.Money, error)
	History(ctx context.Context, externalID string, limit int) ([]domain.LedgerEntry, error)
	PlayerStats(ctx context.Context, externalID string) (domain.PlayerStats, error)
	PlayerBets(ctx context.Context, externalID string, limit int) ([]domain.Bet, error)
}

type DepositService interface {
	CreateDeposit(ctx context.Context, externalID string, amount domain.Money) (service.DepositCharge, error)
}

type AccountHandler struct {
	svc      AccountService
	deposits DepositService
}

func NewAccountHandler(svc AccountService, deposits DepositService) *AccountHandler {
	return &AccountHandler{
		svc:      svc,
		deposits: deposits,
	}
}

// HandleRegister godoc
// @Summary      Register a player account, or return the existing one
// @Tags         accounts
// @Produce      json
// @Param        request   body      request.RegisterRequest true "request body"
// @Success      200      {object}   domain.Account
// @Failure      400      {object}   response.Err
// @Router       /accounts [post]
func (h *AccountHandler) HandleRegister(ctx *gin.Context) {
	var req request.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	account, err := h.svc.Register(ctx.Request.Context(), req.ExternalID, req.Name)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRegister -> h.svc.Register", err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// HandleGetAccount godoc
// @Summary      Get a player account
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Success      200      {object}   domain.Account
// @Failure      404      {object}   response.Err
// @Router       /accounts/{externalID} [get]
func (h *AccountHandler) HandleGetAccount(ctx *gin.Context) {
	account, err := h.svc.Get(ctx.Request.Context(), ctx.Param("externalID"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetAccount -> h.svc.Get", err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// HandleUpdateProfile godoc
// @Summary      Update the player profile
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Param        request   body      request.ProfileRequest true "request body"
// @Success      200      {object}   domain.Account
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /accounts/{externalID}/profile [put]
func (h *AccountHandler) HandleUpdateProfile(ctx *gin.Context) {
	var req request.ProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	account, err := h.svc.UpdateProfile(ctx.Request.Context(), ctx.Param("externalID"), req.Profile())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdateProfile -> h.svc.UpdateProfile", err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// HandleArchive godoc
// @Summary      Archive a player account
// @Tags         admin
// @Produce      json
// @Param        externalID path string true "External ID"
// @Success      200      {object}   domain.Account
// @Failure      404      {object}   response.Err
// @Router       /admin/accounts/{externalID}/archive [post]
// @Security     BearerAuth
func (h *AccountHandler) HandleArchive(ctx *gin.Context) {
	account, err := h.svc.Archive(ctx.Request.Context(), ctx.Param("externalID"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleArchive -> h.svc.Archive", err)
		return
	}

	ctx.JSON(http.StatusOK, account)
}

// HandleBalance godoc
// @Summary      Current balance
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Success      200      {object}   response.BalanceResponse
// @Failure      404      {object}   response.Err
// @Router       /accounts/{externalID}/balance [get]
func (h *AccountHandler) HandleBalance(ctx *gin.Context) {
	externalID := ctx.Param("externalID")
	balance, err := h.svc.Balance(ctx.Request.Context(), externalID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleBalance -> h.svc.Balance", err)
		return
	}

	ctx.JSON(http.StatusOK, response.BalanceResponse{
		ExternalID: externalID,
		Balance:    balance,
		Formatted:  balance.String(),
	})
}

// HandleHistory godoc
// @Summary      Ledger history, newest first
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Param        limit query int false "Number of entries (default 20)"
// @Success      200      {array}    domain.LedgerEntry
// @Failure      404      {object}   response.Err
// @Router       /accounts/{externalID}/history [get]
func (h *AccountHandler) HandleHistory(ctx *gin.Context) {
	entries, err := h.svc.History(ctx.Request.Context(), ctx.Param("externalID"), queryLimit(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleHistory -> h.svc.History", err)
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleStats godoc
// @Summary      Player statistics
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Success      200      {object}   domain.PlayerStats
// @Failure      404      {object}   response.Err
// @Router       /accounts/{externalID}/stats [get]
func (h *AccountHandler) HandleStats(ctx *gin.Context) {
	stats, err := h.svc.PlayerStats(ctx.Request.Context(), ctx.Param("externalID"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleStats -> h.svc.PlayerStats", err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandlePlayerBets godoc
// @Summary      Player bets with their outcome
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Param        limit query int false "Number of bets (default 20)"
// @Success      200      {array}    response.BetView
// @Failure      404      {object}   response.Err
// @Router       /accounts/{externalID}/bets [get]
func (h *AccountHandler) HandlePlayerBets(ctx *gin.Context) {
	bets, err := h.svc.PlayerBets(ctx.Request.Context(), ctx.Param("externalID"), queryLimit(ctx))
	if err != nil {
		renderServiceErr(ctx, "v1.HandlePlayerBets -> h.svc.PlayerBets", err)
		return
	}

	ctx.JSON(http.StatusOK, response.NewBetViews(bets))
}

// HandleDeposit godoc
// @Summary      Open a PIX deposit
// @Tags         accounts
// @Produce      json
// @Param        externalID path string true "External ID"
// @Param        request   body      request.DepositRequest true "request body"
// @Success      201      {object}   service.DepositCharge
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      502      {object}   response.Err
// @Router       /accounts/{externalID}/deposits [post]
func (h *AccountHandler) HandleDeposit(ctx *gin.Context) {
	var req request.DepositRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	charge, err := h.deposits.CreateDeposit(ctx.Request.Context(), ctx.Param("externalID"), req.Money())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleDeposit -> h.deposits.CreateDeposit", err)
		return
	}

	ctx.JSON(http.StatusCreated, charge)
}

func queryLimit(ctx *gin.Context) int {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		return 0
	}

	return limit
}
