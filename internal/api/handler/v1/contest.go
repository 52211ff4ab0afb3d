package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/request"
	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/service"
)

var errInvalidID = errors.New("invalid id")

type ContestService interface {
	CreateContest(ctx context.Context, in service.ContestInput) (domain.Contest, error)
	UpdateContest(ctx context.Context, id uint, u domain.ContestUpdate) (domain.Contest, error)
	Deactivate(ctx context.Context, id uint) (domain.Contest, error)
	Reactivate(ctx context.Context, id uint) (domain.Contest, error)
	GetContest(ctx context.Context, id uint) (domain.ContestSummary, error)
	ListContests(ctx context.Context) ([]domain.ContestSummary, error)
	CreateLegacyDraw(ctx context.Context, basePrize domain.Money) (domain.LegacyDraw, error)
	CurrentLegacyDraw(ctx context.Context) (domain.LegacyDraw, error)
	Dashboard(ctx context.Context) (service.Dashboard, error)
	PlaceBet(ctx context.Context, req service.PlaceBetRequest) (domain.Bet, error)
	ListBets(ctx context.Context, ref domain.SourceRef) ([]domain.Bet, error)
}

type SettlementService interface {
	Settle(ctx context.Context, ref domain.SourceRef, numbers domain.OfficialNumbers) (service.SettlementReport, error)
}

type ContestHandler struct {
	svc     ContestService
	settler SettlementService
}

func NewContestHandler(svc ContestService, settler SettlementService) *ContestHandler {
	return &ContestHandler{
		svc:     svc,
		settler: settler,
	}
}

// HandlePlaceBet godoc
// @Summary      Buy a pack of numbers
// @Description  Debits the account and attaches the bet. Sending the same request_id again returns the first bet.
// @Tags         bets
// @Produce      json
// @Param        request   body      request.PlaceBetRequest true "request body"
// @Success      201      {object}   domain.Bet
// @Failure      400      {object}   response.Err
// @Failure      402      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /bets [post]
func (h *ContestHandler) HandlePlaceBet(ctx *gin.Context) {
	var req request.PlaceBetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	in := service.PlaceBetRequest{
		AccountExternalID: req.ExternalID,
		AccountName:       req.Name,
		Source:            req.Source(),
		White:             req.White,
		Special:           req.Special,
		Key:               req.RequestID,
	}
	if req.Amount != nil {
		in.AmountPaid = domain.MoneyFromDecimal(*req.Amount)
	}

	bet, err := h.svc.PlaceBet(ctx.Request.Context(), in)
	if err != nil {
		renderServiceErr(ctx, "v1.HandlePlaceBet -> h.svc.PlaceBet", err)
		return
	}

	ctx.JSON(http.StatusCreated, bet)
}

// HandleListContests godoc
// @Summary      List contests with their stats
// @Tags         contests
// @Produce      json
// @Success      200      {array}    domain.ContestSummary
// @Router       /contests [get]
func (h *ContestHandler) HandleListContests(ctx *gin.Context) {
	contests, err := h.svc.ListContests(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListContests -> h.svc.ListContests", err)
		return
	}

	ctx.JSON(http.StatusOK, contests)
}

// HandleGetContest godoc
// @Summary      Get a contest
// @Tags         contests
// @Produce      json
// @Param        contestID path int true "Contest ID"
// @Success      200      {object}   domain.ContestSummary
// @Failure      404      {object}   response.Err
// @Router       /contests/{contestID} [get]
func (h *ContestHandler) HandleGetContest(ctx *gin.Context) {
	id, ok := paramID(ctx, "contestID")
	if !ok {
		return
	}

	contest, err := h.svc.GetContest(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetContest -> h.svc.GetContest", err)
		return
	}

	ctx.JSON(http.StatusOK, contest)
}

// HandleCreateContest godoc
// @Summary      Create a contest
// @Tags         admin
// @Produce      json
// @Param        request   body      request.CreateContestRequest true "request body"
// @Success      201      {object}   domain.Contest
// @Failure      400      {object}   response.Err
// @Router       /admin/contests [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleCreateContest(ctx *gin.Context) {
	var req request.CreateContestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	contest, err := h.svc.CreateContest(ctx.Request.Context(), service.ContestInput{
		Title:       req.Title,
		Pool:        domain.MoneyFromDecimal(req.PrizePool),
		UnitPrice:   domain.MoneyFromDecimal(req.UnitPrice),
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateContest -> h.svc.CreateContest", err)
		return
	}

	ctx.JSON(http.StatusCreated, contest)
}

// HandleUpdateContest godoc
// @Summary      Edit a contest that has not been drawn
// @Tags         admin
// @Produce      json
// @Param        contestID path int true "Contest ID"
// @Param        request   body      request.UpdateContestRequest true "request body"
// @Success      200      {object}   domain.Contest
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /admin/contests/{contestID} [patch]
// @Security     BearerAuth
func (h *ContestHandler) HandleUpdateContest(ctx *gin.Context) {
	id, ok := paramID(ctx, "contestID")
	if !ok {
		return
	}

	var req request.UpdateContestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	contest, err := h.svc.UpdateContest(ctx.Request.Context(), id, req.Update())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdateContest -> h.svc.UpdateContest", err)
		return
	}

	ctx.JSON(http.StatusOK, contest)
}

// HandleDeactivateContest godoc
// @Summary      Stop taking bets on a contest
// @Tags         admin
// @Produce      json
// @Param        contestID path int true "Contest ID"
// @Success      200      {object}   domain.Contest
// @Failure      409      {object}   response.Err
// @Router       /admin/contests/{contestID}/deactivate [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleDeactivateContest(ctx *gin.Context) {
	id, ok := paramID(ctx, "contestID")
	if !ok {
		return
	}

	contest, err := h.svc.Deactivate(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleDeactivateContest -> h.svc.Deactivate", err)
		return
	}

	ctx.JSON(http.StatusOK, contest)
}

// HandleActivateContest godoc
// @Summary      Reopen an inactive contest
// @Tags         admin
// @Produce      json
// @Param        contestID path int true "Contest ID"
// @Success      200      {object}   domain.Contest
// @Failure      409      {object}   response.Err
// @Router       /admin/contests/{contestID}/activate [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleActivateContest(ctx *gin.Context) {
	id, ok := paramID(ctx, "contestID")
	if !ok {
		return
	}

	contest, err := h.svc.Reactivate(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleActivateContest -> h.svc.Reactivate", err)
		return
	}

	ctx.JSON(http.StatusOK, contest)
}

// HandleSettleContest godoc
// @Summary      Draw a contest and pay the jackpot winners
// @Tags         admin
// @Produce      json
// @Param        contestID path int true "Contest ID"
// @Param        request   body      request.SettleRequest true "official numbers"
// @Success      200      {object}   service.SettlementReport
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /admin/contests/{contestID}/settle [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleSettleContest(ctx *gin.Context) {
	id, ok := paramID(ctx, "contestID")
	if !ok {
		return
	}

	h.settle(ctx, domain.ContestRef(id))
}

// HandleContestBets godoc
// @Summary      Bets placed on a contest
// @Tags         admin
// @Produce      json
// @Param        contestID path int true "Contest ID"
// @Success      200      {array}    response.BetView
// @Router       /admin/contests/{contestID}/bets [get]
// @Security     BearerAuth
func (h *ContestHandler) HandleContestBets(ctx *gin.Context) {
	id, ok := paramID(ctx, "contestID")
	if !ok {
		return
	}

	bets, err := h.svc.ListBets(ctx.Request.Context(), domain.ContestRef(id))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleContestBets -> h.svc.ListBets", err)
		return
	}

	ctx.JSON(http.StatusOK, response.NewBetViews(bets))
}

// HandleCreateDraw godoc
// @Summary      Open a legacy draw, closing the previous one
// @Tags         admin
// @Produce      json
// @Param        request   body      request.CreateDrawRequest true "request body"
// @Success      201      {object}   domain.LegacyDraw
// @Failure      400      {object}   response.Err
// @Router       /admin/draws [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleCreateDraw(ctx *gin.Context) {
	var req request.CreateDrawRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	draw, err := h.svc.CreateLegacyDraw(ctx.Request.Context(), domain.MoneyFromDecimal(req.BasePrize))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateDraw -> h.svc.CreateLegacyDraw", err)
		return
	}

	ctx.JSON(http.StatusCreated, draw)
}

// HandleCurrentDraw godoc
// @Summary      The open legacy draw
// @Tags         draws
// @Produce      json
// @Success      200      {object}   domain.LegacyDraw
// @Failure      404      {object}   response.Err
// @Router       /draws/current [get]
func (h *ContestHandler) HandleCurrentDraw(ctx *gin.Context) {
	draw, err := h.svc.CurrentLegacyDraw(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCurrentDraw -> h.svc.CurrentLegacyDraw", err)
		return
	}

	ctx.JSON(http.StatusOK, draw)
}

// HandleSettleDraw godoc
// @Summary      Draw a legacy draw and pay the jackpot winners
// @Tags         admin
// @Produce      json
// @Param        drawID path int true "Draw ID"
// @Param        request   body      request.SettleRequest true "official numbers"
// @Success      200      {object}   service.SettlementReport
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /admin/draws/{drawID}/settle [post]
// @Security     BearerAuth
func (h *ContestHandler) HandleSettleDraw(ctx *gin.Context) {
	id, ok := paramID(ctx, "drawID")
	if !ok {
		return
	}

	h.settle(ctx, domain.DrawRef(id))
}

// HandleDashboard godoc
// @Summary      Revenue and prize fund of the open round
// @Tags         admin
// @Produce      json
// @Success      200      {object}   service.Dashboard
// @Failure      404      {object}   response.Err
// @Router       /admin/dashboard [get]
// @Security     BearerAuth
func (h *ContestHandler) HandleDashboard(ctx *gin.Context) {
	dashboard, err := h.svc.Dashboard(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleDashboard -> h.svc.Dashboard", err)
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}

func (h *ContestHandler) settle(ctx *gin.Context, ref domain.SourceRef) {
	var req request.SettleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	numbers, err := domain.NewOfficialNumbers(req.White, req.Special)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	report, err := h.settler.Settle(ctx.Request.Context(), ref, numbers)
	if err != nil {
		renderServiceErr(ctx, "v1.settle -> h.settler.Settle", err)
		return
	}

	ctx.JSON(http.StatusOK, report)
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(errInvalidID))
		return 0, false
	}

	return uint(id), true
}
