package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/powerpix/powerpix-api/internal/api/handler/v1/request"
	"github.com/powerpix/powerpix-api/internal/api/handler/v1/response"
	"github.com/powerpix/powerpix-api/internal/api/middleware"
	"github.com/powerpix/powerpix-api/internal/config"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/jwthelper"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (domain.Admin, error)
	CreateAdmin(ctx context.Context, username, password string) (domain.Admin, error)
	GetAdmin(ctx context.Context, id uint) (domain.Admin, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleLogin godoc
// @Summary      Login an admin
// @Tags         auth
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	admin, err := h.svc.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleLogin -> h.svc.Login", err)

		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), admin.ID, ctx.Request.UserAgent())
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken() -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		Admin: admin,
	})
}

// HandleCreateAdmin godoc
// @Summary      Create another admin
// @Tags         auth
// @Produce      json
// @Param        request   body      request.CreateAdminRequest true "request body"
// @Success      201      {object}   domain.Admin
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /admin/admins [post]
// @Security     BearerAuth
func (h *AuthHandler) HandleCreateAdmin(ctx *gin.Context) {
	var req request.CreateAdminRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	admin, err := h.svc.CreateAdmin(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateAdmin -> h.svc.CreateAdmin", err)
		return
	}

	ctx.JSON(http.StatusCreated, admin)
}

// HandleMe godoc
// @Summary      Current admin
// @Tags         auth
// @Produce      json
// @Success      200      {object}   domain.Admin
// @Failure      401      {object}   response.Err
// @Router       /admin/me [get]
// @Security     BearerAuth
func (h *AuthHandler) HandleMe(ctx *gin.Context) {
	admin, err := h.svc.GetAdmin(ctx.Request.Context(), ctx.GetUint(middleware.ContextAdminID))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleMe -> h.svc.GetAdmin", err)
		return
	}

	ctx.JSON(http.StatusOK, admin)
}
