package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/docs"
	v1 "github.com/powerpix/powerpix-api/internal/api/handler/v1"
	"github.com/powerpix/powerpix-api/internal/api/middleware"
	"github.com/powerpix/powerpix-api/internal/config"
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/service"
)

// Externals are the remote systems the services talk to. Dedup may be nil.
type Externals struct {
	Gateway service.PaymentGateway
	Results service.ResultsFeed
	Dedup   service.Deduper
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	Ledger   *service.LedgerService
	Pricing  *service.PricingService
	Payments *service.PaymentService
	Results  *service.ResultsService
	Auth     *service.AuthService
	Events   *v1.EventsHandler
}

func NewServer(conf *config.AppConfig, stores Stores, ext Externals) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	defaults, err := conf.Pricing.Defaults()
	if err != nil {
		zap.L().Warn("invalid pricing defaults, using built-in price", zap.Error(err))
		defaults = domain.DefaultPriceConfig()
	}

	s.Ledger = service.NewLedgerService(stores.Ledger)
	s.Pricing = service.NewPricingService(stores.Prices, defaults)
	s.Auth = service.NewAuthService(stores.Admins)
	s.Payments = service.NewPaymentService(stores.Ledger, s.Ledger, ext.Gateway, stores.Events, ext.Dedup)
	s.Results = service.NewResultsService(ext.Results)

	accounts := service.NewAccountService(stores.Accounts, stores.Bets, s.Ledger)
	contests := service.NewContestService(stores.Rounds, stores.Bets, accounts, s.Ledger, s.Pricing)
	settlement := service.NewSettlementService(contests, stores.Bets, s.Ledger, conf.Settlement.Concurrency)
	deposits := service.NewDepositService(accounts, s.Ledger, ext.Gateway)

	s.Events = v1.NewEventsHandler(accounts, conf.API.JWTSigningKey, conf.API.AllowedCORSDomains)
	s.Ledger.SetPublisher(s.Events)

	s.MountMiddlewares()
	s.MountHandlers(
		v1.NewAuthHandler(conf.API, s.Auth),
		v1.NewAccountHandler(accounts, deposits),
		v1.NewContestHandler(contests, settlement),
		v1.NewPricingHandler(s.Pricing),
		v1.NewWebhookHandler(conf.Gateway.WebhookToken, s.Payments),
		v1.NewResultsHandler(s.Results),
		s.Events,
	)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	accountHandler *v1.AccountHandler,
	contestHandler *v1.ContestHandler,
	pricingHandler *v1.PricingHandler,
	webhookHandler *v1.WebhookHandler,
	resultsHandler *v1.ResultsHandler,
	eventsHandler *v1.EventsHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/login", authHandler.HandleLogin)

		public.POST("/accounts", accountHandler.HandleRegister)
		public.GET("/accounts/:externalID", accountHandler.HandleGetAccount)
		public.PUT("/accounts/:externalID/profile", accountHandler.HandleUpdateProfile)
		public.GET("/accounts/:externalID/balance", accountHandler.HandleBalance)
		public.GET("/accounts/:externalID/history", accountHandler.HandleHistory)
		public.GET("/accounts/:externalID/stats", accountHandler.HandleStats)
		public.GET("/accounts/:externalID/bets", accountHandler.HandlePlayerBets)
		public.POST("/accounts/:externalID/deposits", accountHandler.HandleDeposit)

		public.POST("/bets", contestHandler.HandlePlaceBet)
		public.GET("/contests", contestHandler.HandleListContests)
		public.GET("/contests/:contestID", contestHandler.HandleGetContest)
		public.GET("/draws/current", contestHandler.HandleCurrentDraw)

		public.GET("/price", pricingHandler.HandleCurrentPrice)
		public.GET("/results/latest", resultsHandler.HandleLatest)
		public.POST("/webhooks/asaas", webhookHandler.HandleAsaas)
		public.GET("/events/:externalID", eventsHandler.HandleEvents)
	}

	admin := s.Router.Group(basePath+"/admin", middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		admin.GET("/me", authHandler.HandleMe)
		admin.POST("/admins", authHandler.HandleCreateAdmin)

		admin.POST("/contests", contestHandler.HandleCreateContest)
		admin.PATCH("/contests/:contestID", contestHandler.HandleUpdateContest)
		admin.POST("/contests/:contestID/activate", contestHandler.HandleActivateContest)
		admin.POST("/contests/:contestID/deactivate", contestHandler.HandleDeactivateContest)
		admin.POST("/contests/:contestID/settle", contestHandler.HandleSettleContest)
		admin.GET("/contests/:contestID/bets", contestHandler.HandleContestBets)

		admin.POST("/draws", contestHandler.HandleCreateDraw)
		admin.POST("/draws/:drawID/settle", contestHandler.HandleSettleDraw)
		admin.GET("/dashboard", contestHandler.HandleDashboard)

		admin.GET("/price", pricingHandler.HandleGetPriceConfig)
		admin.PUT("/price", pricingHandler.HandleUpdatePriceConfig)

		admin.POST("/accounts/:externalID/archive", accountHandler.HandleArchive)
		admin.POST("/accounts/:externalID/feed-token", eventsHandler.HandleFeedToken)
		admin.GET("/webhooks", webhookHandler.HandleRecentEvents)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "PowerPix API"
	docs.SwaggerInfo.Description = "Numbers lottery with a prepaid PIX wallet."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
