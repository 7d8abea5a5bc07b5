package router

import (
	"context"
	"net/http"

	"backoffice/config"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/handler"
	"backoffice/internal/middleware"
	"backoffice/internal/pkg/lock"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/ws"
	"backoffice/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers into the engine. Background
// work (chat room polling, rate limiter cleanup) stops when ctx ends. cloud may
// be nil when uploads are not configured.
func Setup(ctx context.Context, cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, log zerolog.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)))

	// Repositories
	agentRepo := repository.NewAgentRepository(db)
	tagRepo := repository.NewCompanyTagRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	chatRepo := repository.NewChatRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db, lock.New())
	auditRepo := repository.NewAuditLogRepository(db)

	qc := cache.New(cache.Options{
		StaleTime:   cfg.Cache.StaleTimeFor,
		ReadRetries: cfg.Cache.ReadRetries,
	}, log)
	chatHub := ws.NewChatHub()

	// Services
	format := service.NewFormatter(cfg.Display)
	stores := service.NewStores(db)
	requestSvc := service.NewRequestService(stores, agentRepo, tagRepo, ledgerRepo, auditRepo, qc, format, cfg.Listing, log)
	rechargeSvc := service.NewRechargeService(requestSvc, stores, cloud, cfg.Cloudinary.Folder, log)
	playerSvc := service.NewPlayerService(playerRepo, stores, qc, format, cfg.Listing, log)
	chatSvc := service.NewChatService(chatRepo, qc, chatHub, format, cfg.Cache.ChatPollInterval, log)
	dashboardSvc := service.NewDashboardService(stores, qc, log)
	agentSvc := service.NewAgentService(agentRepo, qc)
	chatSvc.StartRoomPolling(ctx)

	// Handlers
	requestHandler := handler.NewRequestHandler(requestSvc, rechargeSvc, tagRepo)
	playerHandler := handler.NewPlayerHandler(playerSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	agentHandler := handler.NewAgentHandler(agentSvc, dashboardSvc)

	authMw := middleware.SessionRequired(cfg.Session.JWTSecret)
	supportMw := middleware.RequireSection(domain.SectionSupport)
	agentMw := middleware.RequireAnySection()

	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authed := api.Group("")
		authed.Use(authMw)
		{
			authed.GET("/me", agentHandler.Me)
			authed.GET("/users", middleware.RequireRole(domain.RoleAdmin), agentHandler.Users)
			authed.GET("/home/:department", middleware.RequireSectionParam("department"), agentHandler.Home)
			authed.GET("/workflow/:type", agentMw, requestHandler.Workflow)

			// Transition endpoints check the transition's own section.
			authed.GET("/requests/:type/:id", agentMw, requestHandler.Get)
			authed.GET("/requests/:type/:id/history", agentMw, requestHandler.History)
			authed.POST("/requests/:type/:id/transitions/:transition", requestHandler.Transition)

			authed.GET("/company-tags", supportMw, requestHandler.CompanyTags)
			authed.POST("/recharge/:id/company-tag", supportMw, requestHandler.AssignCompanyTag)
			authed.POST("/recharge/:id/redeem", supportMw, requestHandler.AssignRedeem)
			authed.POST("/recharge/:id/screenshots", supportMw, requestHandler.UploadScreenshots)
		}

		for _, section := range domain.Sections {
			g := api.Group("/"+string(section), authMw, middleware.RequireSection(section))
			g.GET("/useractivity", requestHandler.UserActivity)
			g.GET("/useractivity/:tab", requestHandler.UserActivity)
			g.GET("/useractivity/:tab/:status", requestHandler.UserActivity)
		}

		support := api.Group("/support")
		support.Use(authMw, supportMw)
		{
			support.GET("/userlist", playerHandler.List)
			support.GET("/user/:userId", playerHandler.Get)
			support.PUT("/user/:userId/platform-usernames", playerHandler.UpsertPlatformUsername)
			support.GET("/chat/rooms", chatHandler.Rooms)
			support.GET("/chat/rooms/:roomId/messages", chatHandler.Messages)
			support.POST("/chat/rooms/:roomId/messages", chatHandler.Send)
		}
	}

	r.GET("/ws/chat", handler.UpgradeChatWS(cfg.Session.JWTSecret, chatHub, chatSvc, log))

	return r
}
