package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stockcount/internal/auth"
	"stockcount/internal/config"
	"stockcount/internal/database"
	"stockcount/internal/handler"
	"stockcount/internal/logger"
	"stockcount/internal/middleware"
	"stockcount/internal/model"
	"stockcount/internal/repository"
	"stockcount/internal/service"
	"stockcount/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

// newApp loads configuration, connects to the database, migrates and seeds it
func newApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Development: !cfg.IsRelease(),
	})
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, db: db}
	if err := a.setup(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// setup migrates and seeds the database, closing the app when either step fails
func (a *app) setup(ctx context.Context) error {
	if err := database.Migrate(a.db.WithContext(ctx)); err != nil {
		a.close()
		return err
	}
	if err := a.seed(ctx); err != nil {
		a.close()
		return err
	}
	return nil
}

func (a *app) seed(ctx context.Context) error {
	roles := service.NewRoleService(repository.NewRoleRepository(a.db), repository.NewAuditRepository(a.db), repository.NewTransactionManager(a.db))
	return roles.SeedDefaultRolesAndPermissions(ctx)
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func (a *app) tokenIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer([]byte(a.cfg.JWT.Secret), a.cfg.JWT.AccessTTL)
}

func (a *app) userService() service.UserService {
	return service.NewUserService(
		repository.NewUserRepository(a.db),
		repository.NewRefreshTokenRepository(a.db),
		repository.NewRoleRepository(a.db),
		repository.NewAuditRepository(a.db),
		repository.NewTransactionManager(a.db),
		a.tokenIssuer(),
		a.cfg.JWT.RefreshTTL,
	)
}

func (a *app) createAdmin(ctx context.Context, username, email, password string) (*service.UserResponse, error) {
	if password == "" {
		return nil, errors.New("an admin password is required")
	}
	return a.userService().CreateUser(ctx, "", service.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight requests
func (a *app) serve(ctx context.Context) error {
	hub := websocket.NewHub(a.log)
	go hub.Run(ctx)

	router, err := a.router(hub)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", a.cfg.App.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// router wires repositories, services and handlers into a gin engine
func (a *app) router(hub *websocket.Hub) (*gin.Engine, error) {
	if a.cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := a.tokenIssuer()
	txManager := repository.NewTransactionManager(a.db)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(a.db)
	tokenRepo := repository.NewRefreshTokenRepository(a.db)
	roleRepo := repository.NewRoleRepository(a.db)
	auditRepo := repository.NewAuditRepository(a.db)
	inventoryRepo := repository.NewInventoryRepository(a.db)
	movementRepo := repository.NewMovementRepository(a.db)
	statisticsRepo := repository.NewStatisticsRepository(a.db)

	userService := service.NewUserService(userRepo, tokenRepo, roleRepo, auditRepo, txManager, tokens, a.cfg.JWT.RefreshTTL)
	roleService := service.NewRoleService(roleRepo, auditRepo, txManager)
	menuService, err := service.NewMenuService(roleRepo)
	if err != nil {
		return nil, err
	}
	inventoryService := service.NewInventoryService(inventoryRepo, auditRepo, txManager, hub)
	movementService := service.NewMovementService(movementRepo, auditRepo, txManager, hub)
	reconciliationService := service.NewReconciliationService(inventoryRepo, movementRepo, service.ReconciliationOptions{
		ExcludeIncomplete: a.cfg.Reconciliation.ExcludeIncomplete,
		BatchSize:         a.cfg.Reconciliation.SKUBatchSize,
	}, a.log)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	authz := middleware.NewAuthorizer(tokens, roleRepo, a.cfg.PermissionCacheTTL)
	limiter := middleware.NewRateLimiter(a.cfg.RateLimit.Attempts, a.cfg.RateLimit.Window, a.cfg.RateLimit.MaxClients)
	cookies := middleware.CookieConfig{
		Secure:     a.cfg.App.CookieSecure,
		AccessTTL:  a.cfg.JWT.AccessTTL,
		RefreshTTL: a.cfg.JWT.RefreshTTL,
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(a.log), middleware.Recovery(a.log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = a.cfg.App.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Retry-After"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": hub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c, tokens)
	})

	routes := router.Group("")
	handler.NewUserHandler(userService, authz, limiter, cookies).RegisterRoutes(routes)
	handler.NewRoleHandler(roleService, menuService, authz).RegisterRoutes(routes)
	handler.NewInventoryHandler(inventoryService, authz).RegisterRoutes(routes)
	handler.NewStatisticsHandler(statisticsService, authz).RegisterRoutes(routes)
	handler.NewMovementHandler(movementService, authz).RegisterRoutes(routes)
	handler.NewReconciliationHandler(reconciliationService, authz).RegisterRoutes(routes)
	handler.NewAuditHandler(auditService, authz).RegisterRoutes(routes)

	return router, nil
}
