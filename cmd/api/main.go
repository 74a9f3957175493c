package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "mdmportal/api/swagger" // swagger docs
	"mdmportal/internal/auth"
	"mdmportal/internal/config"
	"mdmportal/internal/database"
	"mdmportal/internal/handler"
	"mdmportal/internal/jobs"
	"mdmportal/internal/logger"
	"mdmportal/internal/middleware"
	"mdmportal/internal/model"
	"mdmportal/internal/repository"
	"mdmportal/internal/service"
	"mdmportal/internal/websocket"
	"mdmportal/pkg/authz"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           MDM Portal API
// @version         1.0
// @description     System of record for material master data, change requests and role-based access.
// @host            localhost:8000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Config: %v", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Logger: %v", err)
	}

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Info("Connected to PostgreSQL successfully.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live channel hub, fanned out through Redis when several API replicas run
	var broker *websocket.RedisBroker
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer rdb.Close()
		broker = websocket.NewRedisBroker(rdb, cfg.Redis.Prefix, log)
	}

	var wsHub *websocket.Hub
	if broker != nil {
		wsHub = websocket.NewHub(broker, log)
		go broker.Run(ctx, wsHub)
	} else {
		wsHub = websocket.NewHub(nil, log)
	}
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	materialRepo := repository.NewMasterDataRepository[model.Material](db, "mat_code")
	groupRepo := repository.NewMasterDataRepository[model.MaterialGroup](db, "mgrp_code")
	typeRepo := repository.NewMasterDataRepository[model.MaterialType](db, "mat_type_code")
	attributeRepo := repository.NewMasterDataRepository[model.MaterialAttribute](db, "mgrp_code")
	domainRepo := repository.NewMasterDataRepository[model.EmailDomain](db, "domain_name")
	supergroupRepo := repository.NewMasterDataRepository[model.Supergroup](db, "sgrp_code")
	validationRepo := repository.NewMasterDataRepository[model.ValidationList](db, "listname")

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	auditService := service.NewAuditService(auditRepo)
	permissionService := service.NewPermissionService(permissionRepo, txManager, auditService)
	employeeService := service.NewEmployeeService(employeeRepo, permissionRepo, txManager, auditService, tokens)
	requestService := service.NewRequestService(requestRepo, txManager, auditService, wsHub, log)
	searchService := service.NewSearchService(groupRepo)

	if err := permissionService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		log.Fatalf("Seeding roles and permissions failed: %v", err)
	}

	guard := middleware.NewGuard(tokens, permissionService, authz.NewEvaluator(), log)
	permissionService.OnChange(guard.ClearPermissionCache)

	pruner := jobs.NewAuditPruner(auditService, cfg.Audit.RetentionDays, cfg.Audit.PruneSchedule, log)
	if err := pruner.Start(); err != nil {
		log.Fatalf("Audit pruner: %v", err)
	}
	defer pruner.Stop()

	// Initialize Handlers
	employeeHandler := handler.NewEmployeeHandler(employeeService, permissionService, guard)
	permissionHandler := handler.NewPermissionHandler(permissionService, guard)
	requestHandler := handler.NewRequestHandler(requestService, guard)
	searchHandler := handler.NewSearchHandler(searchService)
	auditHandler := handler.NewAuditHandler(auditService, guard)

	// Set up Gin Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws/requests/:id/", websocket.ServeRequestRoom(wsHub, tokens, requestService))

	root := router.Group("")
	employeeHandler.RegisterRoutes(root)
	permissionHandler.RegisterRoutes(root)
	searchHandler.RegisterRoutes(root)
	requestHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)

	api := router.Group("/api")
	handler.NewMasterDataHandler("/materials", authz.ResourceMaterial,
		service.NewMasterDataService(service.MaterialEntity, materialRepo, txManager, auditService), guard).RegisterRoutes(api)
	handler.NewMasterDataHandler("/matgroups", authz.ResourceGroup,
		service.NewMasterDataService(service.MaterialGroupEntity, groupRepo, txManager, auditService), guard).RegisterRoutes(api)
	handler.NewMasterDataHandler("/mattypes", authz.ResourceType,
		service.NewMasterDataService(service.MaterialTypeEntity, typeRepo, txManager, auditService), guard).RegisterRoutes(api)
	handler.NewMasterDataHandler("/matattributes", authz.ResourceAttribute,
		service.NewMasterDataService(service.MaterialAttributeEntity, attributeRepo, txManager, auditService), guard).RegisterRoutes(api)
	handler.NewMasterDataHandler("/emaildomains", authz.ResourceEmail,
		service.NewMasterDataService(service.EmailDomainEntity, domainRepo, txManager, auditService), guard).RegisterRoutes(api)
	handler.NewMasterDataHandler("/supergroups", authz.ResourceSuper,
		service.NewMasterDataService(service.SupergroupEntity, supergroupRepo, txManager, auditService), guard).RegisterRoutes(api)
	handler.NewMasterDataHandler("/validationlists", authz.ResourceValidation,
		service.NewMasterDataService(service.ValidationListEntity, validationRepo, txManager, auditService), guard).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
}
