package router

import (
	"time"

	"supplytrack/internal/config"
	"supplytrack/internal/handler"
	"supplytrack/internal/middleware"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"
	"supplytrack/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// rdb and mailer may be nil: lookups then skip the cache, rate limits are kept
// in process memory, and sending purchase orders answers 503.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer service.OrderMailer) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	supplyRepo := repository.NewSupplyRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	lookupTTL := time.Duration(cfg.LookupCacheTTLSeconds) * time.Second
	lookupSvc := service.NewLookupService(categoryRepo, tagRepo, rdb, lookupTTL)
	authSvc := service.NewAuthService(userRepo, cfg)
	categorySvc := service.NewCategoryService(categoryRepo, lookupSvc)
	tagSvc := service.NewTagService(tagRepo, lookupSvc)
	supplySvc := service.NewSupplyService(supplyRepo, categoryRepo, tagRepo, auditRepo)
	supplierSvc := service.NewSupplierService(supplierRepo)
	orderSvc := service.NewPurchaseOrderService(orderRepo, supplierRepo, supplyRepo, auditRepo, mailer, cfg.CompanyName)
	auditSvc := service.NewAuditService(auditRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	suppliesH := handler.NewSuppliesHandler(supplySvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc, lookupSvc)
	tagsH := handler.NewTagsHandler(tagSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	ordersH := handler.NewPurchaseOrdersHandler(orderSvc)
	auditH := handler.NewAuditLogsHandler(auditSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(rdb, cfg.LoginRateLimitPerMinute), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes: every authenticated role may read, editors write.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	editor := middleware.RequireRole(model.RoleEditor)
	{
		v1.GET("/auth/me", authH.Me)
		v1.GET("/lookups", categoriesH.Lookups)
		v1.GET("/audit-logs", auditH.List)

		supplies := v1.Group("/supplies")
		{
			supplies.GET("", suppliesH.List)
			supplies.GET("/low-stock", suppliesH.LowStock)
			supplies.GET("/export", suppliesH.Export)
			supplies.GET("/import/template", suppliesH.ImportTemplate)
			supplies.GET("/:id", suppliesH.Get)
			supplies.POST("", editor, suppliesH.Create)
			supplies.POST("/import", editor, suppliesH.ImportBulk)
			supplies.PUT("/:id", editor, suppliesH.Update)
			supplies.DELETE("/:id", editor, suppliesH.Delete)
			supplies.POST("/:id/import", editor, suppliesH.ImportForSupply)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoriesH.List)
			categories.GET("/:id", categoriesH.Get)
			categories.POST("", editor, categoriesH.Create)
			categories.PUT("/:id", editor, categoriesH.Update)
			categories.DELETE("/:id", editor, categoriesH.Delete)
		}

		tags := v1.Group("/tags")
		{
			tags.GET("", tagsH.List)
			tags.GET("/:id", tagsH.Get)
			tags.POST("", editor, tagsH.Create)
			tags.PUT("/:id", editor, tagsH.Update)
			tags.DELETE("/:id", editor, tagsH.Delete)
		}

		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.POST("", editor, suppliersH.Create)
			suppliers.PUT("/:id", editor, suppliersH.Update)
			suppliers.DELETE("/:id", editor, suppliersH.Delete)
		}

		orders := v1.Group("/purchase-orders")
		{
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.GET("/:id/pdf", ordersH.PDF)
			orders.POST("", editor, ordersH.Create)
			orders.POST("/:id/items", editor, ordersH.AddItem)
			orders.PUT("/:id/items/:item_id", editor, ordersH.UpdateItem)
			orders.DELETE("/:id/items/:item_id", editor, ordersH.RemoveItem)
			orders.POST("/:id/status", editor, ordersH.UpdateStatus)
			orders.POST("/:id/payment-status", editor, ordersH.UpdatePaymentStatus)
			orders.POST("/:id/send", editor, ordersH.Send)
		}

		users := v1.Group("/users", middleware.RequireRole(model.RoleAdmin))
		{
			users.GET("", usersH.List)
			users.POST("", usersH.Create)
			users.GET("/:id", usersH.Get)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Delete)
		}
	}

	// Swagger UI — development only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
