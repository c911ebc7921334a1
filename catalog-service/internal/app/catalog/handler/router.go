package handler

import (
	"net/http"

	"tgshop/pkg/logger"
	"tgshop/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes настраивает все маршруты Catalog Service с использованием Gin
// Все эндпоинты каталога требуют JWT владельца
func SetupRoutes(catalogHandler *CatalogHandler, authMiddleware *AuthMiddleware, syncLimiter *OwnerRateLimiter, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("catalog-service"))

	// CORS для витрины в Telegram Mini App
	router.Use(cors.New(corsConfig(allowedOrigins)))

	// Health check endpoint - публичный, без аутентификации
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "catalog-service",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	products := router.Group("/products")
	products.Use(authMiddleware.Authenticate())
	{
		products.GET("", catalogHandler.ListProducts) // ?shop_id= (без параметра - главный магазин)
		products.GET("/:id", catalogHandler.GetProduct)
		products.POST("", catalogHandler.CreateProduct)
		products.PUT("/:id", catalogHandler.UpdateProduct)
		products.DELETE("/:id", catalogHandler.DeleteProduct)

		// Полная сверка каталога по всем магазинам владельца
		products.POST("/sync-all", syncLimiter.Middleware(), catalogHandler.SyncAll)
	}

	categories := router.Group("/categories")
	categories.Use(authMiddleware.Authenticate())
	{
		categories.GET("", catalogHandler.ListCategories)
		categories.POST("", catalogHandler.CreateCategory)
		categories.PUT("/:id", catalogHandler.UpdateCategory)
		categories.DELETE("/:id", catalogHandler.DeleteCategory) // Удаляет и товары категории
	}

	shops := router.Group("/shops")
	shops.Use(authMiddleware.Authenticate())
	{
		shops.GET("", catalogHandler.ListShops)
		shops.POST("", catalogHandler.RegisterShop)
		shops.POST("/:id/deactivate", catalogHandler.DeactivateShop)
	}

	router.GET("/sync-runs", authMiddleware.Authenticate(), catalogHandler.ListSyncRuns)

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        300,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}

	cfg.AllowOrigins = allowedOrigins
	cfg.AllowCredentials = true
	return cfg
}
