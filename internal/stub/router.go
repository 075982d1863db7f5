package stub

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "stub_user_id"

// NewRouter creates and configures the stub backend's Gin router. Routes
// mirror the gym platform API the client SDK talks to.
func NewRouter(repo *Repo, logger *zap.Logger, environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Public catalog routes
		api.GET("/products", handleListProducts(repo, logger))
		api.GET("/equipments", handleListEquipment(repo, logger))
		api.GET("/sessions", handleListSessions(repo, logger))

		// Authenticated routes
		authed := api.Group("")
		authed.Use(authMiddleware(repo, logger))
		{
			authed.GET("/cart/cart", handleGetCart(repo, logger))
			authed.POST("/cart/cart/add", handleAddCartItem(repo, logger))
			authed.PUT("/cart/cart/update/:id", handleUpdateCartItem(repo, logger))
			authed.DELETE("/cart/cart/remove/:id", handleRemoveCartItem(repo, logger))

			authed.GET("/session-cart/", handleGetSessionCart(repo, logger))
			authed.POST("/session-cart/add", handleAddSession(repo, logger))
			authed.DELETE("/session-cart/remove/:id", handleRemoveSession(repo, logger))
			authed.DELETE("/session-cart/clear", handleClearSessionCart(repo, logger))

			authed.POST("/products/:id/ratings", handleAddRating(repo, logger))
		}
	}

	return router
}

// authMiddleware resolves the bearer token to a user id.
func authMiddleware(repo *Repo, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}

		userID, err := repo.UserIDForToken(c.Request.Context(), token)
		if err != nil {
			logger.Warn("rejected token", zap.Error(err))
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
