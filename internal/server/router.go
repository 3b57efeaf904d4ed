// Package server assembles the catalog services and HTTP routes.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"bookcatalog/internal/handlers"
	"bookcatalog/internal/middleware"
	"bookcatalog/internal/services"
)

// Options tune the router for the environment it runs in.
type Options struct {
	// AllowedOrigins lists the origins answered with CORS headers. "*" allows any.
	AllowedOrigins []string
	// Ping reports database health for /api/health. Nil skips the check.
	Ping func(ctx context.Context) error
	// Swagger mounts the API docs under /swagger.
	Swagger bool
	// RequestLogging logs every request through zap.
	RequestLogging bool
}

// NewRouter builds the services on db and wires every route. It fails when
// the stored genre hierarchy cannot be loaded.
func NewRouter(db *gorm.DB, opts Options) (*gin.Engine, error) {
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	genreService, err := services.NewGenreService(db)
	if err != nil {
		return nil, err
	}
	partnerService := services.NewPartnerService(db)
	productService := services.NewProductService(db)

	authHandler := handlers.NewAuthHandler(userService, auditService)
	genreHandler := handlers.NewGenreHandler(genreService, auditService)
	partnerHandler := handlers.NewPartnerHandler(partnerService, auditService)
	productHandler := handlers.NewProductHandler(productService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(cors(opts.AllowedOrigins))

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", health(opts.Ping))

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/isbn/validate", handlers.ValidateISBN)

	v1.GET("/genres", genreHandler.ListGenres)
	v1.GET("/genres/roots", genreHandler.GetRootGenres)
	v1.GET("/genres/:id", genreHandler.GetGenre)
	v1.GET("/genres/:id/children", genreHandler.GetChildren)
	v1.GET("/genres/:id/ancestors", genreHandler.GetAncestors)
	v1.GET("/genres/:id/products", genreHandler.GetGenreProducts)

	v1.GET("/partners", partnerHandler.ListPartners)
	v1.GET("/partners/:id", partnerHandler.GetPartner)
	v1.GET("/partners/:id/authored", partnerHandler.GetAuthoredProducts)
	v1.GET("/partners/:id/published", partnerHandler.GetPublishedProducts)

	v1.GET("/products", productHandler.ListProducts)
	v1.GET("/products/:id", productHandler.GetProduct)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	genres := protected.Group("/genres")
	genres.POST("", genreHandler.CreateGenre)
	genres.PUT("/:id", genreHandler.UpdateGenre)
	genres.DELETE("/:id", genreHandler.DeleteGenre)

	partners := protected.Group("/partners")
	partners.POST("", partnerHandler.CreatePartner)
	partners.PUT("/:id", partnerHandler.UpdatePartner)
	partners.DELETE("/:id", partnerHandler.DeletePartner)

	products := protected.Group("/products")
	products.POST("", productHandler.CreateProduct)
	products.PUT("/:id", productHandler.UpdateProduct)
	products.DELETE("/:id", productHandler.DeleteProduct)
	products.POST("/:id/check-isbn", productHandler.CheckISBN)
	products.PUT("/:id/publisher-country", productHandler.SetPublisherCountry)

	return router, nil
}

func cors(allowed []string) gin.HandlerFunc {
	allowAll := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || origins[origin]) {
			h := c.Writer.Header()
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
