package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/http/api/handlers"
	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/aurora-planner/aurora/internal/ratelimit"
	"github.com/aurora-planner/aurora/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies bundles the components the API routes are served from.
type Dependencies struct {
	DB       *gorm.DB
	Docs     handlers.DocumentStore
	Planner  *planner.Service
	Verifier handlers.CodeVerifier
	Limiter  *ratelimit.Manager
	JWT      config.JWTConfig
}

// RegisterRoutes registers the API routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	if r == nil || deps.DB == nil || deps.Docs == nil {
		return
	}

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	apiGroup := r.Group("/api")

	generateHandler := handlers.NewGenerateHandler(deps.Planner)
	apiGroup.POST("/generate_plan", generateRateLimitMiddleware(deps.Limiter, deps.JWT), generateHandler.Generate)

	planHandler := handlers.NewPlanHandler(deps.Docs)
	apiGroup.GET("/plans/:id", planHandler.Get)
	apiGroup.GET("/plans/:id/view", planHandler.View)

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Verifier, deps.JWT)
	apiGroup.POST("/auth/google", authHandler.LoginGoogle)
	apiGroup.POST("/auth/logout", authHandler.Logout)

	authed := apiGroup.Group("")
	authed.Use(userAuthMiddleware(deps.DB, deps.JWT))
	authed.GET("/me", authHandler.Me)

	savedPlanHandler := handlers.NewSavedPlanHandler(deps.Docs)
	authed.POST("/me/plans", savedPlanHandler.Create)
	authed.GET("/me/plans", savedPlanHandler.List)
	authed.DELETE("/me/plans/:id", savedPlanHandler.Delete)
}

// userAuthMiddleware validates user JWTs and loads the user into the context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).Where("id = ?", claims.UserID()).First(&user).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		c.Set(handlers.ContextUserKey, user)
		c.Next()
	}
}

// generateRateLimitMiddleware limits plan generation per signed-in user, or per
// client address for anonymous callers. Limiter failures let the request through.
func generateRateLimitMiddleware(limiter *ratelimit.Manager, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID := ""
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token); errJWT == nil {
				userID = claims.UserID()
			}
		}
		key := ratelimit.KeyForPlanGeneration(userID, c.ClientIP())

		result, errAllow := limiter.Allow(c.Request.Context(), key)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit check failed")
			c.Next()
			return
		}
		if !result.Allowed {
			if !result.Reset.IsZero() {
				retryAfter := int(time.Until(result.Reset).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Header("Retry-After", strconv.Itoa(retryAfter))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many plan requests. Please try again later."})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
