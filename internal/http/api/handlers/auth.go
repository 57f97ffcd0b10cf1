package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/config"
	"github.com/aurora-planner/aurora/internal/db"
	"github.com/aurora-planner/aurora/internal/identity"
	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContextUserKey holds the authenticated models.User in the gin context.
const ContextUserKey = "user"

// CodeVerifier exchanges a Google authorization code for a profile.
type CodeVerifier interface {
	Configured() bool
	VerifyCode(ctx context.Context, code string) (identity.Profile, error)
}

// AuthHandler serves Google sign-in and the current user.
type AuthHandler struct {
	db       *gorm.DB
	verifier CodeVerifier
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(conn *gorm.DB, verifier CodeVerifier, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: conn, verifier: verifier, jwtCfg: jwtCfg, now: time.Now}
}

// googleLoginRequest defines the request body for Google sign-in.
type googleLoginRequest struct {
	Code string `json:"code"`
}

// LoginGoogle verifies the code, upserts the user and issues a session token.
func (h *AuthHandler) LoginGoogle(c *gin.Context) {
	var body googleLoginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	code := strings.TrimSpace(body.Code)
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	if h.verifier == nil || !h.verifier.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sign-in is not configured"})
		return
	}
	if strings.TrimSpace(h.jwtCfg.Secret) == "" {
		log.Error("google login: jwt secret is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	profile, errVerify := h.verifier.VerifyCode(c.Request.Context(), code)
	if errVerify != nil {
		switch {
		case errors.Is(errVerify, identity.ErrInvalidCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		case errors.Is(errVerify, identity.ErrUnverifiedEmail):
			c.JSON(http.StatusForbidden, gin.H{"error": "email not verified"})
		default:
			log.WithError(errVerify).Error("google login: verify code failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "google sign-in unavailable"})
		}
		return
	}

	user, errUpsert := h.upsertUser(c.Request.Context(), profile)
	if errUpsert != nil {
		log.WithError(errUpsert).Error("google login: upsert user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}

	token, errToken := security.GenerateUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, user.ID, user.Email, h.now())
	if errToken != nil {
		log.WithError(errToken).Error("google login: issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userJSON(user)})
}

// Logout acknowledges a sign-out. Tokens are stateless; the client discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}

// upsertUser retries once when a concurrent first sign-in inserted the same account.
func (h *AuthHandler) upsertUser(ctx context.Context, profile identity.Profile) (models.User, error) {
	user, err := h.upsertUserOnce(ctx, profile)
	if db.IsUniqueViolation(err) {
		user, err = h.upsertUserOnce(ctx, profile)
	}
	return user, err
}

func (h *AuthHandler) upsertUserOnce(ctx context.Context, profile identity.Profile) (models.User, error) {
	var user models.User
	errTx := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("google_sub = ?", profile.Subject).First(&user).Error
		switch {
		case errFind == nil:
			return tx.Model(&user).Updates(map[string]any{
				"email":      profile.Email,
				"name":       profile.Name,
				"avatar_url": profile.AvatarURL,
				"updated_at": h.now().UTC(),
			}).Error
		case errors.Is(errFind, gorm.ErrRecordNotFound):
			now := h.now().UTC()
			user = models.User{
				ID:        uuid.NewString(),
				GoogleSub: profile.Subject,
				Email:     profile.Email,
				Name:      profile.Name,
				AvatarURL: profile.AvatarURL,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&user).Error
		default:
			return errFind
		}
	})
	if errTx != nil {
		return models.User{}, errTx
	}
	user.Email = profile.Email
	user.Name = profile.Name
	user.AvatarURL = profile.AvatarURL
	return user, nil
}

// CurrentUser returns the user loaded by the auth middleware.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func userJSON(user models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"avatarUrl": user.AvatarURL,
	}
}
