package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const deviceIDContextKey = "hurvest_device_id"

var (
	errMissingStore         = errors.New("store dependency required")
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingSharedSyncKey = errors.New("shared sync key required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// SyncTokenManager is the slice of the token issuer the router needs.
type SyncTokenManager interface {
	IssueSyncToken(ctx context.Context, deviceID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies wires the HTTP surface to the store and the token
// issuer.
type Dependencies struct {
	Store        *Store
	TokenManager SyncTokenManager
	SyncKey      string
	Logger       *zap.Logger
}

// NewHTTPHandler builds the sync API: a sync-key token exchange plus
// the per-table record endpoints behind bearer authentication.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if strings.TrimSpace(deps.SyncKey) == "" {
		return nil, errMissingSharedSyncKey
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		store:   deps.Store,
		tokens:  deps.TokenManager,
		syncKey: deps.SyncKey,
		logger:  logger,
	}

	router.POST("/auth/token", handler.handleTokenExchange)

	protected := router.Group("/v1")
	protected.Use(handler.authorizeRequest)
	protected.POST("/:table", handler.handleUpsert)
	protected.DELETE("/:table/:id", handler.handleDelete)
	protected.GET("/:table", handler.handleListSince)

	return router, nil
}

type httpHandler struct {
	store   *Store
	tokens  SyncTokenManager
	syncKey string
	logger  *zap.Logger
}

type tokenRequestPayload struct {
	SyncKey  string `json:"sync_key"`
	DeviceID string `json:"device_id"`
}

type tokenResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleTokenExchange(c *gin.Context) {
	var request tokenRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.DeviceID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_payload", "message": "sync_key and device_id are required"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(request.SyncKey), []byte(h.syncKey)) != 1 {
		h.logger.Warn("sync key rejected", zap.String("device_id", request.DeviceID))
		c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "sync key rejected"})
		return
	}

	token, expiresIn, err := h.tokens.IssueSyncToken(c.Request.Context(), strings.TrimSpace(request.DeviceID))
	if err != nil {
		h.logger.Error("failed to issue sync token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "token_issue_failed", "message": "could not issue a sync token"})
		return
	}

	c.JSON(http.StatusOK, tokenResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) handleUpsert(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_payload", "message": "a record object is required"})
		return
	}

	stored, err := h.store.Upsert(c.Request.Context(), c.Param("table"), fields)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": stored})
}

func (h *httpHandler) handleDelete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("table"), c.Param("id")); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *httpHandler) handleListSince(c *gin.Context) {
	records, err := h.store.ListSince(c.Request.Context(), c.Param("table"), c.Query("updated_after"))
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": errInvalidAuthorization.Error()})
		return
	}
	deviceID, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "unauthorized"})
		return
	}
	c.Set(deviceIDContextKey, deviceID)
	c.Next()
}

func (h *httpHandler) writeStoreError(c *gin.Context, err error) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		c.JSON(rejection.Status, rejection)
		return
	}
	h.logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("device_id", c.GetString(deviceIDContextKey)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "message": "internal error"})
}
