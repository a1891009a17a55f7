package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/luxor-photos/luxor/internal/favorites"
	"github.com/luxor-photos/luxor/internal/unsplash"
	"go.uber.org/zap"
)

// UserIDHeader scopes every favorites and search request to one anonymous owner.
const UserIDHeader = "X-User-ID"

const ownerContextKey = "luxor_owner_id"

var (
	errMissingFavoritesService = errors.New("favorites service dependency required")
	errMissingSearchClient     = errors.New("search client dependency required")
)

// FavoritesService exposes the persistence operations the router depends on.
type FavoritesService interface {
	List(ctx context.Context, ownerID favorites.OwnerID) ([]favorites.FavoriteRecord, error)
	Save(ctx context.Context, ownerID favorites.OwnerID, photo favorites.PhotoRecord) (favorites.FavoriteRecord, error)
	Remove(ctx context.Context, ownerID favorites.OwnerID, photoID favorites.PhotoID) error
}

// PhotoSearcher exposes the upstream photo search the router proxies.
type PhotoSearcher interface {
	Search(ctx context.Context, query string, page, perPage int) (unsplash.SearchResult, error)
}

// Dependencies bundles the collaborators required by the HTTP handler.
type Dependencies struct {
	FavoritesService FavoritesService
	SearchClient     PhotoSearcher
	DefaultPerPage   int
	Logger           *zap.Logger
}

// NewHTTPHandler builds the gin router serving the favorites and search API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.FavoritesService == nil {
		return nil, errMissingFavoritesService
	}
	if deps.SearchClient == nil {
		return nil, errMissingSearchClient
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defaultPerPage := deps.DefaultPerPage
	if defaultPerPage < 1 || defaultPerPage > unsplash.MaxPerPage {
		defaultPerPage = 10
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		favoritesService: deps.FavoritesService,
		searchClient:     deps.SearchClient,
		defaultPerPage:   defaultPerPage,
		logger:           logger,
	}

	router.GET("/health", handler.handleHealth)

	scoped := router.Group("/")
	scoped.Use(handler.requireOwnerID)
	scoped.GET("/favorites", handler.handleListFavorites)
	scoped.POST("/favorites", handler.handleCreateFavorite)
	scoped.DELETE("/favorites/:photoId", handler.handleDeleteFavorite)
	scoped.GET("/unsplash/search", handler.handleSearch)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{UserIDHeader, "Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

type httpHandler struct {
	favoritesService FavoritesService
	searchClient     PhotoSearcher
	defaultPerPage   int
	logger           *zap.Logger
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondFailure(c *gin.Context, status int, message, code string) {
	c.JSON(status, gin.H{"success": false, "message": message, "error": code})
}

// requireOwnerID rejects requests whose X-User-ID header is missing or is not
// a version-4 UUID, before any business logic runs.
func (h *httpHandler) requireOwnerID(c *gin.Context) {
	ownerID, err := favorites.NewOwnerID(c.GetHeader(UserIDHeader))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "missing or malformed " + UserIDHeader + " header",
			"error":   "invalid_user_id",
		})
		return
	}
	c.Set(ownerContextKey, ownerID.String())
	c.Next()
}

func (h *httpHandler) ownerID(c *gin.Context) (favorites.OwnerID, bool) {
	ownerID, err := favorites.NewOwnerID(c.GetString(ownerContextKey))
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "missing or malformed "+UserIDHeader+" header", "invalid_user_id")
		return "", false
	}
	return ownerID, true
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleListFavorites(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	records, err := h.favoritesService.List(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list favorites", zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, "failed to load favorites", "list_failed")
		return
	}

	respondData(c, http.StatusOK, records)
}

type createFavoritePayload struct {
	PhotoID   string          `json:"photo_id"`
	PhotoData json.RawMessage `json:"photo_data"`
}

func (h *httpHandler) handleCreateFavorite(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var payload createFavoritePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondFailure(c, http.StatusBadRequest, "request body must be JSON with photo_id and photo_data", "invalid_request")
		return
	}

	photo, err := favorites.ParsePhotoRecord(payload.PhotoID, payload.PhotoData)
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "photo payload is missing a usable photo id", "invalid_photo")
		return
	}

	record, err := h.favoritesService.Save(c.Request.Context(), ownerID, photo)
	if err != nil {
		h.logger.Error("failed to save favorite",
			zap.String("photo_id", photo.ID),
			zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, "failed to save favorite", "save_failed")
		return
	}

	respondData(c, http.StatusCreated, record)
}

func (h *httpHandler) handleDeleteFavorite(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	photoID, err := favorites.NewPhotoID(c.Param("photoId"))
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "photo id is missing or malformed", "invalid_photo_id")
		return
	}

	if err := h.favoritesService.Remove(c.Request.Context(), ownerID, photoID); err != nil {
		if errors.Is(err, favorites.ErrFavoriteNotFound) {
			respondFailure(c, http.StatusNotFound, "favorite not found", "not_found")
			return
		}
		h.logger.Error("failed to remove favorite",
			zap.String("photo_id", photoID.String()),
			zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, "failed to remove favorite", "remove_failed")
		return
	}

	respondData(c, http.StatusOK, gin.H{"photo_id": photoID.String()})
}

func (h *httpHandler) handleSearch(c *gin.Context) {
	if _, ok := h.ownerID(c); !ok {
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		respondFailure(c, http.StatusBadRequest, "query parameter is required", "invalid_query")
		return
	}

	page := parseIntOrDefault(c.Query("page"), 1)
	perPage := parseIntOrDefault(c.Query("per_page"), h.defaultPerPage)

	result, err := h.searchClient.Search(c.Request.Context(), query, page, perPage)
	if err != nil {
		h.logger.Error("photo search failed", zap.String("query", query), zap.Error(err))
		respondFailure(c, http.StatusBadGateway, "photo search is currently unavailable", "search_failed")
		return
	}

	respondData(c, http.StatusOK, result)
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
