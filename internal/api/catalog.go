package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/tunevault/internal/catalog"
	"github.com/lalith-99/tunevault/internal/middleware"
)

// CatalogHandler exposes the catalog core over HTTP. It does no
// authorization of its own — the identity from the middleware goes straight
// into the service and the policy engine decides everything.
type CatalogHandler struct {
	svc              *catalog.Service
	recommendDefault int
	logger           *zap.Logger
}

func NewCatalogHandler(svc *catalog.Service, recommendDefault int, logger *zap.Logger) *CatalogHandler {
	if recommendDefault <= 0 {
		recommendDefault = 6
	}
	return &CatalogHandler{svc: svc, recommendDefault: recommendDefault, logger: logger}
}

// insertSongRequest is the expected JSON body for POST /v1/songs.
// Tenant and owner are never part of it — they come from the token.
type insertSongRequest struct {
	Title     string  `json:"title" binding:"required"`
	Artist    string  `json:"artist" binding:"required"`
	Genre     string  `json:"genre" binding:"required"`
	Rating    float64 `json:"rating"`
	IsPremium bool    `json:"is_premium"`
}

// Insert handles POST /v1/songs
func (h *CatalogHandler) Insert(c *gin.Context) {
	var req insertSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	song, err := h.svc.InsertSong(c.Request.Context(), middleware.GetIdentity(c),
		req.Title, req.Artist, req.Genre, req.Rating, req.IsPremium)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, song)
}

// List handles GET /v1/songs?limit=N
func (h *CatalogHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	songs, err := h.svc.List(c.Request.Context(), middleware.GetIdentity(c), limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, songs)
}

// Search handles GET /v1/songs/search?q=term
func (h *CatalogHandler) Search(c *gin.Context) {
	songs, err := h.svc.Search(c.Request.Context(), middleware.GetIdentity(c), c.Query("q"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, songs)
}

// GenreCounts handles GET /v1/genres/counts (listener dashboard).
func (h *CatalogHandler) GenreCounts(c *gin.Context) {
	counts, err := h.svc.GenreCounts(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// GenreRatings handles GET /v1/dashboard/genre-ratings (uploader dashboard).
func (h *CatalogHandler) GenreRatings(c *gin.Context) {
	ratings, err := h.svc.AvgRatingPerGenre(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ratings)
}

// Recommend handles GET /v1/recommendations?n=N
func (h *CatalogHandler) Recommend(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", strconv.Itoa(h.recommendDefault)))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
		return
	}

	songs, err := h.svc.Recommend(c.Request.Context(), middleware.GetIdentity(c), n)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, songs)
}
