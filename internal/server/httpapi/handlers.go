package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avigen/faceguard/internal/faceerr"
	"github.com/avigen/faceguard/internal/logging"
	"github.com/avigen/faceguard/internal/models"
)

// AuthService is the login surface the API consumes.
type AuthService interface {
	Login(ctx context.Context, id, password string) (string, error)
}

// ProfileService is the profile surface the API consumes.
type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateFace(ctx context.Context, id, imageURL string, features []float64) error
	UploadFaceImage(ctx context.Context, id string, image []byte) (string, error)
}

type Handler struct {
	auth     AuthService
	profiles ProfileService
	log      logging.Logger
}

func NewHandler(auth AuthService, profiles ProfileService, log logging.Logger) *Handler {
	return &Handler{auth: auth, profiles: profiles, log: log.With("component", "httpapi")}
}

// writeError maps the sentinel taxonomy onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	h.log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)

	switch {
	case errors.Is(err, faceerr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, faceerr.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, faceerr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, faceerr.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		ID       string `json:"id" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info(c.Request.Context(), "login", "id", req.ID)
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateFace(c *gin.Context) {
	var req struct {
		FaceRegistered bool      `json:"face_registered"`
		FaceImageURL   string    `json:"face_image_url"`
		FacialFeatures []float64 `json:"facial_features"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.UpdateFace(c.Request.Context(), c.Param("id"), req.FaceImageURL, req.FacialFeatures); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) UploadFaceImage(c *gin.Context) {
	var req struct {
		Image string `json:"image" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64"})
		return
	}

	url, err := h.profiles.UploadFaceImage(c.Request.Context(), c.Param("id"), image)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
