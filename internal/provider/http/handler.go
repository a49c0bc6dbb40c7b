package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/servicehub-backend/internal/auth"
	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/logger"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/request"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/response"
	"github.com/nekogravitycat/servicehub-backend/internal/provider"
	"go.uber.org/zap"
)

type Handler struct {
	service       provider.Service
	maxPhotoBytes int64
}

func NewHandler(service provider.Service, maxPhotoBytes int64) *Handler {
	return &Handler{
		service:       service,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// List returns providers, optionally only those offering a category.
func (h *Handler) List(c *gin.Context) {
	var req ListProvidersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}

	providers, total, err := h.service.List(c.Request.Context(), provider.Filter{
		Category: req.Category,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPage(providers, NewProviderResponse, req.ListParams, total))
}

// Get returns one provider profile.
func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid provider id", err)
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProviderResponse(p))
}

// Mine returns the caller's own profile.
func (h *Handler) Mine(c *gin.Context) {
	p, err := h.service.GetByUserID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProviderResponse(p))
}

// Upsert creates or updates the caller's profile.
func (h *Handler) Upsert(c *gin.Context) {
	var body UpsertProviderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	p, err := h.service.Upsert(c.Request.Context(), auth.GetUserID(c), body.ToDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProviderResponse(p))
}

// SetDay replaces the slots of a single weekday.
func (h *Handler) SetDay(c *gin.Context) {
	var body SetDayRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	p, err := h.service.SetDayAvailability(c.Request.Context(), auth.GetUserID(c), availability.Day{
		Day:   body.Day,
		Slots: body.Slots,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProviderResponse(p))
}

// UploadPhoto accepts a multipart "photo" field and stores it with a thumbnail.
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.maxPhotoBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoBytes)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponse{
				Error: "photo is too large",
				Kind:  provider.ErrInvalidPhoto.Kind,
			})
			return
		}
		response.BadRequest(c, "photo is required", err)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	p, err := h.service.UploadPhoto(c.Request.Context(), auth.GetUserID(c), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProviderResponse(p))
}

// ServePhoto streams the provider photo.
func (h *Handler) ServePhoto(c *gin.Context) {
	h.servePhoto(c, false)
}

// ServeThumbnail streams the provider photo thumbnail.
func (h *Handler) ServeThumbnail(c *gin.Context) {
	h.servePhoto(c, true)
}

func (h *Handler) servePhoto(c *gin.Context, thumbnail bool) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid provider id", err)
		return
	}

	stream, err := h.service.OpenPhoto(c.Request.Context(), req.ID, thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// Photos are always re-encoded as JPEG on upload.
	c.Header("Content-Type", "image/jpeg")
	c.Header("Cache-Control", "public, max-age=300")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// Response already started.
		logger.FromContext(c).Warn("photo stream interrupted", zap.String("provider_id", req.ID), zap.Error(err))
	}
}
