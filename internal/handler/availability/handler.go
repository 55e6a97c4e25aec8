package availability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glamparlor/booking-api/internal/model"
	apperrors "github.com/glamparlor/booking-api/pkg/errors"
	"github.com/glamparlor/booking-api/pkg/httputil"
)

type Resolver interface {
	Resolve(ctx context.Context, date string) ([]model.Slot, error)
}

type Handler struct {
	resolver Resolver
}

func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func (h *Handler) GetAvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.ValidationField("date", "is required"))
		return
	}

	slots, err := h.resolver.Resolve(c.Request.Context(), date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/available-slots", h.GetAvailableSlots)
}
