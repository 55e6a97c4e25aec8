package appointment

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/glamparlor/booking-api/internal/model"
	apperrors "github.com/glamparlor/booking-api/pkg/errors"
	"github.com/glamparlor/booking-api/pkg/httputil"
)

// Booker is the reservation surface the handler depends on.
type Booker interface {
	Reserve(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ListByDate(ctx context.Context, date string) ([]*model.Appointment, error)
}

type Handler struct {
	service Booker
}

func NewHandler(service Booker) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, bindError(err))
		return
	}

	// The header wins over the body field so curl retries stay simple.
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	appt, err := h.service.Reserve(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.ValidationField("id", "must be a valid appointment id"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.ValidationField("date", "is required"))
		return
	}

	appts, err := h.service.ListByDate(c.Request.Context(), date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, appts)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/appointments", h.CreateAppointment)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/appointments", h.ListAppointments)
	r.DELETE("/appointments/:id", h.CancelAppointment)
}

// bindError flattens gin's binding failure into field-level reasons so the
// client sees the same error shape whether binding or business validation
// rejected the request.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				fields[jsonField(fe.Field())] = "is required"
			default:
				fields[jsonField(fe.Field())] = "is invalid"
			}
		}
		return apperrors.Validation(fields)
	}
	return apperrors.ValidationField("body", "must be valid JSON")
}

func jsonField(structField string) string {
	switch structField {
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Phone":
		return "phone"
	case "Date":
		return "date"
	case "Time":
		return "time"
	case "Message":
		return "message"
	default:
		return structField
	}
}
