package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/glamparlor/booking-api/pkg/errors"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithError maps an application error to its HTTP status and body.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := ErrorBody{Message: "internal server error"}

	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Kind {
		case apperrors.KindValidation:
			status = http.StatusBadRequest
		case apperrors.KindConflict:
			status = http.StatusConflict
		case apperrors.KindNotFound:
			status = http.StatusNotFound
		case apperrors.KindTransientStore:
			status = http.StatusInternalServerError
		}
		body.Message = appErr.Message
		body.Fields = appErr.Fields
	}

	c.Error(err)
	c.JSON(status, body)
}
