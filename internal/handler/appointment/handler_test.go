package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glamparlor/booking-api/internal/model"
	apperrors "github.com/glamparlor/booking-api/pkg/errors"
)

type fakeBooker struct {
	reserveFn func(req *model.CreateAppointmentRequest) (*model.Appointment, error)
	cancelFn  func(id uuid.UUID) error
	lastReq   *model.CreateAppointmentRequest
}

func (f *fakeBooker) Reserve(_ context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	f.lastReq = req
	return f.reserveFn(req)
}

func (f *fakeBooker) Cancel(_ context.Context, id uuid.UUID) error {
	return f.cancelFn(id)
}

func (f *fakeBooker) ListByDate(_ context.Context, date string) ([]*model.Appointment, error) {
	return nil, nil
}

func setupRouter(booker *fakeBooker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(booker)
	h.RegisterRoutes(r.Group(""))
	h.RegisterAdminRoutes(r.Group("/admin"))
	return r
}

func postAppointment(r *gin.Engine, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"name":  "Dana",
		"email": "dana@example.com",
		"phone": "555-0101",
		"date":  "2025-06-16",
		"time":  "10:00",
	}
}

func TestCreateAppointmentCreated(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(req *model.CreateAppointmentRequest) (*model.Appointment, error) {
			return &model.Appointment{
				ID:       uuid.New(),
				Name:     req.Name,
				Date:     req.Date,
				SlotTime: req.Time,
				Status:   model.AppointmentStatusPending,
			}, nil
		},
	}
	r := setupRouter(booker)

	w := postAppointment(r, validBody(), nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var appt model.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appt))
	assert.Equal(t, "2025-06-16", appt.Date)
	assert.Equal(t, "10:00", appt.SlotTime)
}

func TestCreateAppointmentContactFieldsTakenAsGiven(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(req *model.CreateAppointmentRequest) (*model.Appointment, error) {
			return &model.Appointment{ID: uuid.New(), Email: req.Email}, nil
		},
	}
	r := setupRouter(booker)

	// Non-empty is the only contact requirement; no format check applies.
	body := validBody()
	body["email"] = "front desk, ask for Dana"
	body["phone"] = "ext. 12"
	w := postAppointment(r, body, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, booker.lastReq)
	assert.Equal(t, "front desk, ask for Dana", booker.lastReq.Email)
}

func TestCreateAppointmentConflict(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(*model.CreateAppointmentRequest) (*model.Appointment, error) {
			return nil, apperrors.Conflict("slot already booked")
		},
	}
	r := setupRouter(booker)

	w := postAppointment(r, validBody(), nil)

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "slot already booked", body["message"])
}

func TestCreateAppointmentMissingFields(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(*model.CreateAppointmentRequest) (*model.Appointment, error) {
			t.Fatal("service must not be called on a binding failure")
			return nil, nil
		},
	}
	r := setupRouter(booker)

	body := validBody()
	delete(body, "email")
	w := postAppointment(r, body, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "email")
}

func TestCreateAppointmentValidationFields(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(*model.CreateAppointmentRequest) (*model.Appointment, error) {
			return nil, apperrors.ValidationField("date", "closed day")
		},
	}
	r := setupRouter(booker)

	w := postAppointment(r, validBody(), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "closed day", resp.Fields["date"])
}

func TestCreateAppointmentIdempotencyHeader(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(req *model.CreateAppointmentRequest) (*model.Appointment, error) {
			return &model.Appointment{ID: uuid.New()}, nil
		},
	}
	r := setupRouter(booker)

	postAppointment(r, validBody(), map[string]string{"Idempotency-Key": "retry-7c2f"})

	require.NotNil(t, booker.lastReq)
	assert.Equal(t, "retry-7c2f", booker.lastReq.IdempotencyKey)
}

func TestCreateAppointmentStoreFailure(t *testing.T) {
	booker := &fakeBooker{
		reserveFn: func(*model.CreateAppointmentRequest) (*model.Appointment, error) {
			return nil, apperrors.TransientStore(assert.AnError)
		},
	}
	r := setupRouter(booker)

	w := postAppointment(r, validBody(), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCancelAppointment(t *testing.T) {
	id := uuid.New()
	booker := &fakeBooker{
		cancelFn: func(got uuid.UUID) error {
			assert.Equal(t, id, got)
			return nil
		},
	}
	r := setupRouter(booker)

	req := httptest.NewRequest(http.MethodDelete, "/admin/appointments/"+id.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCancelAppointmentBadID(t *testing.T) {
	booker := &fakeBooker{
		cancelFn: func(uuid.UUID) error {
			t.Fatal("service must not be called with a malformed id")
			return nil
		},
	}
	r := setupRouter(booker)

	req := httptest.NewRequest(http.MethodDelete, "/admin/appointments/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAppointmentNotFound(t *testing.T) {
	booker := &fakeBooker{
		cancelFn: func(uuid.UUID) error {
			return apperrors.NotFound("appointment")
		},
	}
	r := setupRouter(booker)

	req := httptest.NewRequest(http.MethodDelete, "/admin/appointments/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
