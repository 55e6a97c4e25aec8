package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authservice "github.com/glamparlor/booking-api/internal/service/auth"
)

type fakeAuthenticator struct {
	startFn    func(email, password string) (string, error)
	completeFn func(email, code string) (string, error)
}

func (f *fakeAuthenticator) StartLogin(_ context.Context, email, password string) (string, error) {
	return f.startFn(email, password)
}

func (f *fakeAuthenticator) CompleteLogin(_ context.Context, email, code string) (string, error) {
	return f.completeFn(email, code)
}

type fakeSender struct {
	to, code string
	err      error
}

func (f *fakeSender) SendVerificationCode(to, code string) error {
	f.to, f.code = to, code
	return f.err
}

func setupRouter(svc *fakeAuthenticator, sender *fakeSender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, sender).RegisterRoutes(r.Group(""))
	return r
}

func post(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginSendsCode(t *testing.T) {
	svc := &fakeAuthenticator{
		startFn: func(email, password string) (string, error) {
			assert.Equal(t, "owner@glamparlor.example", email)
			assert.Equal(t, "opensesame", password)
			return "482913", nil
		},
	}
	sender := &fakeSender{}
	r := setupRouter(svc, sender)

	w := post(r, "/auth/login", gin.H{"email": "owner@glamparlor.example", "password": "opensesame"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "owner@glamparlor.example", sender.to)
	assert.Equal(t, "482913", sender.code)
	assert.NotContains(t, w.Body.String(), "482913", "the code must not leak into the response")
}

func TestLoginWrongCredentials(t *testing.T) {
	svc := &fakeAuthenticator{
		startFn: func(string, string) (string, error) {
			return "", authservice.ErrInvalidCredentials
		},
	}
	sender := &fakeSender{}
	r := setupRouter(svc, sender)

	w := post(r, "/auth/login", gin.H{"email": "owner@glamparlor.example", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sender.to, "no mail goes out on failed credentials")
}

func TestLoginMissingFields(t *testing.T) {
	svc := &fakeAuthenticator{
		startFn: func(string, string) (string, error) {
			t.Fatal("service must not be called on a bad body")
			return "", nil
		},
	}
	r := setupRouter(svc, &fakeSender{})

	w := post(r, "/auth/login", gin.H{"email": "owner@glamparlor.example"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyReturnsToken(t *testing.T) {
	svc := &fakeAuthenticator{
		completeFn: func(email, code string) (string, error) {
			assert.Equal(t, "482913", code)
			return "signed.jwt.token", nil
		},
	}
	r := setupRouter(svc, &fakeSender{})

	w := post(r, "/auth/verify", gin.H{"email": "owner@glamparlor.example", "code": "482913"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp["token"])
}

func TestVerifyWrongCode(t *testing.T) {
	svc := &fakeAuthenticator{
		completeFn: func(string, string) (string, error) {
			return "", authservice.ErrInvalidCode
		},
	}
	r := setupRouter(svc, &fakeSender{})

	w := post(r, "/auth/verify", gin.H{"email": "owner@glamparlor.example", "code": "000000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
