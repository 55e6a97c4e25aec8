package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authservice "github.com/glamparlor/booking-api/internal/service/auth"
)

// Authenticator is the two-step login surface the handler depends on.
type Authenticator interface {
	StartLogin(ctx context.Context, email, password string) (string, error)
	CompleteLogin(ctx context.Context, email, code string) (string, error)
}

// CodeSender delivers a verification code out of band.
type CodeSender interface {
	SendVerificationCode(to, code string) error
}

type Handler struct {
	service Authenticator
	sender  CodeSender
}

func NewHandler(service Authenticator, sender CodeSender) *Handler {
	return &Handler{service: service, sender: sender}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// Login checks credentials and mails a verification code. The response
// carries no hint of whether delivery succeeded; the code never travels in
// band.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
		return
	}

	code, err := h.service.StartLogin(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, authservice.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	if err := h.sender.SendVerificationCode(req.Email, code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to deliver verification code"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent"})
}

// Verify exchanges the mailed code for a session token.
func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and code are required"})
		return
	}

	token, err := h.service.CompleteLogin(c.Request.Context(), req.Email, req.Code)
	if errors.Is(err, authservice.ErrInvalidCode) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired verification code"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/verify", h.Verify)
}
