package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/apierr"
	"github.com/KlimSani4/hydrocalc/internal/auth"
	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/models"
	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	log  *logger.Logger
	auth AuthService
}

func NewAuthHandler(log *logger.Logger, authService AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), auth: authService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AccountResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest is form-encoded; the email travels as "username".
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, bindingError(err))
		return
	}
	account, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateEmail):
			RespondError(c, h.log, apierr.DuplicateEmail(errors.New("a user with this email already exists")))
		case errors.Is(err, auth.ErrInvalidPassword):
			RespondError(c, h.log, apierr.Validation(err))
		default:
			RespondError(c, h.log, err)
		}
		return
	}
	c.JSON(http.StatusCreated, AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		RespondError(c, h.log, bindingError(err))
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(c, h.log, apierr.Unauthorized(errors.New("incorrect email or password")))
			return
		}
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
