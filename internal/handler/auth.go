package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/service"
	"github.com/fitforxe/gym-backend/internal/utils"
)

// CredentialService is implemented by service.Credentials.
type CredentialService interface {
	Register(ctx context.Context, email, password, gymName string) (*model.Owner, error)
	Authenticate(ctx context.Context, email, password, gymName string) (*model.Owner, error)
}

// TokenService is implemented by service.Tokens.
type TokenService interface {
	Issue(owner *model.Owner) (utils.SessionToken, error)
	Revoke(ctx context.Context, raw string) error
}

// ResetService is implemented by service.PasswordReset.
type ResetService interface {
	RequestReset(ctx context.Context, email, gymName string) (service.ResetResult, error)
	PerformReset(ctx context.Context, token, newPassword string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Creds  CredentialService
	Tokens TokenService
	Resets ResetService
}

func NewAuthHandler(creds CredentialService, tokens TokenService, resets ResetService) *AuthHandler {
	return &AuthHandler{Creds: creds, Tokens: tokens, Resets: resets}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	GymName  string `json:"gym_name" validate:"required,max=120"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	GymName  string `json:"gym_name"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   *int64 `json:"expires_in,omitempty"`
}

type requestResetReq struct {
	Email   string `json:"email" validate:"required,email"`
	GymName string `json:"gym_name" validate:"required"`
}

type requestResetResp struct {
	Message  string `json:"message"`
	ResetURL string `json:"reset_url,omitempty"`
}

type resetReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// resetAck is the same for every request-reset call.
const resetAck = "If an account matches, a password reset link has been sent."

// Register creates an owner account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	owner, err := h.Creds.Register(ctx, req.Email, req.Password, req.GymName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, owner)
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	owner, err := h.Creds.Authenticate(ctx, req.Email, req.Password, req.GymName)
	if err != nil {
		return respondError(c, err)
	}
	tok, err := h.Tokens.Issue(owner)
	if err != nil {
		return respondError(c, err)
	}

	resp := loginResp{AccessToken: tok.Token, TokenType: "bearer"}
	if tok.ExpiresAt != nil {
		secs := int64(tok.ExpiresAt.Sub(tok.IssuedAt) / time.Second)
		resp.ExpiresIn = &secs
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the bearer token.  It does not sit behind JWTAuth so an
// expired token can still be logged out.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, raw); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// RequestReset always answers the same way, whether or not the account
// exists.
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req requestResetReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Resets.RequestReset(ctx, req.Email, req.GymName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, requestResetResp{Message: resetAck, ResetURL: res.ResetURL})
}

// Reset sets a new password with a reset token.
func (h *AuthHandler) Reset(c echo.Context) error {
	var req resetReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Resets.PerformReset(ctx, req.Token, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// Me returns the authenticated owner.
func (h *AuthHandler) Me(c echo.Context) error {
	owner := middleware.Owner(c)
	if owner == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	return c.JSON(http.StatusOK, owner)
}
