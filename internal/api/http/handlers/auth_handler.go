package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/arelunainstituto/financeerp/internal/api/dto"
	"github.com/arelunainstituto/financeerp/internal/auth"
	"github.com/arelunainstituto/financeerp/internal/domain"
	"github.com/arelunainstituto/financeerp/internal/service"
	apperrors "github.com/arelunainstituto/financeerp/pkg/util"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	user, token, _, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.AuthResponse{User: userPayload(user), Token: token},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, _, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return apperrors.NewUnauthorized(err.Error())
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{User: userPayload(user), Token: token},
	})
}

// Verify handles GET /auth/verify, the server-confirmed validity probe the
// client session monitor polls. The route sits behind the auth middleware,
// so reaching this handler already proves signature and expiry; the account
// re-read additionally invalidates sessions of deleted or suspended users.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingCredential()
	}

	user, err := h.auth.Resolve(c.Context(), *identity)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return c.JSON(dto.VerifyResponse{Valid: false})
		}
		return apperrors.MapError(err)
	}

	payload := userPayload(user)
	return c.JSON(dto.VerifyResponse{Valid: true, User: &payload})
}

// Me handles GET /auth/me, a protected profile route.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingCredential()
	}

	user, err := h.auth.Resolve(c.Context(), *identity)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return apperrors.NewInvalidCredential()
		}
		return apperrors.MapError(err)
	}

	return c.JSON(fiber.Map{"data": userPayload(user)})
}

func userPayload(user *domain.User) dto.UserPayload {
	return dto.UserPayload{ID: user.ID, Name: user.Name, Email: user.Email}
}
