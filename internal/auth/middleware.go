package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/arelunainstituto/financeerp/internal/domain"
	apperrors "github.com/arelunainstituto/financeerp/pkg/util"
)

const identityKey = "auth_identity"

// AuthMiddleware validates bearer tokens on protected routes. It is a pure
// gate: verification is stateless and no persistent state is touched, so
// the middleware is safe under any request concurrency.
type AuthMiddleware struct {
	tokens *TokenManager
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// Handle enforces authentication. A missing or malformed Authorization
// header rejects with 401; any credential verification failure rejects
// with 403. Rejection happens before any downstream handler runs.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewMissingCredential()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return apperrors.NewMissingCredential()
	}

	identity, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		// All codec failures collapse to one outward outcome; the
		// internal cause stays in the logs.
		m.logger.Debug("credential rejected",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return apperrors.NewInvalidCredential()
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
