// Package middleware provides the Fiber middleware stack of the API.
package middleware

import (
	"context"
	"errors"
	"strings"

	"devconnector/internal/auth"
	"devconnector/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenHeader is the request header carrying the credential.
const TokenHeader = "auth-token"

// TokenVerifier turns a credential into a user id.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// tokenFromRequest reads the auth-token header and falls back to "Authorization: Bearer <token>".
func tokenFromRequest(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Get(TokenHeader)); token != "" {
		return token
	}
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// AuthRequired rejects requests without a valid credential and records the caller's id
// in c.Locals("userID") and in the request context.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := verifier.Verify(tokenFromRequest(c))
		if err != nil {
			if errors.Is(err, auth.ErrMissingCredential) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewCredentialError(models.CodeMissingCredential, "Token missing. Unauthorized entry"))
			}
			Logger.DebugContext(c.UserContext(), "rejected credential", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewCredentialError(models.CodeInvalidCredential, "Invalid token. Unauthorized entry"))
		}

		c.Locals("userID", userID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))

		return c.Next()
	}
}

// UserID returns the authenticated caller set by AuthRequired, or 0.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}
