package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/mobipent/internal/domain"
)

// AccountEmailKey is the Locals key holding the authenticated email
const AccountEmailKey = "account_email"

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	VerifyToken(tokenString string) (*domain.TokenClaims, error)
}

// VerifyBearer rejects requests without a valid "Authorization: Bearer <jwt>" header
// with 401 and a FastAPI style detail body
func VerifyBearer(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, _ := strings.Cut(c.Get("Authorization"), " ")
		tokenString := strings.TrimSpace(token)
		if !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Not authenticated",
			})
		}

		claims, err := verifier.VerifyToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Invalid or expired token",
			})
		}

		c.Locals(AccountEmailKey, claims.Email())
		return c.Next()
	}
}

// GetAccountEmail returns the email set by VerifyBearer
func GetAccountEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(AccountEmailKey).(string)
	return email
}
