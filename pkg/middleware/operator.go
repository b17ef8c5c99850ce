package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthScheme prefixes the operator token in the Authorization header.
const AuthScheme = "freight"

type tokenKey struct{}

// OperatorToken captures the operator token from the Authorization header
// and stores it in Locals and the user context, so outbound calls to the
// OCR and order services act on behalf of the same operator. The token is
// passed through as is; it is validated by those services.
func OperatorToken(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ParseAuthorization(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			logger.Debug("Request without operator token", zap.String("path", c.Path()))
			return c.Next()
		}

		c.Locals("operatorToken", token)
		c.SetUserContext(WithToken(c.UserContext(), token))
		return c.Next()
	}
}

// ParseAuthorization strips a "freight " or "Bearer " scheme.
func ParseAuthorization(header string) string {
	header = strings.TrimSpace(header)
	for _, scheme := range []string{AuthScheme + " ", "Bearer "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return header
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the operator token stored by OperatorToken.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
