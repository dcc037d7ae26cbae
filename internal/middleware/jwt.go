package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/backoffice-api/internal/utils"
)

// Locals keys holding the authenticated backoffice author.
const (
	localAuthorID   = "user_id"
	localAuthorRole = "user_role"
)

// authorClaims identifies the admin behind a request. The subject is the backoffice
// user id recorded as author of every action history row.
type authorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProtected validates HMAC bearer tokens and exposes the author to handlers.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		var claims authorClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		authorID, err := strconv.ParseUint(strings.TrimSpace(claims.Subject), 10, 32)
		if err != nil || authorID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "token does not name a backoffice author")
		}

		c.Locals(localAuthorID, uint(authorID))
		c.Locals(localAuthorRole, strings.ToLower(strings.TrimSpace(claims.Role)))
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
