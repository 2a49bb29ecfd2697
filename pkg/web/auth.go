package web

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Role names carried in the JWT role claim.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

const principalLocalsKey = "principal"

// Principal is the authenticated caller extracted from the bearer token.
type Principal struct {
	TenantID string
	UserID   string
	Role     string
}

type authClaims struct {
	jwt.RegisteredClaims

	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
}

func authenticateJWT(token, secret string) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &authClaims{}

	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}

	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}

	if claims.TenantID == "" {
		return Principal{}, errors.New("tenant_id claim required")
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}

	if userID == "" {
		return Principal{}, errors.New("user identity claim required")
	}

	return Principal{
		TenantID: claims.TenantID,
		UserID:   userID,
		Role:     claims.Role,
	}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}

// NewAuthMiddleware authenticates every request with an HS256 bearer token
// and stores the resulting principal in request locals.
func NewAuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authz == "" {
			return unauthorized(c, "authentication required")
		}

		token, ok := bearerToken(authz)
		if !ok {
			return unauthorized(c, "invalid credentials")
		}

		principal, err := authenticateJWT(token, jwtSecret)
		if err != nil {
			return unauthorized(c, "invalid credentials")
		}

		c.Locals(principalLocalsKey, principal)

		return c.Next()
	}
}

// RequireRole gates a route to the listed roles. It must run after the
// auth middleware.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c fiber.Ctx) error {
		principal, ok := principalFrom(c)
		if !ok {
			return unauthorized(c, "authentication required")
		}

		if _, ok := allowed[principal.Role]; !ok {
			return forbidden(c, "insufficient role")
		}

		return c.Next()
	}
}

func principalFrom(c fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(principalLocalsKey).(Principal)

	return principal, ok
}
