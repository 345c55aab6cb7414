package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

const localClaims = "claims"

// requireAuth extracts the bearer token, verifies it, and parks the claims
// in locals for the handlers downstream.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	const prefix = "Bearer "
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, prefix) {
		return respondMessage(c, fiber.StatusUnauthorized, "Access token required")
	}
	claims, err := s.auth.VerifyToken(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return respondMessage(c, fiber.StatusForbidden, err.Error())
	}
	c.Locals(localClaims, claims)
	return c.Next()
}

// requireAdmin gates a route to admin tokens. Must run after requireAuth.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	if claimsFrom(c).Role != library.RoleAdmin {
		return respondMessage(c, fiber.StatusForbidden, "Admin access required")
	}
	return c.Next()
}

func claimsFrom(c *fiber.Ctx) *library.Claims {
	claims, _ := c.Locals(localClaims).(*library.Claims)
	if claims == nil {
		claims = &library.Claims{}
	}
	return claims
}
