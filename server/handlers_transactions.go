package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

const defaultRecentCount = 10

func (s *Server) handleAllTransactions(c *fiber.Ctx) error {
	transactions, err := s.lib.GetAllTransactions()
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"transactions": transactions})
}

func (s *Server) handleUserTransactions(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	userID := c.Params("userID")
	// Non-admins may only read their own history.
	if claims.Role != library.RoleAdmin && claims.UserID != userID {
		return respondMessage(c, fiber.StatusForbidden, "Access denied")
	}
	transactions, err := s.lib.GetUserTransactions(userID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"transactions": transactions})
}

func (s *Server) handleBookTransactions(c *fiber.Ctx) error {
	transactions, err := s.lib.GetBookTransactions(c.Params("isbn"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"transactions": transactions})
}

func (s *Server) handleRecentTransactions(c *fiber.Ctx) error {
	count, err := strconv.Atoi(c.Params("count"))
	if err != nil || count <= 0 {
		count = defaultRecentCount
	}
	transactions, err := s.lib.GetRecentTransactions(count)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"transactions": transactions})
}

func (s *Server) handleMyTransactions(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims.Role != library.RoleUser {
		return respondMessage(c, fiber.StatusForbidden, "Only regular users have transactions")
	}
	transactions, err := s.lib.GetUserTransactions(claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"transactions": transactions})
}

func (s *Server) handleStatistics(c *fiber.Ctx) error {
	stats, err := s.lib.GetStatistics()
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"statistics": stats})
}
