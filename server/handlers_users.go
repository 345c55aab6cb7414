package server

import (
	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

// userSummary is the outward shape of an account: no password hash, the
// borrowed set reduced to a count.
func userSummary(u *library.User) fiber.Map {
	return fiber.Map{
		"userID":        u.UserID,
		"username":      u.Username,
		"fullName":      u.FullName,
		"email":         u.Email,
		"phone":         u.Phone,
		"borrowedCount": len(u.BorrowedISBNs),
		"isActive":      u.IsActive,
	}
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.lib.GetAllUsers()
	if err != nil {
		return respondError(c, err)
	}
	summaries := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, userSummary(u))
	}
	return respondOK(c, fiber.Map{"users": summaries})
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	userID := c.Params("userID")
	user, err := s.lib.GetUserByID(userID)
	if err != nil {
		return respondError(c, err)
	}
	borrowed, err := s.lib.GetUserBorrowedBooks(userID)
	if err != nil {
		return respondError(c, err)
	}
	detail := userSummary(user)
	detail["borrowedBooks"] = borrowed
	return respondOK(c, fiber.Map{"user": detail})
}

func (s *Server) handleActivateUser(c *fiber.Ctx) error {
	if err := s.lib.SetUserActive(c.Params("userID"), true); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "User activated successfully"})
}

func (s *Server) handleDeactivateUser(c *fiber.Ctx) error {
	if err := s.lib.SetUserActive(c.Params("userID"), false); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "User deactivated successfully"})
}

func (s *Server) handleRemoveUser(c *fiber.Ctx) error {
	if err := s.lib.RemoveUser(c.Params("userID")); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "User removed successfully"})
}

func (s *Server) handleMyBorrowedBooks(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims.Role != library.RoleUser {
		return respondMessage(c, fiber.StatusForbidden, "Only regular users have borrowed books")
	}
	books, err := s.lib.GetUserBorrowedBooks(claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"books": books})
}
