package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

func (s *Server) handleAdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || s.validate.Struct(req) != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Username and password required")
	}
	session, err := s.auth.LoginAdmin(req.Username, req.Password)
	if err != nil {
		return respondMessage(c, fiber.StatusUnauthorized, err.Error())
	}
	return respondOK(c, fiber.Map{"token": session.Token, "user": fiber.Map{
		"userID":   session.UserID,
		"username": session.Username,
		"fullName": session.FullName,
		"role":     session.Role,
	}})
}

func (s *Server) handleUserLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || s.validate.Struct(req) != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Username and password required")
	}
	session, err := s.auth.LoginUser(req.Username, req.Password)
	if err != nil {
		return respondMessage(c, fiber.StatusUnauthorized, err.Error())
	}
	return respondOK(c, fiber.Map{"token": session.Token, "user": fiber.Map{
		"userID":        session.UserID,
		"username":      session.Username,
		"fullName":      session.FullName,
		"email":         session.Email,
		"phone":         session.Phone,
		"borrowedCount": session.BorrowedCount,
		"role":          session.Role,
	}})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil || s.validate.Struct(req) != nil {
		return respondMessage(c, fiber.StatusBadRequest, "All fields are required")
	}
	user, err := s.lib.RegisterUser(req.Username, req.Password, req.FullName, req.Email, req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Registration successful", "userID": user.UserID})
}

func (s *Server) handleCheckUsername(c *fiber.Ctx) error {
	available, err := s.auth.IsUsernameAvailable(c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

func (s *Server) handleWhoAmI(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims.Role == library.RoleAdmin {
		return respondOK(c, fiber.Map{"user": fiber.Map{
			"userID":   claims.UserID,
			"username": claims.Username,
			"fullName": "Administrator",
			"role":     library.RoleAdmin,
		}})
	}
	user, err := s.lib.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return respondMessage(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"user": fiber.Map{
		"userID":        user.UserID,
		"username":      user.Username,
		"fullName":      user.FullName,
		"email":         user.Email,
		"phone":         user.Phone,
		"borrowedCount": len(user.BorrowedISBNs),
		"role":          library.RoleUser,
	}})
}
