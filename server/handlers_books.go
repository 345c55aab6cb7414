package server

import (
	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

type addBookRequest struct {
	ISBN     string `json:"isbn" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type updateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

type updateQuantityRequest struct {
	// Pointer so an explicit zero passes "required" and reaches the core,
	// which decides whether zero is legal for this book.
	Quantity *int `json:"quantity" validate:"required"`
}

func (s *Server) handleListBooks(c *fiber.Ctx) error {
	var (
		books []*library.Book
		err   error
	)
	if c.Query("available") == "true" {
		books, err = s.lib.GetAvailableBooks()
	} else {
		books, err = s.lib.GetAllBooks()
	}
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"books": books})
}

func (s *Server) handleGetBook(c *fiber.Ctx) error {
	book, err := s.lib.GetBookByISBN(c.Params("isbn"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"book": book})
}

func (s *Server) handleAddBook(c *fiber.Ctx) error {
	var req addBookRequest
	if err := c.BodyParser(&req); err != nil || s.validate.Struct(req) != nil {
		return respondMessage(c, fiber.StatusBadRequest, "All fields are required")
	}
	book, err := s.lib.AddBook(req.ISBN, req.Title, req.Author, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Book added successfully", "book": book})
}

func (s *Server) handleUpdateBookDetails(c *fiber.Ctx) error {
	var req updateBookRequest
	if err := c.BodyParser(&req); err != nil || s.validate.Struct(req) != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Title and author are required")
	}
	book, err := s.lib.UpdateBookDetails(c.Params("isbn"), req.Title, req.Author)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Book updated successfully", "book": book})
}

func (s *Server) handleUpdateBookQuantity(c *fiber.Ctx) error {
	var req updateQuantityRequest
	if err := c.BodyParser(&req); err != nil || s.validate.Struct(req) != nil {
		return respondMessage(c, fiber.StatusBadRequest, "Quantity is required")
	}
	book, err := s.lib.UpdateBookQuantity(c.Params("isbn"), *req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Quantity updated successfully", "book": book})
}

func (s *Server) handleRemoveBook(c *fiber.Ctx) error {
	if err := s.lib.RemoveBook(c.Params("isbn")); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Book removed successfully"})
}

func (s *Server) handleBorrowBook(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims.Role != library.RoleUser {
		return respondMessage(c, fiber.StatusForbidden, "Only regular users can borrow books")
	}
	transaction, err := s.lib.BorrowBook(c.Params("isbn"), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Book borrowed successfully", "transaction": transaction})
}

func (s *Server) handleReturnBook(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if claims.Role != library.RoleUser {
		return respondMessage(c, fiber.StatusForbidden, "Only regular users can return books")
	}
	transaction, err := s.lib.ReturnBook(c.Params("isbn"), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"message": "Book returned successfully", "transaction": transaction})
}
