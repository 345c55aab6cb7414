package server

import (
	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

func (s *Server) handleSearchKeyword(c *fiber.Ctx) error {
	return s.search(c, s.lib.SearchBooksByKeyword)
}

func (s *Server) handleSearchTitle(c *fiber.Ctx) error {
	return s.search(c, s.lib.SearchBooksByTitle)
}

func (s *Server) handleSearchAuthor(c *fiber.Ctx) error {
	return s.search(c, s.lib.SearchBooksByAuthor)
}

func (s *Server) search(c *fiber.Ctx, fn func(string) ([]*library.Book, error)) error {
	query := c.Query("q")
	if query == "" {
		return respondMessage(c, fiber.StatusBadRequest, "Search query required")
	}
	results, err := fn(query)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"results": results})
}
