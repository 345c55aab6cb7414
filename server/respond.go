package server

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"library-management/library"
)

// respondOK sends a success envelope, merging extra payload fields in.
func respondOK(c *fiber.Ctx, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(body)
}

// respondMessage sends a failure envelope with an explicit status.
func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// respondError translates a core error kind into an HTTP status, passing the
// core's message through verbatim. Anything without a kind is an I/O or
// programming fault and surfaces as a 500.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, library.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, library.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, library.ErrDuplicateKey),
		errors.Is(err, library.ErrConflictState),
		errors.Is(err, library.ErrResourceExhausted),
		errors.Is(err, library.ErrLimitExceeded):
		status = fiber.StatusConflict
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
		return respondMessage(c, status, "Internal server error")
	}
	return respondMessage(c, status, err.Error())
}
