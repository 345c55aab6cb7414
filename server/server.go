// Package server exposes the library manager over a REST API.
package server

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"library-management/config"
	"library-management/library"
)

// Server wires the HTTP surface onto the library and auth managers.
type Server struct {
	app      *fiber.App
	lib      *library.LibraryManager
	auth     *library.AuthManager
	validate *validator.Validate
}

// New builds the Fiber app with its middleware chain and route table.
func New(cfg *config.Config, lib *library.LibraryManager, auth *library.AuthManager) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "library-management",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${method} ${path} ${status} ${latency}\n",
	}))
	app.Use(cors.New())

	s := &Server{
		app:      app,
		lib:      lib,
		auth:     auth,
		validate: validator.New(),
	}
	s.routes(cfg.PublicDir)
	return s
}

func (s *Server) routes(publicDir string) {
	api := s.app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "message": "Library Management System API is running"})
	})

	auth := api.Group("/auth")
	auth.Post("/login/admin", s.handleAdminLogin)
	auth.Post("/login/user", s.handleUserLogin)
	auth.Post("/register", s.handleRegister)
	auth.Get("/check-username/:username", s.handleCheckUsername)
	auth.Get("/me", s.requireAuth, s.handleWhoAmI)

	books := api.Group("/books")
	books.Get("/", s.handleListBooks)
	books.Post("/", s.requireAuth, s.requireAdmin, s.handleAddBook)
	books.Get("/:isbn", s.handleGetBook)
	books.Put("/:isbn", s.requireAuth, s.requireAdmin, s.handleUpdateBookDetails)
	books.Put("/:isbn/quantity", s.requireAuth, s.requireAdmin, s.handleUpdateBookQuantity)
	books.Delete("/:isbn", s.requireAuth, s.requireAdmin, s.handleRemoveBook)
	books.Post("/:isbn/borrow", s.requireAuth, s.handleBorrowBook)
	books.Post("/:isbn/return", s.requireAuth, s.handleReturnBook)

	users := api.Group("/users", s.requireAuth)
	// "me" routes must precede the :userID wildcard.
	users.Get("/me/books", s.handleMyBorrowedBooks)
	users.Get("/", s.requireAdmin, s.handleListUsers)
	users.Get("/:userID", s.requireAdmin, s.handleGetUser)
	users.Put("/:userID/activate", s.requireAdmin, s.handleActivateUser)
	users.Put("/:userID/deactivate", s.requireAdmin, s.handleDeactivateUser)
	users.Delete("/:userID", s.requireAdmin, s.handleRemoveUser)

	transactions := api.Group("/transactions", s.requireAuth)
	transactions.Get("/", s.requireAdmin, s.handleAllTransactions)
	transactions.Get("/me", s.handleMyTransactions)
	transactions.Get("/user/:userID", s.handleUserTransactions)
	transactions.Get("/book/:isbn", s.requireAdmin, s.handleBookTransactions)
	transactions.Get("/recent/:count?", s.handleRecentTransactions)

	search := api.Group("/search")
	search.Get("/", s.handleSearchKeyword)
	search.Get("/title", s.handleSearchTitle)
	search.Get("/author", s.handleSearchAuthor)

	api.Get("/statistics", s.requireAuth, s.requireAdmin, s.handleStatistics)

	if st, err := os.Stat(publicDir); err == nil && st.IsDir() {
		s.app.Static("/", publicDir)
	}

	s.app.Use(func(c *fiber.Ctx) error {
		return respondMessage(c, fiber.StatusNotFound, "Endpoint not found")
	})
}

// App exposes the Fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen starts serving on addr and blocks.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown() error { return s.app.Shutdown() }
