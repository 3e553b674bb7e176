package server

import (
	"devconnector/internal/middleware"
	"devconnector/internal/models"
	"devconnector/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/users
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	resp, err := s.userService.Register(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// Login handles POST /api/auth
func (s *Server) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	resp, err := s.userService.Login(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(resp)
}

// Me handles GET /api/auth
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}
