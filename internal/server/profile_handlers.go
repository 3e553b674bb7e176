package server

import (
	"devconnector/internal/middleware"
	"devconnector/internal/models"
	"devconnector/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetMine(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// UpsertProfile handles POST /api/profile
func (s *Server) UpsertProfile(c *fiber.Ctx) error {
	var in service.ProfileInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	profile, err := s.profileService.Upsert(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// ListProfiles handles GET /api/profile
func (s *Server) ListProfiles(c *fiber.Ctx) error {
	profiles, err := s.profileService.List(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profiles)
}

// GetProfileByUser handles GET /api/profile/user/:userId
func (s *Server) GetProfileByUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId", "Profile not found")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetByUser(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// DeleteAccount handles DELETE /api/profile/del/:userId
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId", "There is no profile for this user")
	if err != nil {
		return nil
	}

	if err := s.profileService.DeleteAccount(c.UserContext(), middleware.UserID(c), userID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"msg": "User deleted"})
}

// AddExperience handles PUT /api/profile/experience
func (s *Server) AddExperience(c *fiber.Ctx) error {
	var in service.ExperienceInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	profile, err := s.profileService.AddExperience(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// DeleteExperience handles DELETE /api/profile/experience/del/:experienceId
func (s *Server) DeleteExperience(c *fiber.Ctx) error {
	expID, err := parseID(c, "experienceId", "Experience not found")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.DeleteExperience(c.UserContext(), middleware.UserID(c), expID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// AddEducation handles PUT /api/profile/edu
func (s *Server) AddEducation(c *fiber.Ctx) error {
	var in service.EducationInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	profile, err := s.profileService.AddEducation(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// DeleteEducation handles DELETE /api/profile/edu/del/:eduId
func (s *Server) DeleteEducation(c *fiber.Ctx) error {
	eduID, err := parseID(c, "eduId", "Education not found")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.DeleteEducation(c.UserContext(), middleware.UserID(c), eduID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// GetGitHubRepos handles GET /api/profile/gitRepo/:userName
func (s *Server) GetGitHubRepos(c *fiber.Ctx) error {
	repos, err := s.profileService.GitHubRepos(c.UserContext(), c.Params("userName"))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(repos)
}
