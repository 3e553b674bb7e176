package server

import (
	"devconnector/internal/middleware"
	"devconnector/internal/models"
	"devconnector/internal/service"

	"github.com/gofiber/fiber/v2"
)

const postNotFound = "Post not found"

// CreatePost handles POST /api/posts/newPost
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = middleware.UserID(c)

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	posts, err := s.postService.ListPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// ListUserPosts handles GET /api/posts/user/:userId
func (s *Server) ListUserPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId", "User not found")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)

	posts, err := s.postService.ListUserPosts(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:postId
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId", postNotFound)
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), postID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/del/:postId and answers with the remaining feed.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId", postNotFound)
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	if err := s.postService.DeletePost(ctx, service.DeletePostInput{
		UserID: middleware.UserID(c),
		PostID: postID,
	}); err != nil {
		return models.Respond(c, err)
	}

	page := parsePagination(c, defaultPaginationLimit)
	posts, err := s.postService.ListPosts(ctx, page.Limit, page.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// LikePost handles PUT /api/posts/like/:postId and returns the post's likes.
func (s *Server) LikePost(c *fiber.Ctx) error {
	summary, ok := s.react(c, service.ReactLike)
	if !ok {
		return nil
	}
	return c.JSON(summary.Likes)
}

// DislikePost handles PUT /api/posts/dislike/:postId and returns the post's dislikes.
func (s *Server) DislikePost(c *fiber.Ctx) error {
	summary, ok := s.react(c, service.ReactDislike)
	if !ok {
		return nil
	}
	return c.JSON(summary.Dislikes)
}

// react applies the action; when it reports false the error response is already written.
func (s *Server) react(c *fiber.Ctx, action service.ReactionAction) (*models.ReactionSummary, bool) {
	postID, err := parseID(c, "postId", postNotFound)
	if err != nil {
		return nil, false
	}

	summary, err := s.postService.React(c.UserContext(), service.ReactInput{
		UserID: middleware.UserID(c),
		PostID: postID,
		Action: action,
	})
	if err != nil {
		_ = models.Respond(c, err)
		return nil, false
	}
	return summary, true
}
