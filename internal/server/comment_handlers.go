package server

import (
	"devconnector/internal/middleware"
	"devconnector/internal/models"
	"devconnector/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /api/posts/comment/:postId
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId", postNotFound)
	if err != nil {
		return nil
	}

	var in service.CreateCommentInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = middleware.UserID(c)
	in.PostID = postID

	comments, err := s.commentService.AddComment(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comments)
}

// RemoveComment handles DELETE /api/posts/comment/del/:postId/:commentId
func (s *Server) RemoveComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId", postNotFound)
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId", "Comment does not exist")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.RemoveComment(c.UserContext(), service.RemoveCommentInput{
		UserID:    middleware.UserID(c),
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(comments)
}
