package service

import (
	"context"
	"errors"
	"strings"

	"devconnector/internal/models"
	"devconnector/internal/observability"
	"devconnector/internal/repository"
	"devconnector/internal/validation"

	"gorm.io/gorm"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

type CreateCommentInput struct {
	UserID uint   `json:"-"`
	PostID uint   `json:"-"`
	Body   string `json:"body" validate:"notblank,max=10000"`
}

type RemoveCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// AddComment appends a comment to the post and returns the post's comments, newest first.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) ([]models.Comment, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.UserID)
		}
		return nil, err
	}

	comment := &models.Comment{
		PostID: in.PostID,
		UserID: in.UserID,
		Body:   in.Body,
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsTotal.WithLabelValues("add").Inc()

	return s.commentRepo.ListByPost(ctx, in.PostID)
}

// RemoveComment deletes the comment identified by id on the post, provided
// the caller wrote it, and returns the remaining comments.
func (s *CommentService) RemoveComment(ctx context.Context, in RemoveCommentInput) ([]models.Comment, error) {
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, in.PostID, in.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewMissingError("Comment does not exist")
		}
		return nil, err
	}
	if comment.UserID != in.UserID {
		observability.CommentsTotal.WithLabelValues("remove_forbidden").Inc()
		return nil, models.NewForbiddenError("User not authorized")
	}

	deleted, err := s.commentRepo.DeleteOwned(ctx, in.PostID, in.CommentID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// Removed by a concurrent request between the lookup and the delete.
		return nil, models.NewMissingError("Comment does not exist")
	}
	observability.CommentsTotal.WithLabelValues("remove").Inc()

	return s.commentRepo.ListByPost(ctx, in.PostID)
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewMissingError("Post not found")
	}
	return nil
}
