package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devconnector/internal/models"
	"devconnector/internal/observability"
	"devconnector/internal/repository"
	"devconnector/internal/validation"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	maxHeadLen = 300
	maxBodyLen = 10000

	reactionAttempts = 5
)

// errReactionConflict means the reaction row changed between read and write.
var errReactionConflict = errors.New("reaction changed concurrently")

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository

	// reactionBackoff builds the retry policy for one React call.
	reactionBackoff func() backoff.BackOff
}

type CreatePostInput struct {
	UserID uint   `json:"-"`
	Head   string `json:"head" validate:"notblank,max=300"`
	Body   string `json:"body" validate:"notblank,max=10000"`
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

type ReactInput struct {
	UserID uint
	PostID uint
	Action ReactionAction
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo:        postRepo,
		userRepo:        userRepo,
		reactionBackoff: defaultReactionBackoff,
	}
}

func defaultReactionBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	return backoff.WithMaxRetries(b, reactionAttempts-1)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Head = strings.TrimSpace(in.Head)
	in.Body = strings.TrimSpace(in.Body)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.UserID)
		}
		return nil, err
	}

	post := &models.Post{
		UserID: in.UserID,
		Head:   in.Head,
		Body:   in.Body,
		Name:   author.Name,
		Avatar: author.Avatar,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewMissingError("Post not found")
		}
		return nil, err
	}
	return post, nil
}

// DeletePost removes the caller's own post along with its comments and reactions.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.GetPost(ctx, in.PostID)
	if err != nil {
		return err
	}
	if post.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewMissingError("Post not found")
		}
		return err
	}
	return nil
}

// React moves the caller through the reaction state machine and returns the
// post's reaction sets afterwards. The stored row is updated with a
// compare-and-swap; a concurrent change to the same row is retried from a fresh read.
func (s *PostService) React(ctx context.Context, in ReactInput) (_ *models.ReactionSummary, err error) {
	ctx, span := observability.StartSpan(ctx, "post.react",
		attribute.Int64("post.id", int64(in.PostID)),
		attribute.String("reaction.action", in.Action.String()))
	defer func() { observability.EndSpan(span, err) }()

	exists, err := s.postRepo.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewMissingError("Post not found")
	}

	var from, to ReactionState
	attempt := func() error {
		kind, err := s.postRepo.GetReaction(ctx, in.PostID, in.UserID)
		if err != nil {
			return backoff.Permanent(err)
		}
		from = stateFromKind(kind)
		to = NextReactionState(from, in.Action)

		applied, err := s.postRepo.ApplyReaction(ctx, in.PostID, in.UserID, kindFromState(from), kindFromState(to))
		if err != nil {
			// The post was deleted after the existence check.
			if isForeignKeyViolation(err) {
				return backoff.Permanent(models.NewMissingError("Post not found"))
			}
			return backoff.Permanent(err)
		}
		if !applied {
			observability.ReactionConflicts.Inc()
			return errReactionConflict
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(s.reactionBackoff(), ctx)); err != nil {
		if errors.Is(err, errReactionConflict) {
			return nil, models.NewInternalError(fmt.Errorf("react on post %d: %w", in.PostID, err))
		}
		return nil, err
	}
	observability.ReactionsTotal.WithLabelValues(in.Action.String(), from.String()+"->"+to.String()).Inc()

	reactions, err := s.postRepo.ListReactions(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeReactions(reactions)
	return &summary, nil
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
