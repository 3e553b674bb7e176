package repository

import (
	"context"
	"time"

	"devconnector/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error

	// GetReaction returns the caller's current reaction kind, or "" when neutral.
	GetReaction(ctx context.Context, postID, userID uint) (string, error)
	// ApplyReaction moves the (post, user) reaction from kind `from` to kind `to`
	// ("" meaning neutral) only if it is still `from`. It reports whether the row changed.
	ApplyReaction(ctx context.Context, postID, userID uint, from, to string) (bool, error)
	ListReactions(ctx context.Context, postID uint) ([]models.Reaction, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func newestCommentsFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *postRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Reactions").Preload("Comments", newestCommentsFirst)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return err
	}
	post.FillReactions()
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, err
	}
	post.FillReactions()
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withDetails(r.db.WithContext(ctx)).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.FillReactions()
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.FillReactions()
	}
	return posts, nil
}

// Delete removes a post together with its reactions and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *postRepository) GetReaction(ctx context.Context, postID, userID uint) (string, error) {
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Limit(1).
		Find(&reactions).Error
	if err != nil {
		return "", err
	}
	if len(reactions) == 0 {
		return "", nil
	}
	return reactions[0].Kind, nil
}

func (r *postRepository) ApplyReaction(ctx context.Context, postID, userID uint, from, to string) (bool, error) {
	db := r.db.WithContext(ctx)
	now := time.Now()

	var res *gorm.DB
	switch {
	case from == to:
		return true, nil
	case from == "":
		res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Reaction{
			PostID:    postID,
			UserID:    userID,
			Kind:      to,
			ReactedAt: now,
		})
	case to == "":
		res = db.Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, from).
			Delete(&models.Reaction{})
	default:
		res = db.Model(&models.Reaction{}).
			Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, from).
			Updates(map[string]interface{}{"kind": to, "reacted_at": now})
	}

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *postRepository) ListReactions(ctx context.Context, postID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("reacted_at DESC").
		Find(&reactions).Error
	return reactions, err
}
