package repository

import (
	"context"
	"fmt"

	"devconnector/internal/cache"
	"devconnector/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	AddExperience(ctx context.Context, exp *models.Experience) error
	DeleteExperience(ctx context.Context, profileID, experienceID uint) (bool, error)
	AddEducation(ctx context.Context, edu *models.Education) error
	DeleteEducation(ctx context.Context, profileID, educationID uint) (bool, error)
	// DeleteCascade removes the user's posts, profile and account in one transaction.
	DeleteCascade(ctx context.Context, userID uint) error
}

type profileRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewProfileRepository creates a new profile repository. c may be nil.
func NewProfileRepository(db *gorm.DB, c *cache.Cache) ProfileRepository {
	return &profileRepository{db: db, cache: c}
}

func newestEntriesFirst(db *gorm.DB) *gorm.DB {
	return db.Order("id DESC")
}

func publicUserFields(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "avatar")
}

func (r *profileRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", publicUserFields).
		Preload("Experience", newestEntriesFirst).
		Preload("Education", newestEntriesFirst)
}

func (r *profileRepository) invalidate(ctx context.Context, userID uint) {
	r.cache.Invalidate(ctx, cache.ProfileListKey, cache.ProfileKey(userID))
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.cache.Aside(ctx, cache.ProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		return r.withDetails(r.db.WithContext(ctx)).Where("user_id = ?", userID).First(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	// UserID is not part of the cached JSON.
	profile.UserID = userID
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	profiles := []*models.Profile{}
	err := r.cache.Aside(ctx, cache.ProfileListKey, &profiles, cache.ProfileListTTL, func() error {
		return r.withDetails(r.db.WithContext(ctx)).Order("id ASC").Find(&profiles).Error
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Upsert creates the profile or, when one already exists for the user, overwrites its fields.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company", "website", "location", "status", "skills", "bio", "github_username",
				"social_youtube", "social_twitter", "social_facebook", "social_linkedin", "social_instagram",
				"updated_at",
			}),
		}).
		Create(profile).Error
	if err != nil {
		return err
	}
	r.invalidate(ctx, profile.UserID)
	return nil
}

func (r *profileRepository) userIDForProfile(ctx context.Context, profileID uint) uint {
	var userIDs []uint
	_ = r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", profileID).Pluck("user_id", &userIDs).Error
	if len(userIDs) == 0 {
		return 0
	}
	return userIDs[0]
}

func (r *profileRepository) AddExperience(ctx context.Context, exp *models.Experience) error {
	if err := r.db.WithContext(ctx).Create(exp).Error; err != nil {
		return err
	}
	r.invalidate(ctx, r.userIDForProfile(ctx, exp.ProfileID))
	return nil
}

func (r *profileRepository) DeleteExperience(ctx context.Context, profileID, experienceID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", experienceID, profileID).
		Delete(&models.Experience{})
	if res.Error != nil {
		return false, res.Error
	}
	r.invalidate(ctx, r.userIDForProfile(ctx, profileID))
	return res.RowsAffected == 1, nil
}

func (r *profileRepository) AddEducation(ctx context.Context, edu *models.Education) error {
	if err := r.db.WithContext(ctx).Create(edu).Error; err != nil {
		return err
	}
	r.invalidate(ctx, r.userIDForProfile(ctx, edu.ProfileID))
	return nil
}

func (r *profileRepository) DeleteEducation(ctx context.Context, profileID, educationID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", educationID, profileID).
		Delete(&models.Education{})
	if res.Error != nil {
		return false, res.Error
	}
	r.invalidate(ctx, r.userIDForProfile(ctx, profileID))
	return res.RowsAffected == 1, nil
}

func (r *profileRepository) DeleteCascade(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return err
		}

		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Reaction{}).Error; err != nil {
				return fmt.Errorf("delete post reactions: %w", err)
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return fmt.Errorf("delete post comments: %w", err)
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return fmt.Errorf("delete posts: %w", err)
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Reaction{}).Error; err != nil {
			return fmt.Errorf("delete user reactions: %w", err)
		}
		if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.Experience{}).Error; err != nil {
			return fmt.Errorf("delete experience: %w", err)
		}
		if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.Education{}).Error; err != nil {
			return fmt.Errorf("delete education: %w", err)
		}
		if err := tx.Delete(&profile).Error; err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, userID)
	return nil
}
