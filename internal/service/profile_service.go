package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"devconnector/internal/cache"
	"devconnector/internal/github"
	"devconnector/internal/models"
	"devconnector/internal/observability"
	"devconnector/internal/repository"
	"devconnector/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const noProfileMessage = "There is no profile for this user"

var githubUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)

// RepoLister fetches a GitHub user's public repositories.
type RepoLister interface {
	ListRepos(ctx context.Context, username string) ([]models.GitHubRepo, error)
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	repos       RepoLister
	cache       *cache.Cache
}

// SkillList accepts either a JSON array or a comma separated string.
type SkillList []string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		raw = strings.Split(joined, ",")
	}

	skills := make([]string, 0, len(raw))
	for _, skill := range raw {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	*s = skills
	return nil
}

type ProfileInput struct {
	Company        string    `json:"company" validate:"max=200"`
	Website        string    `json:"website" validate:"omitempty,url"`
	Location       string    `json:"location" validate:"max=200"`
	Status         string    `json:"status" validate:"notblank"`
	Skills         SkillList `json:"skills" validate:"nonempty"`
	Bio            string    `json:"bio" validate:"max=2000"`
	GitHubUsername string    `json:"githubUsername"`
	YouTube        string    `json:"youtube" validate:"omitempty,url"`
	Twitter        string    `json:"twitter" validate:"omitempty,url"`
	Facebook       string    `json:"facebook" validate:"omitempty,url"`
	LinkedIn       string    `json:"linkedin" validate:"omitempty,url"`
	Instagram      string    `json:"instagram" validate:"omitempty,url"`
}

type ExperienceInput struct {
	Title       string `json:"title" validate:"notblank"`
	Company     string `json:"company" validate:"notblank"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required,date"`
	To          string `json:"to" validate:"date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationInput struct {
	School       string `json:"school" validate:"notblank"`
	Degree       string `json:"degree" validate:"notblank"`
	FieldOfStudy string `json:"fieldOfStudy" validate:"notblank"`
	From         string `json:"from" validate:"required,date"`
	To           string `json:"to" validate:"date"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	repos RepoLister,
	c *cache.Cache,
) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		repos:       repos,
		cache:       c,
	}
}

func (s *ProfileService) GetMine(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getProfile(ctx, userID, noProfileMessage)
}

func (s *ProfileService) GetByUser(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getProfile(ctx, userID, "Profile not found")
}

func (s *ProfileService) getProfile(ctx context.Context, userID uint, missing string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewMissingError(missing)
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) List(ctx context.Context) ([]*models.Profile, error) {
	return s.profileRepo.List(ctx)
}

// Upsert creates the caller's profile or updates it. Status and skills are
// always replaced; the optional fields only when a value was sent.
func (s *ProfileService) Upsert(ctx context.Context, userID uint, in ProfileInput) (*models.Profile, error) {
	in.Status = strings.TrimSpace(in.Status)
	in.GitHubUsername = strings.TrimSpace(in.GitHubUsername)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.GitHubUsername != "" && !githubUsernamePattern.MatchString(in.GitHubUsername) {
		return nil, models.NewFieldValidationError([]models.FieldError{
			{Field: "githubUsername", Message: "GitHub username is invalid"},
		})
	}

	profile := &models.Profile{UserID: userID}
	existing, err := s.profileRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		copyProfileFields(profile, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("User", userID)
			}
			return nil, err
		}
	default:
		return nil, err
	}

	profile.Status = in.Status
	profile.Skills = []string(in.Skills)
	setIfPresent(&profile.Company, in.Company)
	setIfPresent(&profile.Website, in.Website)
	setIfPresent(&profile.Location, in.Location)
	setIfPresent(&profile.Bio, in.Bio)
	setIfPresent(&profile.GitHubUsername, in.GitHubUsername)
	setIfPresent(&profile.SocialMedia.YouTube, in.YouTube)
	setIfPresent(&profile.SocialMedia.Twitter, in.Twitter)
	setIfPresent(&profile.SocialMedia.Facebook, in.Facebook)
	setIfPresent(&profile.SocialMedia.LinkedIn, in.LinkedIn)
	setIfPresent(&profile.SocialMedia.Instagram, in.Instagram)

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return s.GetMine(ctx, userID)
}

func copyProfileFields(dst, src *models.Profile) {
	dst.Company = src.Company
	dst.Website = src.Website
	dst.Location = src.Location
	dst.Bio = src.Bio
	dst.GitHubUsername = src.GitHubUsername
	dst.SocialMedia = src.SocialMedia
	dst.CreatedAt = src.CreatedAt
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func entryPeriod(fromRaw, toRaw string, current bool) (time.Time, *time.Time, error) {
	from, err := validation.ParseDate(fromRaw)
	if err != nil {
		return time.Time{}, nil, err
	}
	if current || strings.TrimSpace(toRaw) == "" {
		return from, nil, nil
	}
	to, err := validation.ParseDate(toRaw)
	if err != nil {
		return time.Time{}, nil, err
	}
	if to.Before(from) {
		return time.Time{}, nil, models.NewFieldValidationError([]models.FieldError{
			{Field: "to", Message: "To must not be before From"},
		})
	}
	return from, &to, nil
}

func (s *ProfileService) AddExperience(ctx context.Context, userID uint, in ExperienceInput) (*models.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	from, to, err := entryPeriod(in.From, in.To, in.Current)
	if err != nil {
		return nil, err
	}
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}

	exp := &models.Experience{
		ProfileID:   profile.ID,
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		From:        from,
		To:          to,
		Current:     in.Current,
		Description: in.Description,
	}
	if err := s.profileRepo.AddExperience(ctx, exp); err != nil {
		return nil, err
	}
	return s.GetMine(ctx, userID)
}

func (s *ProfileService) DeleteExperience(ctx context.Context, userID, experienceID uint) (*models.Profile, error) {
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	deleted, err := s.profileRepo.DeleteExperience(ctx, profile.ID, experienceID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.NewNotFoundError("Experience", experienceID)
	}
	return s.GetMine(ctx, userID)
}

func (s *ProfileService) AddEducation(ctx context.Context, userID uint, in EducationInput) (*models.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	from, to, err := entryPeriod(in.From, in.To, in.Current)
	if err != nil {
		return nil, err
	}
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}

	edu := &models.Education{
		ProfileID:    profile.ID,
		School:       strings.TrimSpace(in.School),
		Degree:       strings.TrimSpace(in.Degree),
		FieldOfStudy: strings.TrimSpace(in.FieldOfStudy),
		From:         from,
		To:           to,
		Current:      in.Current,
		Description:  in.Description,
	}
	if err := s.profileRepo.AddEducation(ctx, edu); err != nil {
		return nil, err
	}
	return s.GetMine(ctx, userID)
}

func (s *ProfileService) DeleteEducation(ctx context.Context, userID, educationID uint) (*models.Profile, error) {
	profile, err := s.GetMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	deleted, err := s.profileRepo.DeleteEducation(ctx, profile.ID, educationID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.NewNotFoundError("Education", educationID)
	}
	return s.GetMine(ctx, userID)
}

// DeleteAccount removes the target user's posts, profile and account in one
// transaction. Only the account owner may do this.
func (s *ProfileService) DeleteAccount(ctx context.Context, callerID, targetUserID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "profile.delete_account",
		attribute.Int64("user.id", int64(targetUserID)))
	defer func() { observability.EndSpan(span, err) }()

	if callerID != targetUserID {
		observability.AccountDeletions.WithLabelValues("forbidden").Inc()
		return models.NewForbiddenError("You can only delete your own account")
	}

	if err = s.profileRepo.DeleteCascade(ctx, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.AccountDeletions.WithLabelValues("not_found").Inc()
			return models.NewMissingError(noProfileMessage)
		}
		observability.AccountDeletions.WithLabelValues("error").Inc()
		return err
	}
	observability.AccountDeletions.WithLabelValues("deleted").Inc()
	return nil
}

// GitHubRepos proxies the user's public repositories, cached for ten minutes.
func (s *ProfileService) GitHubRepos(ctx context.Context, username string) ([]models.GitHubRepo, error) {
	username = strings.TrimSpace(username)
	if !githubUsernamePattern.MatchString(username) {
		return nil, models.NewMissingError("No GitHub profile found")
	}

	repos := []models.GitHubRepo{}
	err := s.cache.Aside(ctx, cache.GitHubReposKey(username), &repos, cache.GitHubReposTTL, func() error {
		fetched, err := s.repos.ListRepos(ctx, username)
		if err != nil {
			return err
		}
		repos = fetched
		return nil
	})
	if err == nil {
		return repos, nil
	}

	var upstream *github.UpstreamError
	switch {
	case errors.Is(err, github.ErrUserNotFound):
		return nil, models.NewMissingError("No GitHub profile found")
	case errors.As(err, &upstream):
		return nil, models.NewUpstreamError("GitHub request failed", upstream.Status, err)
	default:
		return nil, models.NewUpstreamError("GitHub request failed", 0, err)
	}
}
