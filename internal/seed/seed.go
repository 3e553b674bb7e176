// Package seed populates a development database with fake members, profiles,
// posts and engagement. Everything is written through the service layer so
// seeded rows obey the same rules as API traffic.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"devconnector/internal/auth"
	"devconnector/internal/cache"
	"devconnector/internal/database"
	"devconnector/internal/middleware"
	"devconnector/internal/models"
	"devconnector/internal/repository"
	"devconnector/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is set on every seeded account.
const DefaultPassword = "password123"

var skillPool = []string{
	"Go", "PostgreSQL", "Redis", "Docker", "Kubernetes", "React", "TypeScript",
	"GraphQL", "gRPC", "Terraform", "Linux", "Python", "Rust", "AWS", "CSS",
}

// Options controls how much data Run creates.
type Options struct {
	Users            int
	Posts            int
	CommentsPerPost  int
	ReactionsPerPost int
	Clean            bool
}

// Summary counts what Run created.
type Summary struct {
	Users     int
	Profiles  int
	Posts     int
	Comments  int
	Reactions int
}

type Seeder struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	userRepo repository.UserRepository
	users    *service.UserService
	profiles *service.ProfileService
	posts    *service.PostService
	comments *service.CommentService
}

// NewSeeder builds a Seeder over db. The same seed always produces the same data.
func NewSeeder(db *gorm.DB, tokens *auth.TokenCodec, seed int64) *Seeder {
	c := cache.New(nil)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	return &Seeder{
		db:       db,
		faker:    gofakeit.New(seed),
		userRepo: userRepo,
		users:    service.NewUserService(userRepo, tokens),
		profiles: service.NewProfileService(repository.NewProfileRepository(db, c), userRepo, nil, c),
		posts:    service.NewPostService(postRepo, userRepo),
		comments: service.NewCommentService(repository.NewCommentRepository(db), postRepo, userRepo),
	}
}

// ClearAll deletes every row from the application tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := database.PersistentModels()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tables[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", tables[i], err)
			}
		}
		return nil
	})
}

// Run seeds users with profiles, then posts, then comments and reactions on those posts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	users, err := s.SeedUsers(ctx, opts.Users)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)

	if sum.Profiles, err = s.SeedProfiles(ctx, users); err != nil {
		return sum, err
	}

	posts, err := s.SeedPosts(ctx, users, opts.Posts)
	if err != nil {
		return sum, err
	}
	sum.Posts = len(posts)

	if sum.Comments, err = s.SeedComments(ctx, users, posts, opts.CommentsPerPost); err != nil {
		return sum, err
	}
	if sum.Reactions, err = s.SeedReactions(ctx, users, posts, opts.ReactionsPerPost); err != nil {
		return sum, err
	}

	middleware.Logger.Info("seed complete",
		"users", sum.Users,
		"profiles", sum.Profiles,
		"posts", sum.Posts,
		"comments", sum.Comments,
		"reactions", sum.Reactions,
	)
	return sum, nil
}

// SeedUsers registers n accounts, all with DefaultPassword.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		email := fmt.Sprintf("%s.%s.%d@devconnector.test", handle(first), handle(last), i+1)

		_, err := s.users.Register(ctx, service.RegisterInput{
			Name:     first + " " + last,
			Email:    email,
			Password: DefaultPassword,
		})
		if err != nil {
			return users, fmt.Errorf("register %s: %w", email, err)
		}
		user, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return users, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedProfiles gives each user a profile with one experience and one education entry.
func (s *Seeder) SeedProfiles(ctx context.Context, users []*models.User) (int, error) {
	for _, u := range users {
		_, err := s.profiles.Upsert(ctx, u.ID, service.ProfileInput{
			Company:        s.faker.Company(),
			Website:        "https://" + s.faker.DomainName(),
			Location:       s.faker.City(),
			Status:         s.faker.JobTitle(),
			Skills:         s.skills(),
			Bio:            s.faker.Sentence(12),
			GitHubUsername: githubHandle(u),
		})
		if err != nil {
			return 0, fmt.Errorf("profile for user %d: %w", u.ID, err)
		}

		from := s.pastDate(8)
		if _, err := s.profiles.AddExperience(ctx, u.ID, service.ExperienceInput{
			Title:       s.faker.JobTitle(),
			Company:     s.faker.Company(),
			Location:    s.faker.City(),
			From:        from.Format("2006-01-02"),
			Current:     true,
			Description: s.faker.Sentence(10),
		}); err != nil {
			return 0, fmt.Errorf("experience for user %d: %w", u.ID, err)
		}

		start := from.AddDate(-4, 0, 0)
		if _, err := s.profiles.AddEducation(ctx, u.ID, service.EducationInput{
			School:       s.faker.City() + " University",
			Degree:       "BSc",
			FieldOfStudy: "Computer Science",
			From:         start.Format("2006-01-02"),
			To:           from.Format("2006-01-02"),
		}); err != nil {
			return 0, fmt.Errorf("education for user %d: %w", u.ID, err)
		}
	}
	return len(users), nil
}

// SeedPosts creates n posts spread across users.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := s.pick(users)
		post, err := s.posts.CreatePost(ctx, service.CreatePostInput{
			UserID: author.ID,
			Head:   strings.TrimSuffix(s.faker.Sentence(6), "."),
			Body:   s.faker.Paragraph(1, 3, 12, "\n"),
		})
		if err != nil {
			return posts, fmt.Errorf("post %d: %w", i+1, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedComments adds up to perPost comments from random users to each post.
func (s *Seeder) SeedComments(ctx context.Context, users []*models.User, posts []*models.Post, perPost int) (int, error) {
	if len(users) == 0 || perPost <= 0 {
		return 0, nil
	}
	created := 0
	for _, p := range posts {
		for i := s.faker.Number(0, perPost); i > 0; i-- {
			_, err := s.comments.AddComment(ctx, service.CreateCommentInput{
				UserID: s.pick(users).ID,
				PostID: p.ID,
				Body:   s.faker.Sentence(s.faker.Number(4, 16)),
			})
			if err != nil {
				return created, fmt.Errorf("comment on post %d: %w", p.ID, err)
			}
			created++
		}
	}
	return created, nil
}

// SeedReactions has up to perPost distinct users like or dislike each post.
// It returns the number of reactions left standing.
func (s *Seeder) SeedReactions(ctx context.Context, users []*models.User, posts []*models.Post, perPost int) (int, error) {
	if perPost <= 0 {
		return 0, nil
	}
	total := 0
	for _, p := range posts {
		var summary *models.ReactionSummary
		for _, u := range s.sample(users, s.faker.Number(0, perPost)) {
			action := service.ReactLike
			if s.faker.Number(1, 4) == 1 {
				action = service.ReactDislike
			}
			var err error
			summary, err = s.posts.React(ctx, service.ReactInput{UserID: u.ID, PostID: p.ID, Action: action})
			if err != nil {
				return total, fmt.Errorf("react on post %d: %w", p.ID, err)
			}
		}
		if summary != nil {
			total += len(summary.Likes) + len(summary.Dislikes)
		}
	}
	return total, nil
}

func (s *Seeder) pick(users []*models.User) *models.User {
	return users[s.faker.Number(0, len(users)-1)]
}

// sample returns n distinct users, or all of them when n is larger.
func (s *Seeder) sample(users []*models.User, n int) []*models.User {
	shuffled := make([]*models.User, len(users))
	copy(shuffled, users)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.faker.Number(0, i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func (s *Seeder) skills() service.SkillList {
	want := s.faker.Number(2, 4)
	picked := make(service.SkillList, 0, want)
	seen := map[string]bool{}
	for len(picked) < want {
		skill := skillPool[s.faker.Number(0, len(skillPool)-1)]
		if !seen[skill] {
			seen[skill] = true
			picked = append(picked, skill)
		}
	}
	return picked
}

func (s *Seeder) pastDate(maxYears int) time.Time {
	days := s.faker.Number(30, maxYears*365)
	return time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)
}

func githubHandle(u *models.User) string {
	h := handle(u.Name)
	if len(h) > 30 {
		h = h[:30]
	}
	return fmt.Sprintf("%s%d", h, u.ID)
}

// handle lowercases s and keeps only ASCII letters and digits.
func handle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "dev"
	}
	return b.String()
}
