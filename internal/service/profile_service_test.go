package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"devconnector/internal/cache"
	"devconnector/internal/github"
	"devconnector/internal/models"
	"devconnector/internal/repository"
	"devconnector/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// repoListerStub is a stub for RepoLister that counts calls.
type repoListerStub struct {
	calls  int
	listFn func(context.Context, string) ([]models.GitHubRepo, error)
}

func (s *repoListerStub) ListRepos(ctx context.Context, username string) ([]models.GitHubRepo, error) {
	s.calls++
	return s.listFn(ctx, username)
}

type profileFixture struct {
	svc      *ProfileService
	posts    *PostService
	comments *CommentService
	db       *gorm.DB
	repos    *repoListerStub
	users    []uint
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	c, _ := testutil.NewTestCache(t)
	users := seedUsers(t, db, "Alice", "Bob")

	lister := &repoListerStub{listFn: func(_ context.Context, _ string) ([]models.GitHubRepo, error) {
		return []models.GitHubRepo{{Name: "hello", Stars: 3}}, nil
	}}
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	posts := NewPostService(postRepo, userRepo)
	posts.reactionBackoff = fastReactionBackoff

	return &profileFixture{
		svc:      NewProfileService(repository.NewProfileRepository(db, c), userRepo, lister, c),
		posts:    posts,
		comments: NewCommentService(repository.NewCommentRepository(db), postRepo, userRepo),
		db:       db,
		repos:    lister,
		users:    users,
	}
}

func basicProfile() ProfileInput {
	return ProfileInput{Status: "Developer", Skills: SkillList{"go", "sql"}}
}

func TestSkillList_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want SkillList
	}{
		{"comma string", `"Go, SQL ,,Docker "`, SkillList{"Go", "SQL", "Docker"}},
		{"array", `[" Go ","", "SQL"]`, SkillList{"Go", "SQL"}},
		{"empty string", `""`, SkillList{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SkillList
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad SkillList
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestProfileService_Upsert_Validation(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, f.users[0], ProfileInput{})
	appErr := assertAppError(t, err, models.CodeValidation)
	var fields []string
	for _, fe := range appErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"status", "skills"}, fields)

	in := basicProfile()
	in.GitHubUsername = "not a user!"
	_, err = f.svc.Upsert(ctx, f.users[0], in)
	assertAppError(t, err, models.CodeValidation)
}

func TestProfileService_Upsert_MergesOptionalFields(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	alice := f.users[0]

	_, err := f.svc.GetMine(ctx, alice)
	appErr := assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, "There is no profile for this user", appErr.Message)

	in := basicProfile()
	in.Company = "Acme"
	in.GitHubUsername = "alice-gh"
	in.Twitter = "https://twitter.com/alice"
	created, err := f.svc.Upsert(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Company)
	assert.Equal(t, "https://twitter.com/alice", created.SocialMedia.Twitter)
	require.NotNil(t, created.User)
	assert.Equal(t, "Alice", created.User.Name)
	assert.Empty(t, created.User.Email, "preloaded user carries public fields only")

	updated, err := f.svc.Upsert(ctx, alice, ProfileInput{Status: "Lead", Skills: SkillList{"rust"}, Location: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Lead", updated.Status)
	assert.Equal(t, []string{"rust"}, updated.Skills)
	assert.Equal(t, "Berlin", updated.Location)
	assert.Equal(t, "Acme", updated.Company, "unsent fields keep their value")
	assert.Equal(t, "alice-gh", updated.GitHubUsername)
	assert.Equal(t, "https://twitter.com/alice", updated.SocialMedia.Twitter)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lead", list[0].Status)
}

func TestProfileService_Upsert_UnknownUser(t *testing.T) {
	f := newProfileFixture(t)
	_, err := f.svc.Upsert(context.Background(), 999, basicProfile())
	assertAppError(t, err, models.CodeNotFound)
}

func TestProfileService_Entries(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	alice := f.users[0]

	_, err := f.svc.AddExperience(ctx, alice, ExperienceInput{Title: "Dev", Company: "Acme", From: "2020-01-01"})
	assertAppError(t, err, models.CodeNotFound)

	_, err = f.svc.Upsert(ctx, alice, basicProfile())
	require.NoError(t, err)

	_, err = f.svc.AddExperience(ctx, alice, ExperienceInput{Title: "Dev"})
	assertAppError(t, err, models.CodeValidation)

	_, err = f.svc.AddExperience(ctx, alice, ExperienceInput{Title: "Dev", Company: "Acme", From: "yesterday"})
	assertAppError(t, err, models.CodeValidation)

	_, err = f.svc.AddExperience(ctx, alice, ExperienceInput{Title: "Dev", Company: "Acme", From: "2021-01-01", To: "2020-01-01"})
	assertAppError(t, err, models.CodeValidation)

	profile, err := f.svc.AddExperience(ctx, alice, ExperienceInput{Title: "Junior", Company: "Acme", From: "2018-01", To: "2019-06"})
	require.NoError(t, err)
	require.Len(t, profile.Experience, 1)
	require.NotNil(t, profile.Experience[0].To)

	profile, err = f.svc.AddExperience(ctx, alice, ExperienceInput{Title: "Senior", Company: "Acme", From: "2019-07-01", To: "2024-01-01", Current: true})
	require.NoError(t, err)
	require.Len(t, profile.Experience, 2)
	assert.Equal(t, "Senior", profile.Experience[0].Title, "newest entry first")
	assert.Nil(t, profile.Experience[0].To, "current entries have no end date")
	junior := profile.Experience[1].ID

	_, err = f.svc.DeleteExperience(ctx, alice, junior+100)
	assertAppError(t, err, models.CodeNotFound)

	profile, err = f.svc.DeleteExperience(ctx, alice, junior)
	require.NoError(t, err)
	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "Senior", profile.Experience[0].Title)

	profile, err = f.svc.AddEducation(ctx, alice, EducationInput{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2014-09-01", To: "2018-06-01"})
	require.NoError(t, err)
	require.Len(t, profile.Education, 1)
	eduID := profile.Education[0].ID

	_, err = f.svc.AddEducation(ctx, alice, EducationInput{School: "MIT", From: "2014-09-01"})
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Len(t, appErr.Fields, 2)

	// Bob has no profile, so he cannot touch Alice's entries.
	_, err = f.svc.DeleteEducation(ctx, f.users[1], eduID)
	assertAppError(t, err, models.CodeNotFound)

	profile, err = f.svc.DeleteEducation(ctx, alice, eduID)
	require.NoError(t, err)
	assert.Empty(t, profile.Education)
}

func TestProfileService_DeleteAccount(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()
	alice, bob := f.users[0], f.users[1]

	err := f.svc.DeleteAccount(ctx, alice, alice)
	appErr := assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, "There is no profile for this user", appErr.Message)

	_, err = f.svc.Upsert(ctx, alice, basicProfile())
	require.NoError(t, err)
	_, err = f.svc.Upsert(ctx, bob, basicProfile())
	require.NoError(t, err)

	alicePost, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: alice, Head: "Hello", Body: "World"})
	require.NoError(t, err)
	bobPost, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: bob, Head: "Hi", Body: "There"})
	require.NoError(t, err)

	_, err = f.posts.React(ctx, ReactInput{UserID: alice, PostID: bobPost.ID, Action: ReactLike})
	require.NoError(t, err)
	_, err = f.posts.React(ctx, ReactInput{UserID: bob, PostID: alicePost.ID, Action: ReactLike})
	require.NoError(t, err)
	_, err = f.comments.AddComment(ctx, CreateCommentInput{UserID: bob, PostID: alicePost.ID, Body: "nice"})
	require.NoError(t, err)

	err = f.svc.DeleteAccount(ctx, bob, alice)
	assertAppError(t, err, models.CodeForbidden)

	require.NoError(t, f.svc.DeleteAccount(ctx, alice, alice))

	posts, err := f.posts.ListUserPosts(ctx, alice, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, err = f.svc.GetByUser(ctx, alice)
	assertAppError(t, err, models.CodeNotFound)

	remaining, err := f.posts.GetPost(ctx, bobPost.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining.Likes, "deleted user's reactions are removed")

	var orphans int64
	require.NoError(t, f.db.Model(&models.Comment{}).Where("post_id = ?", alicePost.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestProfileService_GitHubRepos(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	repos, err := f.svc.GitHubRepos(ctx, "Octocat")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "hello", repos[0].Name)

	repos, err = f.svc.GitHubRepos(ctx, "octocat")
	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, 1, f.repos.calls, "second lookup is served from cache")

	_, err = f.svc.GitHubRepos(ctx, "-bad-")
	assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, 1, f.repos.calls)
}

func TestProfileService_GitHubRepos_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"unknown user", github.ErrUserNotFound, models.CodeNotFound, 404},
		{"upstream failure", &github.UpstreamError{Status: 503}, models.CodeUpstream, 502},
		{"transport failure", errors.New("dial tcp: refused"), models.CodeUpstream, 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &repoListerStub{listFn: func(_ context.Context, _ string) ([]models.GitHubRepo, error) {
				return nil, tt.err
			}}
			svc := NewProfileService(nil, nil, lister, cache.New(nil))

			_, err := svc.GitHubRepos(context.Background(), "octocat")
			appErr := assertAppError(t, err, tt.code)
			assert.Equal(t, tt.status, appErr.Status)

			// Failures are never cached.
			_, _ = svc.GitHubRepos(context.Background(), "octocat")
			assert.Equal(t, 2, lister.calls)
		})
	}
}
