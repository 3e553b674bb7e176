package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"devconnector/internal/config"
	"devconnector/internal/models"
	"devconnector/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testConfig(githubURL string) *config.Config {
	return &config.Config{
		JWTSecret:     "server-test-secret-with-enough-length",
		TokenTTL:      time.Hour,
		Port:          "0",
		Env:           "test",
		GitHubAPIURL:  githubURL,
		GitHubTimeout: time.Second,
	}
}

// newTestApp builds the full app over SQLite and miniredis.
func newTestApp(t *testing.T, githubURL string) (*Server, *fiber.App) {
	t.Helper()
	db := testutil.NewTestDB(t)
	c, _ := testutil.NewTestCache(t)

	s, err := NewServerWithDeps(testConfig(githubURL), db, c)
	require.NoError(t, err)
	return s, s.NewApp()
}

type apiResponse struct {
	Status int
	Body   []byte
}

func (r apiResponse) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, dst), "body: %s", r.Body)
}

func (r apiResponse) errorEnvelope(t *testing.T) models.ErrorResponse {
	t.Helper()
	var env models.ErrorResponse
	r.decode(t, &env)
	return env
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any, token string) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("auth-token", token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{Status: resp.StatusCode, Body: b}
}

func register(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()
	resp := doRequest(t, app, http.MethodPost, "/api/users",
		map[string]string{"name": name, "email": email, "password": "password1"}, "")
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)

	var tok models.TokenResponse
	resp.decode(t, &tok)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func TestScenario_RegisterPostReactDelete(t *testing.T) {
	_, app := newTestApp(t, "")

	register(t, app, "A", "a@x.com")

	resp := doRequest(t, app, http.MethodPost, "/api/auth",
		map[string]string{"email": "a@x.com", "password": "password1"}, "")
	require.Equal(t, http.StatusOK, resp.Status)
	var tok models.TokenResponse
	resp.decode(t, &tok)
	token := tok.Token

	resp = doRequest(t, app, http.MethodGet, "/api/auth", nil, token)
	require.Equal(t, http.StatusOK, resp.Status)
	var me models.User
	resp.decode(t, &me)
	assert.Equal(t, "A", me.Name)
	assert.NotContains(t, string(resp.Body), "password")

	resp = doRequest(t, app, http.MethodPost, "/api/posts/newPost",
		map[string]string{"head": "Hello", "body": "World"}, token)
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
	var post models.Post
	resp.decode(t, &post)
	assert.Equal(t, me.ID, post.UserID)
	assert.Equal(t, "A", post.Name)

	resp = doRequest(t, app, http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	var posts []models.Post
	resp.decode(t, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Head)

	likePath := "/api/posts/like/" + itoa(post.ID)
	resp = doRequest(t, app, http.MethodPut, likePath, nil, token)
	require.Equal(t, http.StatusOK, resp.Status)
	var likes []models.ReactionRef
	resp.decode(t, &likes)
	assert.Equal(t, []models.ReactionRef{{User: me.ID}}, likes)

	resp = doRequest(t, app, http.MethodPut, likePath, nil, token)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &likes)
	assert.Empty(t, likes)

	resp = doRequest(t, app, http.MethodPost, "/api/profile",
		map[string]any{"status": "Developer", "skills": "Go, SQL"}, token)
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	var profile models.Profile
	resp.decode(t, &profile)
	assert.Equal(t, []string{"Go", "SQL"}, profile.Skills)

	resp = doRequest(t, app, http.MethodDelete, "/api/profile/del/"+itoa(me.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)

	resp = doRequest(t, app, http.MethodGet, "/api/posts/user/"+itoa(me.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &posts)
	assert.Empty(t, posts)

	resp = doRequest(t, app, http.MethodGet, "/api/profile/user/"+itoa(me.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestAuthGate(t *testing.T) {
	_, app := newTestApp(t, "")

	tests := []struct {
		name  string
		setup func(r *http.Request)
		code  string
	}{
		{"no credential", func(*http.Request) {}, models.CodeMissingCredential},
		{"garbage token", func(r *http.Request) { r.Header.Set("auth-token", "garbage") }, models.CodeInvalidCredential},
		{"bearer garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }, models.CodeInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
			tt.setup(req)
			resp, err := app.Test(req, 5000)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var env models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestRegister_Errors(t *testing.T) {
	_, app := newTestApp(t, "")
	register(t, app, "A", "a@x.com")

	resp := doRequest(t, app, http.MethodPost, "/api/users",
		map[string]string{"name": "Again", "email": "A@X.com", "password": "password1"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, models.CodeUserExists, resp.errorEnvelope(t).Code)

	resp = doRequest(t, app, http.MethodPost, "/api/users",
		map[string]string{"email": "bad"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	env := resp.errorEnvelope(t)
	assert.Equal(t, models.CodeValidation, env.Code)
	assert.Len(t, env.Errors, 3)

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	raw, err := app.Test(req, 5000)
	require.NoError(t, err)
	_ = raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/api/auth",
		map[string]string{"email": "a@x.com", "password": "wrongpass"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "Invalid credentials", resp.errorEnvelope(t).Error)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	_, app := newTestApp(t, "")
	token := register(t, app, "A", "a@x.com")

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/posts/not-an-id"},
		{http.MethodGet, "/api/posts/999"},
		{http.MethodPut, "/api/posts/like/abc"},
		{http.MethodPut, "/api/posts/dislike/999"},
		{http.MethodDelete, "/api/posts/del/0"},
		{http.MethodDelete, "/api/posts/comment/del/abc/1"},
		{http.MethodGet, "/api/profile/user/xyz"},
		{http.MethodGet, "/api/profile/user/999"},
		{http.MethodDelete, "/api/profile/experience/del/nope"},
		{http.MethodGet, "/api/nowhere"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := doRequest(t, app, tt.method, tt.path, nil, token)
			assert.Equal(t, http.StatusNotFound, resp.Status)
			assert.Equal(t, models.CodeNotFound, resp.errorEnvelope(t).Code)
		})
	}
}

func TestPostsAndComments(t *testing.T) {
	_, app := newTestApp(t, "")
	alice := register(t, app, "Alice", "alice@x.com")
	bob := register(t, app, "Bob", "bob@x.com")

	resp := doRequest(t, app, http.MethodPost, "/api/posts/newPost", map[string]string{"head": "Hi"}, alice)
	require.Equal(t, http.StatusBadRequest, resp.Status)

	resp = doRequest(t, app, http.MethodPost, "/api/posts/newPost",
		map[string]string{"head": "Hi", "body": "there"}, alice)
	require.Equal(t, http.StatusCreated, resp.Status)
	var post models.Post
	resp.decode(t, &post)
	postPath := itoa(post.ID)

	resp = doRequest(t, app, http.MethodPut, "/api/posts/dislike/"+postPath, nil, bob)
	require.Equal(t, http.StatusOK, resp.Status)
	var dislikes []models.ReactionRef
	resp.decode(t, &dislikes)
	assert.Len(t, dislikes, 1)

	resp = doRequest(t, app, http.MethodPost, "/api/posts/comment/"+postPath, map[string]string{"body": "first"}, bob)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = doRequest(t, app, http.MethodPost, "/api/posts/comment/"+postPath, map[string]string{"body": "second"}, alice)
	require.Equal(t, http.StatusOK, resp.Status)
	var comments []models.Comment
	resp.decode(t, &comments)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Body)
	bobComment := comments[1].ID

	resp = doRequest(t, app, http.MethodDelete, "/api/posts/comment/del/"+postPath+"/"+itoa(bobComment), nil, alice)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = doRequest(t, app, http.MethodDelete, "/api/posts/comment/del/"+postPath+"/"+itoa(bobComment), nil, bob)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "second", comments[0].Body)

	resp = doRequest(t, app, http.MethodGet, "/api/posts/"+postPath, nil, bob)
	require.Equal(t, http.StatusOK, resp.Status)
	var got models.Post
	resp.decode(t, &got)
	assert.Len(t, got.Dislikes, 1)
	assert.Empty(t, got.Likes)
	assert.Len(t, got.Comments, 1)

	resp = doRequest(t, app, http.MethodDelete, "/api/posts/del/"+postPath, nil, bob)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = doRequest(t, app, http.MethodDelete, "/api/posts/del/"+postPath, nil, alice)
	require.Equal(t, http.StatusOK, resp.Status)
	var remaining []models.Post
	resp.decode(t, &remaining)
	assert.Empty(t, remaining)
}

func TestProfileEntries(t *testing.T) {
	_, app := newTestApp(t, "")
	token := register(t, app, "A", "a@x.com")

	resp := doRequest(t, app, http.MethodGet, "/api/profile/me", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "There is no profile for this user", resp.errorEnvelope(t).Error)

	resp = doRequest(t, app, http.MethodPost, "/api/profile",
		map[string]any{"status": "Dev", "skills": []string{"go"}, "company": "Acme", "youtube": "https://youtube.com/a"}, token)
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)

	resp = doRequest(t, app, http.MethodPut, "/api/profile/experience",
		map[string]any{"title": "Dev", "company": "Acme", "from": "2020-01-01", "current": true}, token)
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	var profile models.Profile
	resp.decode(t, &profile)
	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "https://youtube.com/a", profile.SocialMedia.YouTube)

	resp = doRequest(t, app, http.MethodPut, "/api/profile/edu",
		map[string]any{"school": "MIT", "degree": "BSc", "fieldOfStudy": "CS", "from": "2014-09-01"}, token)
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	resp.decode(t, &profile)
	require.Len(t, profile.Education, 1)

	resp = doRequest(t, app, http.MethodPut, "/api/profile/edu", map[string]any{"school": "MIT"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = doRequest(t, app, http.MethodDelete, "/api/profile/experience/del/"+itoa(profile.Experience[0].ID+50), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = doRequest(t, app, http.MethodDelete, "/api/profile/experience/del/"+itoa(profile.Experience[0].ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &profile)
	assert.Empty(t, profile.Experience)

	resp = doRequest(t, app, http.MethodDelete, "/api/profile/edu/del/"+itoa(profile.Education[0].ID), nil, token)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.decode(t, &profile)
	assert.Empty(t, profile.Education)

	resp = doRequest(t, app, http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	var profiles []models.Profile
	resp.decode(t, &profiles)
	assert.Len(t, profiles, 1)
}

func TestDeleteAccount_OtherUserForbidden(t *testing.T) {
	_, app := newTestApp(t, "")
	alice := register(t, app, "Alice", "alice@x.com")
	bob := register(t, app, "Bob", "bob@x.com")

	resp := doRequest(t, app, http.MethodPost, "/api/profile",
		map[string]any{"status": "Dev", "skills": "go"}, alice)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(t, app, http.MethodGet, "/api/auth", nil, alice)
	var me models.User
	resp.decode(t, &me)

	resp = doRequest(t, app, http.MethodDelete, "/api/profile/del/"+itoa(me.ID), nil, bob)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = doRequest(t, app, http.MethodGet, "/api/profile/user/"+itoa(me.ID), nil, "")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestGitHubRepos(t *testing.T) {
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octocat/repos" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[{"name":"hello","description":"d","language":"Go","forks_count":1,"stargazers_count":2,"watchers_count":3}]`))
	}))
	defer gh.Close()

	_, app := newTestApp(t, gh.URL)

	resp := doRequest(t, app, http.MethodGet, "/api/profile/gitRepo/octocat", nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	var repos []models.GitHubRepo
	resp.decode(t, &repos)
	require.Len(t, repos, 1)
	assert.Equal(t, models.GitHubRepo{Name: "hello", Description: "d", Language: "Go", Forks: 1, Stars: 2, Watchers: 3}, repos[0])

	resp = doRequest(t, app, http.MethodGet, "/api/profile/gitRepo/ghost", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "No GitHub profile found", resp.errorEnvelope(t).Error)
}

func TestGitHubRepos_UpstreamFailure(t *testing.T) {
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gh.Close()

	_, app := newTestApp(t, gh.URL)

	resp := doRequest(t, app, http.MethodGet, "/api/profile/gitRepo/octocat", nil, "")
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	env := resp.errorEnvelope(t)
	assert.Equal(t, models.CodeUpstream, env.Code)
	assert.Equal(t, "upstream status 500", env.Details)
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestApp(t, "")

	resp := doRequest(t, app, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = doRequest(t, app, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.Status)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	resp.decode(t, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"])

	resp = doRequest(t, app, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, resp.Status)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	s := &Server{db: db}
	app := fiber.New()
	app.Get("/health/ready", s.ReadinessCheck)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["redis"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(parsePagination(c, defaultPaginationLimit))
	})

	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=1000", maxPaginationLimit, 0},
		{"?limit=-1&offset=-4", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			var p Pagination
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
