// Package github fetches public repositories of a GitHub user.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devconnector/internal/models"
	"devconnector/internal/observability"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 10 * time.Second
)

// ErrUserNotFound is returned when GitHub has no account with the given name.
var ErrUserNotFound = errors.New("github user not found")

// UpstreamError is any non-404 failure answered by GitHub.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github responded with status %d", e.Status)
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A non-empty token authenticates every
// request through an oauth2 static token source.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type repoPayload struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	Forks       int     `json:"forks_count"`
	Stars       int     `json:"stargazers_count"`
	Watchers    int     `json:"watchers_count"`
}

// ListRepos returns the first page of the user's public repositories, in GitHub's default order.
func (c *Client) ListRepos(ctx context.Context, username string) ([]models.GitHubRepo, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos", c.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "devconnector-api")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.GitHubRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		observability.GitHubRequests.WithLabelValues("not_found").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUserNotFound
	case resp.StatusCode != http.StatusOK:
		observability.GitHubRequests.WithLabelValues("upstream_error").Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	var payload []repoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		observability.GitHubRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode github response: %w", err)
	}
	observability.GitHubRequests.WithLabelValues("ok").Inc()

	repos := make([]models.GitHubRepo, 0, len(payload))
	for _, p := range payload {
		repo := models.GitHubRepo{
			Name:     p.Name,
			Forks:    p.Forks,
			Stars:    p.Stars,
			Watchers: p.Watchers,
		}
		if p.Description != nil {
			repo.Description = *p.Description
		}
		if p.Language != nil {
			repo.Language = *p.Language
		}
		repos = append(repos, repo)
	}
	return repos, nil
}
