package cache

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProfileListKey     = "profiles:all"
	GitHubReposPrefix  = "github:repos:%s"
	ProfileListTTL     = time.Minute
	GitHubReposTTL     = 10 * time.Minute
	profileByUserIDFmt = "profile:user:%d"
	ProfileTTL         = 5 * time.Minute
)

// ProfileKey is the cache key of a single user's profile.
func ProfileKey(userID uint) string {
	return fmt.Sprintf(profileByUserIDFmt, userID)
}

// GitHubReposKey is the cache key of a GitHub user's reshaped repo list.
// GitHub logins are case-insensitive.
func GitHubReposKey(username string) string {
	return fmt.Sprintf(GitHubReposPrefix, strings.ToLower(username))
}
