// Package github fetches the profile statistics the analyzer consumes. The
// GitHub API is a collaborator here; this client aggregates a handful of
// REST calls into one GitHubStats value.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

const reposPerPage = 100

// commitWindowDays is the recency window for the commit-count signal.
const commitWindowDays = 90

// Client is a thin GitHub REST client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a GitHub client. token may be empty for unauthenticated
// (lower rate limit) access.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type userResponse struct {
	Login       string    `json:"login"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

type searchCountResponse struct {
	TotalCount int `json:"total_count"`
}

type repoResponse struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Fork            bool      `json:"fork"`
	PushedAt        time.Time `json:"pushed_at"`
}

// FetchStats aggregates a user's profile and repository metrics.
func (c *Client) FetchStats(ctx context.Context, username string) (models.GitHubStats, error) {
	var stats models.GitHubStats

	var user userResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/users/%s", username), &user); err != nil {
		return stats, err
	}

	var repos []repoResponse
	path := fmt.Sprintf("/users/%s/repos?per_page=%d&sort=pushed", username, reposPerPage)
	if err := c.getJSON(ctx, path, &repos); err != nil {
		return stats, err
	}

	stats = models.GitHubStats{
		Username:         user.Login,
		PublicRepos:      user.PublicRepos,
		Followers:        user.Followers,
		Following:        user.Following,
		Languages:        make(map[string]int),
		AccountCreatedAt: user.CreatedAt,
	}

	for _, repo := range repos {
		stats.TotalStars += repo.StargazersCount
		stats.TotalForks += repo.ForksCount
		if repo.Language != "" {
			stats.Languages[repo.Language]++
		}
		if repo.PushedAt.After(stats.LastPushedAt) {
			stats.LastPushedAt = repo.PushedAt
		}
		if len(stats.TopRepos) < 5 && !repo.Fork {
			stats.TopRepos = append(stats.TopRepos, models.RepoStats{
				Name:        repo.Name,
				Description: repo.Description,
				Language:    repo.Language,
				Stars:       repo.StargazersCount,
				Forks:       repo.ForksCount,
				IsFork:      repo.Fork,
			})
		}
	}

	since := time.Now().AddDate(0, 0, -commitWindowDays).Format("2006-01-02")
	commits, err := c.searchCount(ctx, "commits", fmt.Sprintf("author:%s author-date:>=%s", username, since))
	if err != nil {
		return stats, err
	}
	stats.CommitsLast90Days = commits

	prs, err := c.searchCount(ctx, "issues", fmt.Sprintf("author:%s type:pr", username))
	if err != nil {
		return stats, err
	}
	stats.PullRequests = prs

	issues, err := c.searchCount(ctx, "issues", fmt.Sprintf("author:%s type:issue", username))
	if err != nil {
		return stats, err
	}
	stats.IssuesOpened = issues

	return stats, nil
}

// searchCount reads only the total_count of a search, never the hits.
func (c *Client) searchCount(ctx context.Context, index, query string) (int, error) {
	params := url.Values{"q": {query}, "per_page": {"1"}}
	var out searchCountResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/search/%s?%s", index, params.Encode()), &out); err != nil {
		return 0, err
	}
	return out.TotalCount, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewExternalCallError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError("github user")
	case resp.StatusCode != http.StatusOK:
		return domain.NewExternalCallError(fmt.Errorf("github returned %d for %s", resp.StatusCode, path))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return domain.NewExternalCallError(fmt.Errorf("failed to decode github response: %w", err))
	}
	return nil
}
