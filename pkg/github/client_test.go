package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"octocat","public_repos":8,"followers":120,"following":9,"created_at":"2015-04-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"name":"hello","language":"Go","stargazers_count":30,"forks_count":4,"fork":false,"pushed_at":"2025-06-01T00:00:00Z"},
			{"name":"fork-of-thing","language":"Go","stargazers_count":2,"forks_count":0,"fork":true,"pushed_at":"2025-01-01T00:00:00Z"},
			{"name":"site","language":"TypeScript","stargazers_count":5,"forks_count":1,"fork":false,"pushed_at":"2025-03-01T00:00:00Z"}
		]`))
	})
	mux.HandleFunc("/search/commits", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_count":42}`))
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "type:pr") {
			_, _ = w.Write([]byte(`{"total_count":17}`))
			return
		}
		_, _ = w.Write([]byte(`{"total_count":6}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchStats(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, "")

	stats, err := client.FetchStats(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, "octocat", stats.Username)
	assert.Equal(t, 8, stats.PublicRepos)
	assert.Equal(t, 37, stats.TotalStars)
	assert.Equal(t, 5, stats.TotalForks)
	assert.Equal(t, 2, stats.Languages["Go"])
	assert.Equal(t, 1, stats.Languages["TypeScript"])
	require.Len(t, stats.TopRepos, 2, "forks excluded from top repos")
	assert.Equal(t, "hello", stats.TopRepos[0].Name)
	assert.Equal(t, "2025-06-01", stats.LastPushedAt.Format("2006-01-02"))
	assert.Equal(t, 42, stats.CommitsLast90Days)
	assert.Equal(t, 17, stats.PullRequests)
	assert.Equal(t, 6, stats.IssuesOpened)
}

// Every activity and collaboration signal serialized into the scoring prompt
// must come from a fetched metric, never a field that always reads zero.
func TestFetchStats_AllPromptSignalsPopulated(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, "")

	stats, err := client.FetchStats(context.Background(), "octocat")
	require.NoError(t, err)

	raw, err := json.Marshal(stats)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))

	for _, signal := range []string{"commitsLast90Days", "pullRequests", "issuesOpened", "totalStars", "followers"} {
		value, ok := payload[signal].(float64)
		require.True(t, ok, "payload missing %s", signal)
		assert.NotZero(t, value, "%s must carry the fetched count", signal)
	}
}

func TestFetchStats_UnknownUser(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, "")

	_, err := client.FetchStats(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeNotFound))
}
