package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Champion2005/amicooked-sub000/pkg/ai/llm"
	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/api/middleware"
	"github.com/Champion2005/amicooked-sub000/pkg/chat"
	"github.com/Champion2005/amicooked-sub000/pkg/github"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/memory"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
	"github.com/Champion2005/amicooked-sub000/pkg/usage"
)

// scriptedLLM replays canned responses in order.
type scriptedLLM struct {
	responses []string
	calls     int
	models    []string
}

func (m *scriptedLLM) Complete(ctx context.Context, model, prompt string, systemPrompt ...string) (string, error) {
	idx := m.calls
	m.calls++
	m.models = append(m.models, model)
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "", errors.New("scripted llm exhausted")
}

func (m *scriptedLLM) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	out, err := m.Complete(ctx, req.Model, req.Messages[len(req.Messages)-1].Content)
	if err != nil {
		return nil, err
	}
	return &llm.ChatResponse{Message: out}, nil
}

func (m *scriptedLLM) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan string, <-chan error) {
	rc := make(chan string)
	ec := make(chan error, 1)
	close(rc)
	close(ec)
	return rc, ec
}

const (
	scoresJSON    = `{"activity":{"score":55,"note":"a"},"skillSignals":{"score":70,"note":"b"},"growth":{"score":30,"note":"c"},"collaboration":{"score":45,"note":"d"}}`
	narrativeJSON = `{"summary":"Decent base.","recommendations":["open PRs upstream"],"insights":{"strength":"skills","weakness":"growth","nextMove":"ship something"}}`
)

func projectsJSON() string {
	out := `{"projects":[`
	for i := 0; i < 4; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"title":"p%d","description":"d","stack":["go"],"difficulty":"starter","reason":"r"}`, i)
	}
	return out + `]}`
}

// githubStub serves a minimal profile for "octocat".
func githubStub(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"octocat","public_repos":8,"followers":120,"following":9,"created_at":"2015-04-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"hello","language":"Go","stargazers_count":30,"forks_count":4,"fork":false,"pushed_at":"2025-06-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("/search/commits", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_count":25}`))
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_count":3}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	echo     *echo.Echo
	usage    *usage.Service
	analysis *AnalysisHandler
	chat     *ChatHandler
	usageH   *UsageHandler
	account  *AccountHandler
}

func setupEnv(t *testing.T, mock llm.Client) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	st := &store.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.New("error", "text")

	usageSvc := usage.New(st, log, 30)
	analysisSvc := analysis.New(mock, st, log, 3)
	memoryMgr := memory.NewManager(st, mock, log)
	chatSvc := chat.New(mock, usageSvc, analysisSvc, memoryMgr, log)
	ghClient := github.NewClient(githubStub(t).URL, "")

	return &testEnv{
		echo:     echo.New(),
		usage:    usageSvc,
		analysis: NewAnalysisHandler(analysisSvc, usageSvc, ghClient, 5),
		chat:     NewChatHandler(chatSvc, 5),
		usageH:   NewUsageHandler(usageSvc),
		account:  NewAccountHandler(usageSvc, analysisSvc, memoryMgr),
	}
}

// do runs a handler with an authenticated context.
func (env *testEnv) do(t *testing.T, h echo.HandlerFunc, method, path, body, userID, plan string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	c.SetPath(path)
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextPlan, plan)
	require.NoError(t, h(c))
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	mock := &scriptedLLM{responses: []string{scoresJSON, narrativeJSON}}
	env := setupEnv(t, mock)

	rec := env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat"}`, "u1", "free")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Equal(t, 5, resp.Result.CookedLevel)
	assert.Equal(t, "simmering", resp.Result.LevelName)
	require.NotNil(t, resp.Remaining)
	assert.Equal(t, 0, *resp.Remaining, "free plan allows one analysis per window")
	assert.False(t, resp.UsingFallback)
}

func TestAnalyzeEndpoint_ModelOverride(t *testing.T) {
	mock := &scriptedLLM{responses: []string{scoresJSON, narrativeJSON}}
	env := setupEnv(t, mock)

	rec := env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat","model":"custom/model"}`, "u1", "student")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "custom/model", resp.Model)
	require.NotEmpty(t, mock.models)
	assert.Equal(t, "custom/model", mock.models[0], "override reaches the provider")
}

func TestAnalyzeEndpoint_DeniedAtLimit(t *testing.T) {
	mock := &scriptedLLM{responses: []string{scoresJSON, narrativeJSON}}
	env := setupEnv(t, mock)
	ctx := context.Background()

	// Burn the free plan's single analysis.
	require.NoError(t, env.usage.Increment(ctx, "u1", models.UsageReanalysis))

	rec := env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat"}`, "u1", "free")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 0, mock.calls, "denied requests never reach the model")
}

func TestAnalyzeEndpoint_InvalidBody(t *testing.T) {
	env := setupEnv(t, &scriptedLLM{})

	rec := env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":""}`, "u1", "free")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat","tone":"sarcastic"}`, "u1", "free")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpoint_ChargesOnlyOnSuccess(t *testing.T) {
	// Empty script: every model call fails, so retries exhaust.
	env := setupEnv(t, &scriptedLLM{})
	ctx := context.Background()

	rec := env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat"}`, "u1", "student")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	usageRec, err := env.usage.GetUsage(ctx, "u1", models.UsageReanalysis)
	require.NoError(t, err)
	assert.Equal(t, 0, usageRec.Current, "failed analyses cost nothing")
}

func TestGetLatestEndpoint(t *testing.T) {
	mock := &scriptedLLM{responses: []string{scoresJSON, narrativeJSON}}
	env := setupEnv(t, mock)

	rec := env.do(t, env.analysis.GetLatest, http.MethodGet, "/api/v1/analysis/latest", "", "u1", "free")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat"}`, "u1", "free")

	rec = env.do(t, env.analysis.GetLatest, http.MethodGet, "/api/v1/analysis/latest", "", "u1", "free")
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 5, result.CookedLevel)

	rec = env.do(t, env.analysis.DeleteLatest, http.MethodDelete, "/api/v1/analysis/latest", "", "u1", "free")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, env.analysis.GetLatest, http.MethodGet, "/api/v1/analysis/latest", "", "u1", "free")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectsEndpoint(t *testing.T) {
	mock := &scriptedLLM{responses: []string{projectsJSON()}}
	env := setupEnv(t, mock)

	rec := env.do(t, env.analysis.RecommendProjects, http.MethodPost, "/api/v1/projects",
		`{"username":"octocat"}`, "u1", "student")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.ProjectsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Projects, 4)
	require.NotNil(t, resp.Remaining)
	assert.Equal(t, 19, *resp.Remaining)
}

func TestProjectsEndpoint_FreePlanDenied(t *testing.T) {
	mock := &scriptedLLM{responses: []string{projectsJSON()}}
	env := setupEnv(t, mock)

	// Free plan carries a zero project quota.
	rec := env.do(t, env.analysis.RecommendProjects, http.MethodPost, "/api/v1/projects",
		`{"username":"octocat"}`, "u1", "free")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 0, mock.calls)
}

func TestChatMessageEndpoint(t *testing.T) {
	mock := &scriptedLLM{responses: []string{"You're simmering, not cooked."}}
	env := setupEnv(t, mock)

	rec := env.do(t, env.chat.SendMessage, http.MethodPost, "/api/v1/chat/message",
		`{"message":"am I cooked?"}`, "u1", "student")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply chat.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "You're simmering, not cooked.", reply.Message)
	require.NotNil(t, reply.Remaining)
	assert.Equal(t, 49, *reply.Remaining)
}

func TestChatMessageEndpoint_EmptyMessage(t *testing.T) {
	env := setupEnv(t, &scriptedLLM{})

	rec := env.do(t, env.chat.SendMessage, http.MethodPost, "/api/v1/chat/message",
		`{"message":""}`, "u1", "student")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSessionEndpoints(t *testing.T) {
	mock := &scriptedLLM{responses: []string{"first answer", `{"items":[]}`}}
	env := setupEnv(t, mock)

	env.do(t, env.chat.SendMessage, http.MethodPost, "/api/v1/chat/message",
		`{"message":"hello"}`, "u1", "student")

	rec := env.do(t, env.chat.ClearHistory, http.MethodPost, "/api/v1/chat/clear-history", "", "u1", "student")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, env.chat.EndSession, http.MethodPost, "/api/v1/chat/end-session", "", "u1", "student")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUsageSummaryEndpoint(t *testing.T) {
	env := setupEnv(t, &scriptedLLM{})
	ctx := context.Background()

	require.NoError(t, env.usage.Increment(ctx, "u1", models.UsageMessage))
	require.NoError(t, env.usage.Increment(ctx, "u1", models.UsageMessage))

	rec := env.do(t, env.usageH.GetSummary, http.MethodGet, "/api/v1/usage", "", "u1", "student")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.UsageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "student", summary.Plan)
	assert.Equal(t, 2, summary.Usage[models.UsageMessage])
	require.NotNil(t, summary.Limits[models.UsageMessage])
	assert.Equal(t, 50, *summary.Limits[models.UsageMessage])
}

func TestAccountDeleteData(t *testing.T) {
	mock := &scriptedLLM{responses: []string{scoresJSON, narrativeJSON}}
	env := setupEnv(t, mock)
	ctx := context.Background()

	env.do(t, env.analysis.Analyze, http.MethodPost, "/api/v1/analyze",
		`{"username":"octocat"}`, "u1", "free")

	rec := env.do(t, env.account.DeleteData, http.MethodDelete, "/api/v1/account/data", "", "u1", "free")
	require.Equal(t, http.StatusNoContent, rec.Code)

	usageRec, err := env.usage.GetUsage(ctx, "u1", models.UsageReanalysis)
	require.NoError(t, err)
	assert.Equal(t, 0, usageRec.Current)

	rec = env.do(t, env.analysis.GetLatest, http.MethodGet, "/api/v1/analysis/latest", "", "u1", "free")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
