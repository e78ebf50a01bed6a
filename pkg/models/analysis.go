package models

import "time"

// CategoryScore is one of the four fixed 0-100 sub-scores whose weighted
// average determines the cooked level.
type CategoryScore struct {
	Score int    `json:"score"`
	Note  string `json:"note"`
}

// CategoryScores holds all four required categories. Every valid analysis
// carries exactly these four; a missing category is a validation failure.
type CategoryScores struct {
	Activity      CategoryScore `json:"activity"`
	SkillSignals  CategoryScore `json:"skillSignals"`
	Growth        CategoryScore `json:"growth"`
	Collaboration CategoryScore `json:"collaboration"`
}

// Insights are the three named narrative strings attached to an analysis.
type Insights struct {
	Strength   string `json:"strength"`
	Weakness   string `json:"weakness"`
	NextMove   string `json:"nextMove"`
}

// AnalysisResult is the derived employability analysis for one user. It is
// superseded whole by each reanalysis, never merged.
type AnalysisResult struct {
	CategoryScores  CategoryScores `json:"categoryScores"`
	CookedLevel     int            `json:"cookedLevel"` // 1-10, derived, never AI-produced
	LevelName       string         `json:"levelName"`
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations"`
	Insights        Insights       `json:"insights"`
	Model           string         `json:"model"`
	UsingFallback   bool           `json:"usingFallback"`
	AnalyzedAt      time.Time      `json:"analyzedAt"`
}

// Project is a recommended portfolio project.
type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Stack       []string `json:"stack"`
	Difficulty  string   `json:"difficulty"`
	Reason      string   `json:"reason"`
}

// GitHubStats are the raw profile metrics fed into the analyzer.
type GitHubStats struct {
	Username          string         `json:"username"`
	PublicRepos       int            `json:"publicRepos"`
	Followers         int            `json:"followers"`
	Following         int            `json:"following"`
	TotalStars        int            `json:"totalStars"`
	TotalForks        int            `json:"totalForks"`
	CommitsLast90Days int            `json:"commitsLast90Days"`
	PullRequests      int            `json:"pullRequests"`
	IssuesOpened      int            `json:"issuesOpened"`
	Languages         map[string]int `json:"languages"`
	TopRepos          []RepoStats    `json:"topRepos"`
	AccountCreatedAt  time.Time      `json:"accountCreatedAt"`
	LastPushedAt      time.Time      `json:"lastPushedAt"`
}

// RepoStats summarizes a single repository.
type RepoStats struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	IsFork      bool   `json:"isFork"`
}

// UserProfile is the caller-supplied profile context for an analysis.
type UserProfile struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname,omitempty"`
	Goal     string `json:"goal,omitempty"`
	Field    string `json:"field,omitempty"`
}
