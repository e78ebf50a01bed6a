// Package testdata generates realistic GitHub profile fixtures for tests and
// local development seeding.
package testdata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// ProfileGeneratorConfig configures profile generation parameters
type ProfileGeneratorConfig struct {
	Username    string
	RepoCount   int
	MinStars    int
	MaxStars    int
	ForkChance  float64 // 0.0-1.0 (probability a repo is a fork)
	AgeYears    int     // account age
	ActiveDays  int     // days since last push
	Languages   []string
}

var defaultLanguages = []string{
	"Go", "TypeScript", "Python", "Rust", "Java",
	"C++", "Ruby", "Kotlin", "Swift", "JavaScript",
}

var repoNameParts = struct {
	Prefixes []string
	Suffixes []string
}{
	Prefixes: []string{"go", "awesome", "mini", "fast", "micro", "simple", "tiny", "super", "auto", "smart"},
	Suffixes: []string{"cli", "api", "server", "parser", "bot", "kit", "tool", "engine", "lib", "dashboard"},
}

// GenerateStats produces a full GitHubStats fixture.
func GenerateStats(cfg ProfileGeneratorConfig) models.GitHubStats {
	if cfg.Username == "" {
		cfg.Username = gofakeit.Username()
	}
	if cfg.RepoCount == 0 {
		cfg.RepoCount = rand.Intn(30) + 5
	}
	if cfg.MaxStars == 0 {
		cfg.MaxStars = 100
	}
	if cfg.AgeYears == 0 {
		cfg.AgeYears = rand.Intn(8) + 1
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = defaultLanguages
	}

	languages := make(map[string]int)
	var topRepos []models.RepoStats
	totalStars, totalForks := 0, 0
	lastPushed := time.Now().AddDate(0, 0, -cfg.ActiveDays)

	for i := 0; i < cfg.RepoCount; i++ {
		lang := cfg.Languages[rand.Intn(len(cfg.Languages))]
		stars := cfg.MinStars + rand.Intn(cfg.MaxStars-cfg.MinStars+1)
		forks := stars / 5

		if rand.Float64() >= cfg.ForkChance {
			languages[lang]++
			totalStars += stars
			totalForks += forks

			if len(topRepos) < 5 {
				topRepos = append(topRepos, models.RepoStats{
					Name:        generateRepoName(),
					Description: gofakeit.Sentence(6),
					Language:    lang,
					Stars:       stars,
					Forks:       forks,
				})
			}
		}
	}

	return models.GitHubStats{
		Username:          cfg.Username,
		PublicRepos:       cfg.RepoCount,
		Followers:         rand.Intn(500),
		Following:         rand.Intn(200),
		TotalStars:        totalStars,
		TotalForks:        totalForks,
		CommitsLast90Days: rand.Intn(400),
		PullRequests:      rand.Intn(150),
		IssuesOpened:      rand.Intn(80),
		Languages:         languages,
		TopRepos:          topRepos,
		AccountCreatedAt:  time.Now().AddDate(-cfg.AgeYears, 0, 0),
		LastPushedAt:      lastPushed,
	}
}

// GenerateAnalysisResult produces a plausible persisted analysis fixture.
func GenerateAnalysisResult(model string) models.AnalysisResult {
	scores := models.CategoryScores{
		Activity:      models.CategoryScore{Score: rand.Intn(101), Note: gofakeit.Sentence(5)},
		SkillSignals:  models.CategoryScore{Score: rand.Intn(101), Note: gofakeit.Sentence(5)},
		Growth:        models.CategoryScore{Score: rand.Intn(101), Note: gofakeit.Sentence(5)},
		Collaboration: models.CategoryScore{Score: rand.Intn(101), Note: gofakeit.Sentence(5)},
	}

	level := analysis.CookedLevel(scores)
	return models.AnalysisResult{
		CategoryScores: scores,
		CookedLevel:    level,
		LevelName:      analysis.LevelName(level),
		Summary:        gofakeit.Paragraph(1, 3, 10, " "),
		Recommendations: []string{
			gofakeit.Sentence(8),
			gofakeit.Sentence(8),
		},
		Insights: models.Insights{
			Strength: gofakeit.Sentence(6),
			Weakness: gofakeit.Sentence(6),
			NextMove: gofakeit.Sentence(6),
		},
		Model:      model,
		AnalyzedAt: time.Now().UTC(),
	}
}

func generateRepoName() string {
	prefix := repoNameParts.Prefixes[rand.Intn(len(repoNameParts.Prefixes))]
	suffix := repoNameParts.Suffixes[rand.Intn(len(repoNameParts.Suffixes))]
	return fmt.Sprintf("%s-%s", prefix, suffix)
}
