package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// Category weights for the cooked level. Activity dominates because shipping
// regularly is the strongest employability signal in the data.
const (
	weightActivity      = 0.40
	weightSkillSignals  = 0.30
	weightGrowth        = 0.15
	weightCollaboration = 0.15
)

const (
	minRecommendations = 1
	maxRecommendations = 6
	minStack           = 1
	maxStack           = 6
	projectCount       = 4
)

// scoresPayload decodes a phase-one response. Pointers distinguish a missing
// category from a legitimate zero score.
type scoresPayload struct {
	Activity      *models.CategoryScore `json:"activity"`
	SkillSignals  *models.CategoryScore `json:"skillSignals"`
	Growth        *models.CategoryScore `json:"growth"`
	Collaboration *models.CategoryScore `json:"collaboration"`
}

// narrativePayload decodes a phase-two response.
type narrativePayload struct {
	Summary         string          `json:"summary"`
	Recommendations []string        `json:"recommendations"`
	Insights        models.Insights `json:"insights"`
}

// fullPayload decodes a single-phase response.
type fullPayload struct {
	CategoryScores *scoresPayload  `json:"categoryScores"`
	Summary        string          `json:"summary"`
	Recommendations []string       `json:"recommendations"`
	Insights       models.Insights `json:"insights"`
}

// projectsPayload decodes a project-recommendation response.
type projectsPayload struct {
	Projects []models.Project `json:"projects"`
}

// extractJSON strips markdown fences and any prose around the outermost JSON
// object. Models wrap JSON in fences often enough that this repair step pays
// for itself before declaring a response malformed.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", domain.NewMalformedAIError("response contains no JSON object")
	}
	return s[start : end+1], nil
}

// parseScores validates a phase-one response: all four categories present,
// every score within [0,100].
func parseScores(raw string) (models.CategoryScores, error) {
	var zero models.CategoryScores

	cleaned, err := extractJSON(raw)
	if err != nil {
		return zero, err
	}

	var payload scoresPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return zero, domain.NewMalformedAIError(fmt.Sprintf("response is not valid JSON: %v", err))
	}

	return validateScores(payload)
}

func validateScores(payload scoresPayload) (models.CategoryScores, error) {
	var zero models.CategoryScores

	categories := map[string]*models.CategoryScore{
		"activity":      payload.Activity,
		"skillSignals":  payload.SkillSignals,
		"growth":        payload.Growth,
		"collaboration": payload.Collaboration,
	}
	for name, score := range categories {
		if score == nil {
			return zero, domain.NewMalformedAIError(fmt.Sprintf("missing category %q", name))
		}
		if score.Score < 0 || score.Score > 100 {
			return zero, domain.NewMalformedAIError(fmt.Sprintf("category %q score %d outside [0,100]", name, score.Score))
		}
	}

	return models.CategoryScores{
		Activity:      *payload.Activity,
		SkillSignals:  *payload.SkillSignals,
		Growth:        *payload.Growth,
		Collaboration: *payload.Collaboration,
	}, nil
}

// parseNarrative validates a phase-two response.
func parseNarrative(raw string) (narrativePayload, error) {
	var zero narrativePayload

	cleaned, err := extractJSON(raw)
	if err != nil {
		return zero, err
	}

	var payload narrativePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return zero, domain.NewMalformedAIError(fmt.Sprintf("response is not valid JSON: %v", err))
	}

	if err := validateNarrative(payload); err != nil {
		return zero, err
	}
	return payload, nil
}

func validateNarrative(payload narrativePayload) error {
	if strings.TrimSpace(payload.Summary) == "" {
		return domain.NewMalformedAIError("missing summary")
	}
	if n := len(payload.Recommendations); n < minRecommendations || n > maxRecommendations {
		return domain.NewMalformedAIError(fmt.Sprintf("recommendations count %d outside [%d,%d]", n, minRecommendations, maxRecommendations))
	}
	if payload.Insights.Strength == "" || payload.Insights.Weakness == "" || payload.Insights.NextMove == "" {
		return domain.NewMalformedAIError("missing insight fields")
	}
	return nil
}

// parseFull validates a single-phase response.
func parseFull(raw string) (models.CategoryScores, narrativePayload, error) {
	var zeroScores models.CategoryScores
	var zeroNarrative narrativePayload

	cleaned, err := extractJSON(raw)
	if err != nil {
		return zeroScores, zeroNarrative, err
	}

	var payload fullPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return zeroScores, zeroNarrative, domain.NewMalformedAIError(fmt.Sprintf("response is not valid JSON: %v", err))
	}

	if payload.CategoryScores == nil {
		return zeroScores, zeroNarrative, domain.NewMalformedAIError("missing categoryScores")
	}
	scores, err := validateScores(*payload.CategoryScores)
	if err != nil {
		return zeroScores, zeroNarrative, err
	}

	narrative := narrativePayload{
		Summary:         payload.Summary,
		Recommendations: payload.Recommendations,
		Insights:        payload.Insights,
	}
	if err := validateNarrative(narrative); err != nil {
		return zeroScores, zeroNarrative, err
	}

	return scores, narrative, nil
}

// parseProjects validates a recommendation response: exactly four projects,
// each with a non-empty title and a 1-6 entry stack.
func parseProjects(raw string) ([]models.Project, error) {
	cleaned, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var payload projectsPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, domain.NewMalformedAIError(fmt.Sprintf("response is not valid JSON: %v", err))
	}

	if len(payload.Projects) != projectCount {
		return nil, domain.NewMalformedAIError(fmt.Sprintf("expected %d projects, got %d", projectCount, len(payload.Projects)))
	}
	for i, p := range payload.Projects {
		if strings.TrimSpace(p.Title) == "" {
			return nil, domain.NewMalformedAIError(fmt.Sprintf("project %d missing title", i))
		}
		if n := len(p.Stack); n < minStack || n > maxStack {
			return nil, domain.NewMalformedAIError(fmt.Sprintf("project %d stack size %d outside [%d,%d]", i, n, minStack, maxStack))
		}
	}

	return payload.Projects, nil
}

// CookedLevel derives the 1-10 level from the four category scores. This is
// always computed here, never taken from the AI: weighted average in [0,100],
// divided by 10, rounded half up, clamped to [1,10].
func CookedLevel(scores models.CategoryScores) int {
	weighted := weightActivity*float64(scores.Activity.Score) +
		weightSkillSignals*float64(scores.SkillSignals.Score) +
		weightGrowth*float64(scores.Growth.Score) +
		weightCollaboration*float64(scores.Collaboration.Score)

	level := int(math.Floor(weighted/10 + 0.5))
	if level < 1 {
		level = 1
	}
	if level > 10 {
		level = 10
	}
	return level
}

// LevelName maps a cooked level to its tier label.
func LevelName(level int) string {
	switch {
	case level >= 9:
		return "golden"
	case level >= 7:
		return "toasted"
	case level >= 5:
		return "simmering"
	case level >= 3:
		return "undercooked"
	default:
		return "raw"
	}
}
