package analysis

import (
	"context"
	"encoding/json"

	"github.com/Champion2005/amicooked-sub000/pkg/ai/llm"
	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
)

// RecommendProjects asks the model for exactly four portfolio projects
// grounded in the user's metrics and latest analysis. Same retry budget as
// the analysis pipeline.
func (s *Service) RecommendProjects(ctx context.Context, stats models.GitHubStats, previous *models.AnalysisResult, model string) ([]models.Project, error) {
	if model == "" {
		return nil, domain.NewValidationError("no model resolved for project recommendations")
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	analysisJSON := ""
	if previous != nil {
		raw, err := json.Marshal(previous)
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		analysisJSON = string(raw)
	}

	projects, err := retryParse(ctx, s, "projects", func(ctx context.Context) ([]models.Project, error) {
		prompt := llm.ProjectsPrompt(string(statsJSON), analysisJSON)
		raw, err := s.llm.Complete(ctx, model, prompt, llm.ProjectsSystemPrompt)
		if err != nil {
			return nil, domain.NewExternalCallError(err)
		}
		return parseProjects(raw)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("projects recommended", "model", model, "count", len(projects))
	return projects, nil
}
