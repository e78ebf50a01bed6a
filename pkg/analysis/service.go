// Package analysis orchestrates the AI analysis pipeline: prompt the model,
// validate the structured output, derive the cooked level, persist the
// result. The AI is never trusted with the final score.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Champion2005/amicooked-sub000/pkg/ai/llm"
	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

// Mode selects the pipeline shape.
type Mode string

const (
	// ModeSinglePhase asks for scores and narrative in one call.
	ModeSinglePhase Mode = "single"
	// ModeTwoPhase scores first with a narrow prompt, then synthesizes the
	// narrative around the fixed scores. More consistent, one extra call.
	ModeTwoPhase Mode = "two-phase"
)

// Request carries everything an analysis needs.
type Request struct {
	Stats         models.GitHubStats
	Profile       models.UserProfile
	Previous      *models.AnalysisResult
	ModelOverride string
	UsingFallback bool
	Tone          string
	Nickname      string
	Mode          Mode
}

// Service is the analysis pipeline orchestrator.
type Service struct {
	llm        llm.Client
	store      *store.Client
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

// New creates an analysis service. maxRetries bounds attempts per AI call;
// retries use linear backoff off a 500ms base.
func New(llmClient llm.Client, st *store.Client, log logger.Logger, maxRetries int) *Service {
	if log == nil {
		log = logger.Default()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Service{
		llm:        llmClient,
		store:      st,
		logger:     log,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
	}
}

// Analyze runs the pipeline against the given model and persists the result
// to the user's latest slot. On retry exhaustion it returns AnalysisFailed
// and persists nothing; defaulted scores are never substituted.
func (s *Service) Analyze(ctx context.Context, req Request, model string) (*models.AnalysisResult, error) {
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}
	if model == "" {
		return nil, domain.NewValidationError("no model resolved for analysis")
	}
	if req.Mode == "" {
		req.Mode = ModeTwoPhase
	}

	statsJSON, err := json.Marshal(req.Stats)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	previousSummary := ""
	if req.Previous != nil {
		previousSummary = req.Previous.Summary
	}

	var scores models.CategoryScores
	var narrative narrativePayload

	switch req.Mode {
	case ModeSinglePhase:
		scores, narrative, err = s.singlePhase(ctx, model, string(statsJSON), previousSummary, req)
	default:
		scores, narrative, err = s.twoPhase(ctx, model, string(statsJSON), previousSummary, req)
	}
	if err != nil {
		return nil, err
	}

	level := CookedLevel(scores)
	result := &models.AnalysisResult{
		CategoryScores:  scores,
		CookedLevel:     level,
		LevelName:       LevelName(level),
		Summary:         narrative.Summary,
		Recommendations: narrative.Recommendations,
		Insights:        narrative.Insights,
		Model:           model,
		UsingFallback:   req.UsingFallback,
		AnalyzedAt:      time.Now(),
	}

	if err := s.store.SetJSON(ctx, store.AnalysisKey(req.Profile.UserID), result, 0); err != nil {
		// The analysis itself succeeded; losing the persisted copy is not a
		// reason to discard it.
		s.logger.Error("failed to persist analysis", "user_id", req.Profile.UserID, "error", err)
	}

	s.logger.Info("analysis completed",
		"user_id", req.Profile.UserID,
		"mode", req.Mode,
		"model", model,
		"cooked_level", level)

	return result, nil
}

// twoPhase scores first, then synthesizes. The phase-one scores are passed
// into phase two verbatim and phase two cannot alter them.
func (s *Service) twoPhase(ctx context.Context, model, statsJSON, previousSummary string, req Request) (models.CategoryScores, narrativePayload, error) {
	var zeroScores models.CategoryScores
	var zeroNarrative narrativePayload

	scores, err := retryParse(ctx, s, "scoring", func(ctx context.Context) (models.CategoryScores, error) {
		raw, err := s.llm.Complete(ctx, model, llm.ScoringPrompt(statsJSON), llm.ScoringSystemPrompt)
		if err != nil {
			return zeroScores, domain.NewExternalCallError(err)
		}
		return parseScores(raw)
	})
	if err != nil {
		return zeroScores, zeroNarrative, err
	}

	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return zeroScores, zeroNarrative, domain.NewInternalError(err)
	}

	narrative, err := retryParse(ctx, s, "synthesis", func(ctx context.Context) (narrativePayload, error) {
		prompt := llm.SynthesisPrompt(statsJSON, string(scoresJSON), previousSummary, req.Nickname, req.Tone)
		raw, err := s.llm.Complete(ctx, model, prompt, llm.SynthesisSystemPrompt)
		if err != nil {
			return zeroNarrative, domain.NewExternalCallError(err)
		}
		return parseNarrative(raw)
	})
	if err != nil {
		return zeroScores, zeroNarrative, err
	}

	return scores, narrative, nil
}

func (s *Service) singlePhase(ctx context.Context, model, statsJSON, previousSummary string, req Request) (models.CategoryScores, narrativePayload, error) {
	type pair struct {
		scores    models.CategoryScores
		narrative narrativePayload
	}

	res, err := retryParse(ctx, s, "analysis", func(ctx context.Context) (pair, error) {
		prompt := llm.AnalysisPrompt(statsJSON, previousSummary, req.Nickname, req.Tone)
		raw, err := s.llm.Complete(ctx, model, prompt, llm.AnalysisSystemPrompt)
		if err != nil {
			return pair{}, domain.NewExternalCallError(err)
		}
		scores, narrative, err := parseFull(raw)
		if err != nil {
			return pair{}, err
		}
		return pair{scores: scores, narrative: narrative}, nil
	})
	if err != nil {
		return models.CategoryScores{}, narrativePayload{}, err
	}

	return res.scores, res.narrative, nil
}

// GetLatest reads the persisted latest analysis for a user.
func (s *Service) GetLatest(ctx context.Context, userID string) (*models.AnalysisResult, bool, error) {
	var result models.AnalysisResult
	found, err := s.store.GetJSON(ctx, store.AnalysisKey(userID), &result)
	if err != nil {
		return nil, false, domain.NewStoreUnavailableError(err)
	}
	if !found {
		return nil, false, nil
	}
	return &result, true, nil
}

// DeleteLatest removes the persisted analysis, for account resets.
func (s *Service) DeleteLatest(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, store.AnalysisKey(userID)); err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	return nil
}

// retryParse runs one AI call plus validation with the service's retry
// budget. Malformed responses and transport failures both burn an attempt;
// exhaustion surfaces as a fatal AnalysisFailed.
func retryParse[T any](ctx context.Context, s *Service, stage string, attempt func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < s.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(s.backoff * time.Duration(i)):
			}
		}

		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		s.logger.Warn("AI attempt failed",
			"stage", stage,
			"attempt", i+1,
			"max_attempts", s.maxRetries,
			"error", err)

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, domain.NewAnalysisFailedError(fmt.Errorf("%s exhausted %d attempts: %w", stage, s.maxRetries, lastErr))
}
