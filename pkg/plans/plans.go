// Package plans is the static plan registry: per-plan usage limits, model
// identifiers, and memory bounds. Pure lookup, no side effects.
package plans

import "github.com/Champion2005/amicooked-sub000/pkg/models"

// PlanID identifies a subscription plan.
type PlanID string

const (
	PlanFree     PlanID = "free"
	PlanStudent  PlanID = "student"
	PlanPro      PlanID = "pro"
	PlanUltimate PlanID = "ultimate"
)

// PlanConfig is the immutable configuration for one plan. A nil limit means
// unlimited; a zero limit always denies (or falls back when HasFallback).
type PlanConfig struct {
	ID            PlanID
	DisplayName   string
	MonthlyPriceUSD float64
	Limits        map[models.UsageType]*int
	PrimaryModel  string
	FallbackModel string
	HasFallback   bool
	MemoryLimit   int
	MemoryEnabled bool
}

func intp(v int) *int { return &v }

// Model identifiers are OpenRouter slugs.
const (
	modelFree    = "meta-llama/llama-3.3-70b-instruct:free"
	modelStudent = "openai/gpt-4o-mini"
	modelPro     = "anthropic/claude-3.5-sonnet"
)

var registry = map[PlanID]PlanConfig{
	PlanFree: {
		ID:          PlanFree,
		DisplayName: "Free",
		Limits: map[models.UsageType]*int{
			models.UsageMessage:     intp(5),
			models.UsageReanalysis:  intp(1),
			models.UsageProjectChat: intp(0),
		},
		PrimaryModel: modelFree,
		HasFallback:  false,
		MemoryLimit:  0,
	},
	PlanStudent: {
		ID:              PlanStudent,
		DisplayName:     "Student",
		MonthlyPriceUSD: 4.99,
		Limits: map[models.UsageType]*int{
			models.UsageMessage:     intp(50),
			models.UsageReanalysis:  intp(5),
			models.UsageProjectChat: intp(20),
		},
		PrimaryModel:  modelStudent,
		FallbackModel: modelFree,
		HasFallback:   true,
		MemoryLimit:   20,
		MemoryEnabled: true,
	},
	PlanPro: {
		ID:              PlanPro,
		DisplayName:     "Pro",
		MonthlyPriceUSD: 9.99,
		Limits: map[models.UsageType]*int{
			models.UsageMessage:     intp(200),
			models.UsageReanalysis:  intp(20),
			models.UsageProjectChat: intp(100),
		},
		PrimaryModel:  modelPro,
		FallbackModel: modelStudent,
		HasFallback:   true,
		MemoryLimit:   50,
		MemoryEnabled: true,
	},
	PlanUltimate: {
		ID:              PlanUltimate,
		DisplayName:     "Ultimate",
		MonthlyPriceUSD: 19.99,
		Limits: map[models.UsageType]*int{
			models.UsageMessage:     nil,
			models.UsageReanalysis:  nil,
			models.UsageProjectChat: nil,
		},
		PrimaryModel:  modelPro,
		FallbackModel: modelStudent,
		HasFallback:   true,
		MemoryLimit:   200,
		MemoryEnabled: true,
	},
}

// Get returns the configuration for a plan, defaulting unknown or empty ids
// to the free plan. Never fails.
func Get(id PlanID) PlanConfig {
	if cfg, ok := registry[id]; ok {
		return cfg
	}
	return registry[PlanFree]
}

// Limit returns the limit for a usage type under a plan. nil means unlimited.
// Unknown usage types resolve to a zero limit rather than unlimited.
func Limit(id PlanID, usageType models.UsageType) *int {
	cfg := Get(id)
	if limit, ok := cfg.Limits[usageType]; ok {
		return limit
	}
	return intp(0)
}

// All returns every registered plan, for the pricing surface.
func All() []PlanConfig {
	return []PlanConfig{
		registry[PlanFree],
		registry[PlanStudent],
		registry[PlanPro],
		registry[PlanUltimate],
	}
}
