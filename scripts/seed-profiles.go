// Seeds the local Redis with generated GitHub profiles, analyses, and usage
// counters for development. Not part of the API binary.
//
// Usage:
//
//	go run scripts/seed-profiles.go -users 20 -reset
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"github.com/Champion2005/amicooked-sub000/config"
	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
	"github.com/Champion2005/amicooked-sub000/pkg/testdata"
)

var seedPlans = []plans.PlanID{plans.PlanFree, plans.PlanStudent, plans.PlanPro, plans.PlanUltimate}

func main() {
	users := flag.Int("users", 20, "Number of users to seed")
	reset := flag.Bool("reset", false, "Delete existing seeded user state first")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	st, err := store.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	if *reset {
		deleted, err := st.DeletePattern(ctx, "users:*")
		if err != nil {
			log.Fatalf("Failed to reset user state: %v", err)
		}
		log.Printf("Reset: deleted %d keys", deleted)
	}

	for i := 0; i < *users; i++ {
		planID := seedPlans[i%len(seedPlans)]
		if err := seedUser(ctx, st, planID); err != nil {
			log.Printf("Failed to seed user %d: %v", i, err)
			continue
		}
	}

	log.Printf("Seeded %d users across %d plans", *users, len(seedPlans))
}

func seedUser(ctx context.Context, st *store.Client, planID plans.PlanID) error {
	stats := testdata.GenerateStats(testdata.ProfileGeneratorConfig{
		ForkChance: 0.2,
		ActiveDays: rand.Intn(60),
	})
	userID := stats.Username

	plan := plans.Get(planID)
	result := testdata.GenerateAnalysisResult(plan.PrimaryModel)
	if err := st.SetJSON(ctx, store.AnalysisKey(userID), result, 0); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if err := st.SetJSON(ctx, store.PlanKey(userID), models.PlanRecord{
		PlanID:    string(planID),
		UpdatedAt: time.Now().UTC(),
	}, 0); err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	// Partial consumption so the usage dashboard has something to show.
	for _, ut := range models.AllUsageTypes {
		used := 0
		if limit := plans.Limit(planID, ut); limit != nil && *limit > 0 {
			used = rand.Intn(*limit)
		} else if limit == nil {
			used = rand.Intn(25)
		}
		if used == 0 {
			continue
		}
		key := store.UsageKey(userID, string(ut))
		if err := st.HSet(ctx, key, "count", used, "window_start", time.Now().Add(-time.Duration(rand.Intn(20))*24*time.Hour).Unix()); err != nil {
			return fmt.Errorf("usage: %w", err)
		}
	}

	if plan.MemoryEnabled {
		item := models.MemoryItem{
			Type:      models.MemoryGoal,
			Content:   fmt.Sprintf("wants to reach cooked level %d", analysis.CookedLevel(result.CategoryScores)),
			CreatedAt: time.Now().UTC(),
		}
		if err := st.PushCapped(ctx, store.MemoryKey(userID), item, plan.MemoryLimit); err != nil {
			return fmt.Errorf("memory: %w", err)
		}
	}

	log.Printf("Seeded %s (%s): level %d, %d repos", userID, planID, result.CookedLevel, stats.PublicRepos)
	return nil
}
