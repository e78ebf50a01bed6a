package models

import "time"

// UsageType is a rate-limited action category.
type UsageType string

const (
	UsageMessage     UsageType = "MESSAGE"
	UsageReanalysis  UsageType = "REANALYSIS"
	UsageProjectChat UsageType = "PROJECT_CHAT"
)

// AllUsageTypes enumerates every usage type the system meters. Every plan
// must carry a limit entry (possibly unlimited) for each of these.
var AllUsageTypes = []UsageType{UsageMessage, UsageReanalysis, UsageProjectChat}

// UsageRecord is the persisted rolling-window counter for one
// (user, usage type) pair. The counter only moves through atomic increments;
// the window resets when PERIOD_DAYS have elapsed since WindowStart.
type UsageRecord struct {
	Current     int       `json:"current"`
	WindowStart time.Time `json:"windowStart"`
}

// LimitCheckResult is the transient outcome of a limit check. It is never
// persisted.
type LimitCheckResult struct {
	Allowed       bool   `json:"allowed"`
	Current       int    `json:"current"`
	Limit         *int   `json:"limit"` // nil means unlimited
	UsingFallback bool   `json:"usingFallback"`
	Model         string `json:"model,omitempty"`
}

// UsageSummary reports a user's plan and consumption across all usage types.
type UsageSummary struct {
	Plan   string            `json:"plan"`
	Usage  map[UsageType]int `json:"usage"`
	Limits map[UsageType]*int `json:"limits"`
	ResetAt time.Time        `json:"resetAt"`
}
