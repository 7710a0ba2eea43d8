package domain

import (
	"fmt"
	"time"
)

// TokenUsage mirrors the total_token_usage object of a Codex session
// token_count event.
type TokenUsage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	TotalTokens           int64 `json:"total_tokens"`
}

// BlendedTotal returns InputTokens + CachedInputTokens + OutputTokens.
func (u TokenUsage) BlendedTotal() int64 {
	return u.InputTokens + u.OutputTokens + u.CachedInputTokens
}

func (u TokenUsage) BlendedTotalCompact() string {
	return compactNumber(u.BlendedTotal())
}

func compactNumber(v int64) string {
	if v < 1_000 {
		return fmt.Sprintf("%d", v)
	}

	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(v)/1_000)
	}

	return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
}

// RateWindow is one usage-quota counter: a percentage used plus a reset
// countdown. Codex writes the countdown either as resets_in_seconds or as an
// absolute resets_at Unix timestamp depending on version.
type RateWindow struct {
	UsedPercent     float64 `json:"used_percent"`
	WindowMinutes   int     `json:"window_minutes,omitempty"`
	ResetsInSeconds float64 `json:"resets_in_seconds,omitempty"`
	ResetsAt        int64   `json:"resets_at,omitempty"`
}

// ResetTime resolves the reset instant relative to now, preferring the
// countdown form. The zero time means the window carries no reset hint.
func (w RateWindow) ResetTime(now time.Time) time.Time {
	if w.ResetsInSeconds > 0 {
		return now.Add(time.Duration(w.ResetsInSeconds * float64(time.Second)))
	}
	if w.ResetsAt > 0 {
		return time.Unix(w.ResetsAt, 0)
	}
	return time.Time{}
}

// RateLimits bundles the two independent quota windows Codex reports.
// Primary is the short (5h) window, secondary the weekly one.
type RateLimits struct {
	Primary   *RateWindow `json:"primary,omitempty"`
	Secondary *RateWindow `json:"secondary,omitempty"`
}

type UsageStatus string

const (
	UsageStatusChecking UsageStatus = "checking"
	UsageStatusSuccess  UsageStatus = "success"
	UsageStatusFailed   UsageStatus = "failed"
)

// UsageSummary is the result of one live usage read from session logs.
type UsageSummary struct {
	CheckTime  time.Time
	Status     UsageStatus
	TokenUsage TokenUsage
	RateLimits RateLimits
	Errors     []string
}

// SessionUsage is one usage record parsed out of a session log. TokenUsage
// is nil when the record carried rate limits but no token totals.
type SessionUsage struct {
	TokenUsage *TokenUsage
	RateLimits RateLimits
}

// UsageData is the cacheable slice of a successful usage summary.
type UsageData struct {
	CheckTime  string     `json:"check_time"`
	TokenUsage TokenUsage `json:"token_usage"`
	RateLimits RateLimits `json:"rate_limits"`
}
