package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/codex-accounts-cli/internal/application"
	"github.com/bnema/codex-accounts-cli/internal/domain"
)

func TestRenderEmptyListing(t *testing.T) {
	output, err := Render(nil, RenderOptions{Now: time.Now()})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 0")
	assert.Contains(t, output, "No saved accounts")
}

func TestRenderMarksCurrentAccount(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]Row{
		{
			Account: domain.Account{Name: "work", Email: "work@test.com", Plan: "team", SavedAt: "02-10 09:30", IsCurrent: true},
			Usage: application.DisplayUsage{
				HasData: true,
				Primary: &domain.RateWindow{UsedPercent: 73.2, WindowMinutes: 300, ResetsInSeconds: 13 * 3600},
			},
		},
		{
			Account: domain.Account{Name: "personal", Email: "me@test.com", Plan: "plus", SavedAt: "01-05 18:00"},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "accounts: 2")
	assert.Contains(t, output, "* work (Team) [current]")
	assert.Contains(t, output, "personal (Personal)")
	assert.Contains(t, output, "email: work@test.com")
	assert.Contains(t, output, "saved: 02-10 09:30")
	assert.Contains(t, output, "5hours limit:")
	assert.Contains(t, output, "27% left")
	assert.Contains(t, output, "resets in 13 hours (00:00)")
}

func TestRenderBothWindowsAndTokenTotal(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]Row{
		{
			Account: domain.Account{Name: "work", Email: "work@test.com", SavedAt: "02-10 09:30", IsCurrent: true},
			Usage: application.DisplayUsage{
				HasData:    true,
				TokenUsage: &domain.TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000, CachedInputTokens: 100_000},
				Primary:    &domain.RateWindow{UsedPercent: 52.5, WindowMinutes: 300, ResetsInSeconds: 5 * 3600},
				Secondary:  &domain.RateWindow{UsedPercent: 12.3, WindowMinutes: 10080, ResetsInSeconds: 4 * 24 * 3600},
			},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "5hours limit:")
	assert.Contains(t, output, "weekly limit:")
	assert.Contains(t, output, "48% left")
	assert.Contains(t, output, "88% left")
	assert.Contains(t, output, "resets in 5 hours (16:00)")
	assert.Contains(t, output, "resets in 4 days (11:00 on 18 Feb)")
	assert.Contains(t, output, "tokens: 1.6M")
}

func TestRenderCachedBadge(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]Row{
		{
			Account: domain.Account{Name: "other", Email: "other@test.com", SavedAt: "02-01 08:00"},
			Usage: application.DisplayUsage{
				HasData:   true,
				FromCache: true,
				Primary:   &domain.RateWindow{UsedPercent: 20, WindowMinutes: 300, ResetsInSeconds: 3600},
			},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "[cached]")
}

func TestRenderNoUsageFallback(t *testing.T) {
	output, err := Render([]Row{
		{Account: domain.Account{Name: "cold", Email: "cold@test.com", SavedAt: "01-01 00:00"}},
	}, RenderOptions{Now: time.Now()})

	require.NoError(t, err)
	assert.Contains(t, output, "usage: n/a")
	assert.NotContains(t, output, "[cached]")
}

func TestRenderResetsAtAbsoluteTimestamp(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]Row{
		{
			Account: domain.Account{Name: "work", Email: "work@test.com", SavedAt: "02-10 09:30"},
			Usage: application.DisplayUsage{
				HasData: true,
				Primary: &domain.RateWindow{UsedPercent: 90, WindowMinutes: 300, ResetsAt: now.Add(-time.Hour).Unix()},
			},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "reset now")
	assert.Contains(t, output, "10% left")
}
