package accounts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/codex-accounts-cli/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

const weeklyWindowMinutes = 7 * 24 * 60

func renderView(rows []Row, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Codex Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(rows))),
	}

	if len(rows) == 0 {
		lines = append(lines, s.empty.Render("No saved accounts. Run 'ca save' to back up the active credential."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, row := range rows {
		lines = append(lines, s.section.Render(renderRow(row, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRow(row Row, opts RenderOptions, s styles) string {
	parts := []string{renderTitle(row, s)}

	detail := fmt.Sprintf("email: %s  saved: %s", row.Account.Email, row.Account.SavedAt)
	parts = append(parts, s.detail.Render(detail))

	parts = append(parts, usageLines(row, opts, s)...)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTitle(row Row, s styles) string {
	classification := domain.PlanClassification(row.Account.Plan)
	title := fmt.Sprintf("%s (%s)", strings.TrimSpace(row.Account.Name), classification)

	if row.Account.IsCurrent {
		return s.current.Render("* " + title + " [current]")
	}
	return s.account.Render("  " + title)
}

func usageLines(row Row, opts RenderOptions, s styles) []string {
	if !row.Usage.HasData {
		return []string{s.empty.Render("usage: n/a")}
	}

	lines := make([]string, 0, 3)
	for _, window := range []*domain.RateWindow{row.Usage.Primary, row.Usage.Secondary} {
		if window == nil {
			continue
		}
		lines = append(lines, limitLine(window, opts, s))
	}

	if row.Usage.TokenUsage != nil && row.Usage.TokenUsage.BlendedTotal() > 0 {
		lines = append(lines, s.detail.Render(fmt.Sprintf("tokens: %s", row.Usage.TokenUsage.BlendedTotalCompact())))
	}

	if len(lines) == 0 {
		return []string{s.empty.Render("usage: n/a")}
	}

	if row.Usage.FromCache {
		lines[len(lines)-1] += " " + s.cached.Render("[cached]")
	}

	return lines
}

func limitLine(window *domain.RateWindow, opts RenderOptions, s styles) string {
	leftPercent := clampPercent(100 - window.UsedPercent)
	bar := renderProgressBar(window.UsedPercent, 24, s)
	label := s.limitKey.Render(fmt.Sprintf("%s limit:", windowLabel(window.WindowMinutes)))
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(leftPercent, 0, 100))
	meta := percentStyle.Render(fmt.Sprintf("%2.0f%% left", leftPercent))

	resetsAt := window.ResetTime(opts.Now)
	resetStyle := lipgloss.NewStyle().Foreground(resetTimeColor(resetsAt, opts.Now, window.WindowMinutes))
	reset := resetStyle.Render(fmt.Sprintf("(%s)", formatResetRelative(resetsAt, opts.Now)))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		bar,
		" ",
		meta,
		" ",
		reset,
	)
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	leftFraction := (100.0 - used) / 100.0
	filled := int(math.Round(float64(width) * leftFraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func windowLabel(windowMinutes int) string {
	if windowMinutes >= weeklyWindowMinutes {
		return "weekly"
	}
	return "5hours"
}

func formatResetAt(resetsAt, now time.Time) string {
	if resetsAt.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return resetsAt.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := resetsAt.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return resetsAt.Format("15:04")
	}

	return resetsAt.Format("15:04 on 02 Jan")
}

func formatResetRelative(resetsAt, now time.Time) string {
	if now.IsZero() || resetsAt.IsZero() {
		return "resets " + formatResetAt(resetsAt, now)
	}

	if resetsAt.Before(now) {
		return "reset now"
	}

	remaining := resetsAt.Sub(now)
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours < 1 {
			hours = 1
		}
		suffix := "hours"
		if hours == 1 {
			suffix = "hour"
		}
		return fmt.Sprintf("resets in %d %s (%s)", hours, suffix, resetsAt.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	if days < 1 {
		days = 1
	}
	suffix := "days"
	if days == 1 {
		suffix = "day"
	}

	return fmt.Sprintf("resets in %d %s (%s)", days, suffix, resetsAt.Format("15:04 on 02 Jan"))
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// Greyscale ramp: faded 240 at min, bright 255 at max.
	baseColor := 240.0
	targetColor := 255.0
	interpolated := baseColor + (targetColor-baseColor)*normalized

	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}

func resetTimeColor(resetsAt, now time.Time, windowMinutes int) lipgloss.Color {
	if now.IsZero() || resetsAt.IsZero() || resetsAt.Before(now) {
		return lipgloss.Color("255")
	}

	remaining := resetsAt.Sub(now)

	maxDuration := 5 * time.Hour
	if windowMinutes >= weeklyWindowMinutes {
		maxDuration = 7 * 24 * time.Hour
	}

	// The closer the reset, the brighter the countdown.
	inverted := maxDuration.Seconds() - remaining.Seconds()
	return interpolateColor(inverted, 0, maxDuration.Seconds())
}
