package domain

import "strings"

// PlanClassification buckets a raw chatgpt_plan_type into a display label.
func PlanClassification(planType string) string {
	switch strings.ToLower(strings.TrimSpace(planType)) {
	case "", UnknownLabel:
		return "Unknown"
	case "team":
		return "Team"
	case "business", "enterprise", "education", "edu", "k12", "quorum", "free_workspace":
		return "Business"
	default:
		return "Personal"
	}
}
