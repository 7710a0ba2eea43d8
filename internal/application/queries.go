package application

import (
	"github.com/bnema/codex-accounts-cli/internal/domain"
)

// DisplayUsage is the usage slice rendered next to an account in listings.
// HasData false means neither the cache nor the session logs had anything.
type DisplayUsage struct {
	TokenUsage *domain.TokenUsage `json:"token_usage,omitempty"`
	Primary    *domain.RateWindow `json:"primary,omitempty"`
	Secondary  *domain.RateWindow `json:"secondary,omitempty"`
	FromCache  bool               `json:"from_cache"`
	HasData    bool               `json:"has_data"`
}
