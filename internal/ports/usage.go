package ports

import (
	"context"

	"github.com/bnema/codex-accounts-cli/internal/domain"
)

// SessionScanner discovers and parses Codex session logs. Both methods treat
// missing data as an empty result, not an error; errors are reserved for I/O
// failures outside the scanner's skip-and-continue policy.
type SessionScanner interface {
	// FindUsageSource returns the path of the newest session log likely to
	// contain a usage record, or "" when no candidate exists.
	FindUsageSource(ctx context.Context) (string, error)
	// ExtractLatestUsage returns the most recent usage record of the given
	// log file, or nil when the file has none.
	ExtractLatestUsage(ctx context.Context, path string) (*domain.SessionUsage, error)
}

// UsageCache persists per-account usage snapshots keyed by email.
type UsageCache interface {
	// Read returns the cached snapshot, or nil when the entry is absent,
	// unparsable, or older than the staleness window.
	Read(ctx context.Context, email string) (*domain.UsageData, error)
	// Write unconditionally replaces the entry for email.
	Write(ctx context.Context, email string, data domain.UsageData) error
}
