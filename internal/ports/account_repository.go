package ports

import (
	"context"

	"github.com/bnema/codex-accounts-cli/internal/domain"
)

// AccountRepository owns the saved credential profiles and the single active
// credential file. LoadAll produces an atomic snapshot; mutations complete
// before the next load is triggered.
type AccountRepository interface {
	// LoadAll returns every saved account, active-first, with derived
	// identity fields populated. Individual unreadable records are skipped.
	LoadAll(ctx context.Context) ([]domain.Account, error)
	// SaveActive backs up the active credential file as a named account.
	SaveActive(ctx context.Context) (domain.Account, error)
	// Activate replaces the active credential file with the account's
	// minimal credential.
	Activate(ctx context.Context, account domain.Account) error
	// Delete removes a saved account's backing file. The active account is
	// refused, and deleting an already-missing file is an error.
	Delete(ctx context.Context, account domain.Account) error
}
