// Package fs stores saved credential profiles as one JSON file per account
// under an accounts directory, alongside the Codex CLI's single active
// credential file.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/codex-accounts-cli/internal/config"
	"github.com/bnema/codex-accounts-cli/internal/domain"
	"github.com/bnema/codex-accounts-cli/internal/identity"
	"github.com/bnema/codex-accounts-cli/internal/ports"
)

const (
	accountFileExt  = ".json"
	backupSuffix    = ".backup"
	recordFileMode  = 0o600
	recordDirMode   = 0o700
	tempFilePattern = ".credential-*.json.tmp"

	savedAtDisplayFormat = "01-02 15:04"
)

type Repository struct {
	paths  config.Paths
	clock  ports.Clock
	logger *slog.Logger
	mu     *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.AccountRepository = (*Repository)(nil)

func NewRepository(paths config.Paths, clock ports.Clock, logger *slog.Logger) *Repository {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Repository{
		paths:  paths,
		clock:  clock,
		logger: logger,
		mu:     lockForPath(paths.AccountsDir),
	}
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) LoadAll(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	currentEmail := r.activeEmail()

	entries, err := os.ReadDir(r.paths.AccountsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Account{}, nil
		}
		return nil, fmt.Errorf("read accounts directory: %w", err)
	}

	accounts := make([]domain.Account, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), accountFileExt) {
			continue
		}

		path := filepath.Join(r.paths.AccountsDir, entry.Name())
		record, err := readRecord(path)
		if err != nil {
			r.logger.Warn("skipping unreadable account file", "path", path, "error", err)
			continue
		}

		accounts = append(accounts, buildAccount(entry.Name(), path, record, currentEmail))
	}

	domain.SortAccounts(accounts)
	return accounts, nil
}

// activeEmail derives the email of the active credential file; a missing or
// unreadable file simply means no account is flagged current.
func (r *Repository) activeEmail() string {
	record, err := readRecord(r.paths.ActiveAuthFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("ignoring unreadable active credential file",
				"path", r.paths.ActiveAuthFile, "error", err)
		}
		return ""
	}

	return identity.ExtractEmail(record)
}

func buildAccount(fileName, path string, record domain.CredentialRecord, currentEmail string) domain.Account {
	email := identity.ExtractEmail(record)

	return domain.Account{
		Name:      strings.TrimSuffix(fileName, accountFileExt),
		Email:     orUnknown(email),
		Plan:      orUnknown(identity.ExtractPlan(record)),
		SavedAt:   formatSavedAt(record.StringField(domain.KeySavedAt)),
		IsCurrent: currentEmail != "" && email == currentEmail,
		Path:      path,
		Record:    record,
	}
}

func (r *Repository) SaveActive(ctx context.Context) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := readRecord(r.paths.ActiveAuthFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Account{}, domain.ErrMissingActiveCredential
		}
		return domain.Account{}, fmt.Errorf("read active credential file: %w", err)
	}

	email := identity.ExtractEmail(record)
	if email == "" {
		return domain.Account{}, domain.ErrUnresolvableIdentity
	}

	name := identity.GenerateAccountName(email)
	savedAt := r.clock.Now().Format(time.RFC3339)

	saved := record.Clone()
	saved[domain.KeySavedAt] = savedAt
	saved[domain.KeyAccountName] = name
	saved[domain.KeyEmail] = email

	path := filepath.Join(r.paths.AccountsDir, name+accountFileExt)
	if err := writeRecord(path, saved); err != nil {
		return domain.Account{}, err
	}

	return domain.Account{
		Name:      name,
		Email:     email,
		Plan:      orUnknown(identity.ExtractPlan(saved)),
		SavedAt:   formatSavedAt(savedAt),
		IsCurrent: true,
		Path:      path,
		Record:    saved,
	}, nil
}

func (r *Repository) Activate(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !account.Record.HasTokens() {
		return domain.ErrEmptyCredential
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backupActive(); err != nil {
		r.logger.Warn("could not back up active credential file", "error", err)
	}

	return writeRecord(r.paths.ActiveAuthFile, account.Record.Minimal())
}

func (r *Repository) Delete(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if account.IsCurrent {
		return domain.ErrCannotDeleteActive
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(account.Path); err != nil {
		return fmt.Errorf("delete account file: %w", err)
	}

	return nil
}

func (r *Repository) backupActive() error {
	data, err := os.ReadFile(r.paths.ActiveAuthFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read active credential file: %w", err)
	}

	backupPath := r.paths.ActiveAuthFile + backupSuffix
	if err := os.WriteFile(backupPath, data, recordFileMode); err != nil {
		return fmt.Errorf("write credential backup: %w", err)
	}

	return nil
}

func readRecord(path string) (domain.CredentialRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record domain.CredentialRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode credential file: %w", err)
	}

	return record, nil
}

// writeRecord replaces path with the encoded record via a temp-file rename,
// so a credential file is never left partially written.
func writeRecord(path string, record domain.CredentialRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), recordDirMode); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp credential file: %w", err)
	}

	if err := tempFile.Chmod(recordFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp credential file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp credential file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	cleanup = false

	if err := os.Chmod(path, recordFileMode); err != nil {
		return fmt.Errorf("chmod credential file: %w", err)
	}

	return nil
}

func orUnknown(value string) string {
	if value == "" {
		return domain.UnknownLabel
	}
	return value
}

// formatSavedAt renders a stored saved_at timestamp as "MM-DD HH:MM" local
// time. Timestamps without an offset (older backups) are taken as local.
func formatSavedAt(raw string) string {
	if raw == "" {
		return domain.UnknownLabel
	}

	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.Local().Format(savedAtDisplayFormat)
	}

	if parsed, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.Local); err == nil {
		return parsed.Format(savedAtDisplayFormat)
	}

	return domain.UnknownLabel
}
