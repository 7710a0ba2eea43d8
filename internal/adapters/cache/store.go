// Package cache persists per-account usage snapshots as one JSON file per
// email under the usage cache directory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/codex-accounts-cli/internal/domain"
	"github.com/bnema/codex-accounts-cli/internal/ports"
)

const (
	entryFileSuffix = "_usage.json"
	entryFileMode   = 0o600
	entryDirMode    = 0o700
	tempFilePattern = ".usage-*.json.tmp"
)

type Store struct {
	dir    string
	ttl    time.Duration
	clock  ports.Clock
	logger *slog.Logger
	mu     sync.Mutex
}

var _ ports.UsageCache = (*Store)(nil)

func NewStore(dir string, ttl time.Duration, clock ports.Clock, logger *slog.Logger) *Store {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{dir: dir, ttl: ttl, clock: clock, logger: logger}
}

// entry is the on-disk payload. Email is stored in clear because the file
// name only carries its sanitized form.
type entry struct {
	Email       string           `json:"email"`
	LastUpdated string           `json:"last_updated"`
	UsageData   domain.UsageData `json:"usage_data"`
}

// Read returns the snapshot for email, or nil when the entry is absent,
// unreadable, or older than the staleness window. Cache misses are never
// errors; callers fall through to a live read.
func (s *Store) Read(ctx context.Context, email string) (*domain.UsageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.entryPath(email)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("discarding unreadable usage cache entry", "path", path, "error", err)
		}
		return nil, nil
	}

	var stored entry
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("discarding corrupt usage cache entry", "path", path, "error", err)
		return nil, nil
	}

	updated, err := time.Parse(time.RFC3339, stored.LastUpdated)
	if err != nil {
		s.logger.Warn("discarding usage cache entry with bad timestamp", "path", path, "error", err)
		return nil, nil
	}

	if s.clock.Now().Sub(updated) > s.ttl {
		return nil, nil
	}

	usage := stored.UsageData
	return &usage, nil
}

// Write unconditionally replaces the entry for email.
func (s *Store) Write(ctx context.Context, email string, data domain.UsageData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := entry{
		Email:       email,
		LastUpdated: s.clock.Now().UTC().Format(time.RFC3339),
		UsageData:   data,
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode usage cache entry: %w", err)
	}

	path := s.entryPath(email)
	if err := os.MkdirAll(filepath.Dir(path), entryDirMode); err != nil {
		return fmt.Errorf("create usage cache dir: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp usage cache file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp usage cache file: %w", err)
	}

	if err := tempFile.Chmod(entryFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp usage cache file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp usage cache file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace usage cache file: %w", err)
	}
	cleanup = false

	return nil
}

func (s *Store) entryPath(email string) string {
	return filepath.Join(s.dir, sanitizeEmail(email)+entryFileSuffix)
}

// sanitizeEmail maps an email to a stable filesystem-safe key. The @ marker
// goes first so the _at_ expansion keeps its underscores.
func sanitizeEmail(email string) string {
	key := strings.ReplaceAll(email, "@", "_at_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "+", "_plus_")
	return key
}
