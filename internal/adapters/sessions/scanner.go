// Package sessions discovers Codex CLI session logs and extracts usage
// records from them. Session files are newline-delimited JSON events; the
// scanner only cares about token_count payloads.
package sessions

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bnema/codex-accounts-cli/internal/domain"
	"github.com/bnema/codex-accounts-cli/internal/ports"
)

const (
	rolloutPrefix = "rollout-"
	rolloutSuffix = ".jsonl"

	// probeLimit bounds how many recent candidates are inspected for a
	// token_count payload before falling back to the most recent file.
	// A usable record further back than ten sessions is treated as absent.
	probeLimit = 10

	// tailProbeLines is how many trailing lines the cheap probe reads.
	tailProbeLines = 20

	payloadTypeTokenCount = "token_count"
)

type Scanner struct {
	dir    string
	logger *slog.Logger
}

var _ ports.SessionScanner = (*Scanner)(nil)

func NewScanner(dir string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Scanner{dir: dir, logger: logger}
}

type candidate struct {
	path    string
	modTime time.Time
}

// FindUsageSource walks the session directory for rollout-*.jsonl files,
// probes the most recently modified ones for a token_count payload, and
// returns the first that qualifies. When none of the probed candidates
// qualify it degrades to the single most recent file; "" means the session
// directory holds no candidates at all.
func (s *Scanner) FindUsageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	candidates := s.collectCandidates()
	if len(candidates) == 0 {
		return "", nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	limit := probeLimit
	if len(candidates) < limit {
		limit = len(candidates)
	}

	for _, entry := range candidates[:limit] {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.hasTokenCountData(entry.path) {
			return entry.path, nil
		}
	}

	s.logger.Debug("no probed session file carries usage data, falling back to most recent",
		"probed", limit, "candidates", len(candidates))
	return candidates[0].path, nil
}

func (s *Scanner) collectCandidates() []candidate {
	var candidates []candidate

	_ = filepath.WalkDir(s.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, never fatal.
			s.logger.Debug("skipping unreadable session path", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		name := entry.Name()
		if !strings.HasPrefix(name, rolloutPrefix) || !strings.HasSuffix(name, rolloutSuffix) {
			return nil
		}

		// A failed stat sinks the file to the end of the ranking
		// instead of aborting the walk.
		modTime := time.Time{}
		if info, err := entry.Info(); err == nil {
			modTime = info.ModTime()
		}

		candidates = append(candidates, candidate{path: path, modTime: modTime})
		return nil
	})

	return candidates
}

// hasTokenCountData is the cheap qualification probe: only the trailing lines
// are scanned, newest first.
func (s *Scanner) hasTokenCountData(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	lines := nonEmptyLines(data)
	if len(lines) > tailProbeLines {
		lines = lines[len(lines)-tailProbeLines:]
	}

	for i := len(lines) - 1; i >= 0; i-- {
		var event sessionEvent
		if err := json.Unmarshal([]byte(lines[i]), &event); err != nil {
			continue
		}
		if event.Payload.Type == payloadTypeTokenCount {
			return true
		}
	}

	return false
}

type sessionEvent struct {
	Payload eventPayload `json:"payload"`
}

type eventPayload struct {
	Type       string             `json:"type"`
	Info       *eventInfo         `json:"info,omitempty"`
	RateLimits *domain.RateLimits `json:"rate_limits,omitempty"`
}

type eventInfo struct {
	TotalTokenUsage *domain.TokenUsage `json:"total_token_usage"`
}

func nonEmptyLines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
