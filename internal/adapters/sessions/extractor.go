package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bnema/codex-accounts-cli/internal/domain"
)

// ExtractLatestUsage scans a session file backwards for the newest
// token_count event that carries rate limits. A nil result with a nil error
// means the file holds no qualifying record.
func (s *Scanner) ExtractLatestUsage(ctx context.Context, path string) (*domain.SessionUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	lines := nonEmptyLines(data)
	for i := len(lines) - 1; i >= 0; i-- {
		var event sessionEvent
		if err := json.Unmarshal([]byte(lines[i]), &event); err != nil {
			// Torn or foreign lines are expected in live session logs.
			continue
		}

		if event.Payload.Type != payloadTypeTokenCount || event.Payload.RateLimits == nil {
			continue
		}

		usage := &domain.SessionUsage{RateLimits: *event.Payload.RateLimits}
		if event.Payload.Info != nil {
			usage.TokenUsage = event.Payload.Info.TotalTokenUsage
		}
		return usage, nil
	}

	return nil, nil
}
