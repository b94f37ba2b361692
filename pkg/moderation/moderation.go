package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Verdict is the collaborator's decision on a piece of user content.
type Verdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// Moderator reviews user-authored text. Implementations return an error when
// no trustworthy verdict could be obtained; callers decide how to fail.
type Moderator interface {
	Review(ctx context.Context, text, author string) (Verdict, error)
}

// ErrUnparsable marks a response that did not contain a verdict.
var ErrUnparsable = errors.New("moderation response unparsable")

// Noop approves everything. Used when moderation is disabled or unconfigured.
type Noop struct{}

// Review implements Moderator.
func (Noop) Review(context.Context, string, string) (Verdict, error) {
	return Verdict{Approved: true}, nil
}

// ParseVerdict extracts a verdict from a model reply, tolerating Markdown
// code fences and surrounding prose.
func ParseVerdict(raw string) (Verdict, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return Verdict{}, fmt.Errorf("%w: %q", ErrUnparsable, truncate(raw, 80))
	}

	var payload struct {
		Approved *bool  `json:"approved"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(body[start:end+1]), &payload); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	if payload.Approved == nil {
		return Verdict{}, fmt.Errorf("%w: missing approved field", ErrUnparsable)
	}
	return Verdict{Approved: *payload.Approved, Reason: strings.TrimSpace(payload.Reason)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
