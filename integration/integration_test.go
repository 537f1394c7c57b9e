//go:build integration

// Package integration runs sessions against a real assistant binary.
// Run with: go test -tags integration ./integration/...
package integration

import (
	"errors"
	"strings"
	"testing"

	"github.com/wagiedev/agentbridge"
	"github.com/wagiedev/agentbridge/internal/launcher"
)

// skipIfNotInstalled skips the test if the assistant binary is missing.
func skipIfNotInstalled(t *testing.T, err error) {
	t.Helper()

	if errors.Is(err, launcher.ErrNotFound) {
		t.Skip("assistant binary not installed")
	}
}

// options returns the common options plus extra, launching a real process.
func options(maxTurns int, extra ...agentbridge.Option) []agentbridge.Option {
	return append([]agentbridge.Option{
		agentbridge.WithModel("haiku"),
		agentbridge.WithTransportFactory(launcher.Factory(&launcher.Config{MaxTurns: maxTurns})),
	}, extra...)
}

// contains42 checks if a string contains "42" in various formats.
func contains42(s string) bool {
	lower := strings.ToLower(s)

	return strings.Contains(lower, "42") ||
		strings.Contains(lower, "forty-two") ||
		strings.Contains(lower, "forty two")
}

func assistantText(msgs []agentbridge.Message) string {
	var sb strings.Builder

	for _, msg := range msgs {
		if m, ok := msg.(*agentbridge.AssistantMessage); ok {
			sb.WriteString(m.Content.String())
		}
	}

	return sb.String()
}
