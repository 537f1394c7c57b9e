//go:build integration

package integration

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/agentbridge"
)

// TestHooks_PreToolUse tests hook invoked before tool execution.
func TestHooks_PreToolUse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	var hookInvoked atomic.Int32

	for _, err := range agentbridge.Query(ctx, "List files in the current directory using ls",
		options(3,
			agentbridge.WithPermissionMode("bypassPermissions"),
			agentbridge.WithHooks(map[agentbridge.HookEvent][]*agentbridge.HookMatcher{
				agentbridge.HookEventPreToolUse: {{
					Hooks: []agentbridge.HookCallback{
						func(_ context.Context, input agentbridge.HookInput,
							_ *string, _ *agentbridge.HookContext,
						) (agentbridge.HookJSONOutput, error) {
							hookInvoked.Add(1)

							if pre, ok := input.(*agentbridge.PreToolUseHookInput); ok {
								t.Logf("PreToolUse hook called for tool: %s", pre.ToolName)
							}

							return nil, nil
						},
					},
					Timeout: new(30.0),
				}},
			}),
		)...,
	) {
		if err != nil {
			skipIfNotInstalled(t, err)
			t.Fatalf("Query failed: %v", err)
		}
	}

	require.Positive(t, hookInvoked.Load(), "PreToolUse hook should have been invoked")
}

// TestHooks_BlockTool tests a PreToolUse hook that denies Bash.
func TestHooks_BlockTool(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	var blocked atomic.Int32

	for _, err := range agentbridge.Query(ctx, "Run the bash command 'echo blocked'",
		options(2,
			agentbridge.WithPermissionMode("bypassPermissions"),
			agentbridge.WithHooks(map[agentbridge.HookEvent][]*agentbridge.HookMatcher{
				agentbridge.HookEventPreToolUse: {{
					Matcher: new("Bash"),
					Hooks: []agentbridge.HookCallback{
						func(context.Context, agentbridge.HookInput, *string, *agentbridge.HookContext,
						) (agentbridge.HookJSONOutput, error) {
							blocked.Add(1)

							return &agentbridge.SyncHookJSONOutput{
								HookSpecificOutput: &agentbridge.PreToolUseHookSpecificOutput{
									PermissionDecision:       new("deny"),
									PermissionDecisionReason: new("bash disabled in tests"),
								},
							}, nil
						},
					},
				}},
			}),
		)...,
	) {
		if err != nil {
			skipIfNotInstalled(t, err)
			t.Fatalf("Query failed: %v", err)
		}
	}

	require.Positive(t, blocked.Load(), "Bash hook should have been invoked")
}
