// Package launcher finds the assistant binary and starts it as a process
// transport for the example programs and the integration suite.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/agentbridge"
)

// EnvBinary overrides the binary Factory runs.
const EnvBinary = "AGENTBRIDGE_ASSISTANT"

// DefaultBinary is searched for in PATH when EnvBinary is unset.
const DefaultBinary = "claude"

// ErrNotFound is returned when no assistant binary can be located.
var ErrNotFound = errors.New("assistant binary not found")

// Config controls how the assistant process is started.
type Config struct {
	// Binary is an explicit path that skips the search.
	Binary string
	// MaxTurns limits conversation turns. Zero leaves the default.
	MaxTurns int
	// AllowedTools are passed through unchanged.
	AllowedTools []string
	// Logger receives discovery and stderr output. Nil disables logging.
	Logger *slog.Logger
}

// Find locates the assistant binary: an explicit path, then EnvBinary, then
// PATH and the usual install locations.
func Find(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvBinary)
	}

	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("assistant binary %s: %w", explicit, err)
		}

		return explicit, nil
	}

	if path, err := exec.LookPath(DefaultBinary); err == nil {
		return path, nil
	}

	searched := []string{"$PATH", "/usr/local/bin/" + DefaultBinary, "/usr/bin/" + DefaultBinary}

	if home, err := os.UserHomeDir(); err == nil {
		searched = append(searched, filepath.Join(home, ".local/bin", DefaultBinary))
	}

	for _, path := range searched[1:] {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w, searched: %s", ErrNotFound, strings.Join(searched, ", "))
}

// BuildArgs turns resolved launch parameters into command line arguments.
// In streaming mode the prompt arrives on stdin instead.
func BuildArgs(launch *agentbridge.Launch, cfg *Config) []string {
	args := []string{"--output-format", "stream-json", "--verbose"}

	if launch.PermissionMode != "" {
		args = append(args, "--permission-mode", launch.PermissionMode)
	}

	if launch.Model != "" {
		args = append(args, "--model", launch.Model)
	}

	if cfg.MaxTurns > 0 {
		args = append(args, "--max-turns", fmt.Sprint(cfg.MaxTurns))
	}

	if len(cfg.AllowedTools) > 0 {
		args = append(args, "--allowed-tools", strings.Join(cfg.AllowedTools, ","))
	}

	if launch.PermissionPromptToolName != "" {
		args = append(args, "--permission-prompt-tool", launch.PermissionPromptToolName)
	}

	if len(launch.ToolServerNames) > 0 {
		args = append(args, "--mcp-config", mcpConfig(launch.ToolServerNames))
	}

	if launch.Streaming {
		return append(args, "--input-format", "stream-json")
	}

	return append(args, "--print", "--", launch.Prompt)
}

// mcpConfig declares in-process servers so the binary routes their tool
// calls over the control channel.
func mcpConfig(names []string) string {
	servers := make([]string, 0, len(names))

	for _, name := range names {
		servers = append(servers, fmt.Sprintf("%q:{\"type\":\"sdk\",\"name\":%q}", name, name))
	}

	return `{"mcpServers":{` + strings.Join(servers, ",") + `}}`
}

// Factory returns an agentbridge transport factory that runs the binary.
func Factory(cfg *Config) func(*agentbridge.Launch) (agentbridge.Transport, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = agentbridge.NopLogger()
	}

	return func(launch *agentbridge.Launch) (agentbridge.Transport, error) {
		bin, err := Find(cfg.Binary)
		if err != nil {
			return nil, err
		}

		args := BuildArgs(launch, cfg)
		log.Debug("Starting assistant", "binary", bin, "args", args)

		cmd := exec.Command(bin, args...)
		cmd.Env = append(os.Environ(), "CLAUDE_CODE_ENTRYPOINT=sdk-go")

		return agentbridge.NewProcessTransport(cmd,
			agentbridge.WithTransportLogger(log),
			agentbridge.WithStderr(func(line string) { log.Debug("assistant stderr", "line", line) }),
		), nil
	}
}
