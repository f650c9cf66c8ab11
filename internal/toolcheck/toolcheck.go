package toolcheck

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tool is an external dependency the launcher needs before starting anything.
type Tool struct {
	Name    string `toml:"name" mapstructure:"name"`
	Command string `toml:"command" mapstructure:"command"` // version probe, e.g. "node --version"
	Hint    string `toml:"hint" mapstructure:"hint"`       // actionable guidance when missing
}

// Result reports one verified tool and its version string.
type Result struct {
	Name    string
	Version string
}

// MissingError reports that a required external tool is not runnable.
// The whole launch sequence aborts on this.
type MissingError struct {
	Tool string
	Hint string
	Err  error
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s not found: %v (%s)", e.Tool, e.Err, e.Hint)
}

func (e *MissingError) Unwrap() error { return e.Err }

// Verify runs each tool's version probe and collects version strings.
// It stops at the first missing tool.
func Verify(ctx context.Context, tools []Tool) ([]Result, error) {
	results := make([]Result, 0, len(tools))
	for _, t := range tools {
		out, err := runProbe(ctx, t.Command)
		if err != nil {
			return results, &MissingError{Tool: t.Name, Hint: t.Hint, Err: err}
		}
		results = append(results, Result{Name: t.Name, Version: out})
	}
	return results, nil
}

func runProbe(ctx context.Context, cmdStr string) (string, error) {
	parts := strings.Fields(strings.TrimSpace(cmdStr))
	if len(parts) == 0 {
		return "", fmt.Errorf("empty probe command")
	}
	// #nosec G204
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
