package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/loykin/devlaunch"
	"github.com/loykin/devlaunch/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := buildRoot()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestBuildRoot_HasSubcommands(t *testing.T) {
	root := buildRoot()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["up"])
	assert.True(t, names["doctor"])
	assert.True(t, names["history"])
}

func TestDoctor_MissingTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devlaunch.toml")
	content := `
[[tools]]
name = "ghost"
command = "devlaunch-no-such-tool-xyz --version"
hint = "install ghost"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := execute(t, "doctor", "--config="+path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "install ghost")
}

func TestHistory_NotConfigured(t *testing.T) {
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is not configured")
}

func TestHistory_ListsRuns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	ctx := context.Background()
	store, err := devlaunch.OpenHistory(ctx, dbPath)
	require.NoError(t, err)
	runID, err := store.BeginRun(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RecordEvent(ctx, runID, history.Event{Service: "backend", Kind: history.EventStart, PID: 123}))
	require.NoError(t, store.RecordEvent(ctx, runID, history.Event{
		Service: "backend", Kind: history.EventCrash, PID: 123,
		ExitCode: sql.NullInt64{Int64: 1, Valid: true},
	}))
	require.NoError(t, store.EndRun(ctx, runID))
	require.NoError(t, store.Close())

	cfgPath := filepath.Join(dir, "devlaunch.toml")
	content := fmt.Sprintf("[history]\nenabled = true\npath = %q\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	out, err := execute(t, "history", "--config="+cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("run %-4d", runID))
	assert.Contains(t, out, "events=2")

	out, err = execute(t, "history", "--config="+cfgPath, fmt.Sprintf("--run=%d", runID))
	require.NoError(t, err)
	assert.Contains(t, out, "backend")
	assert.Contains(t, out, "crash")
	assert.Contains(t, out, "exit=1")
}
