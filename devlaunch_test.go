package devlaunch

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NotNil(t, c)
	assert.Equal(t, "backend", c.Backend.Name)
	assert.Equal(t, "frontend", c.Frontend.Name)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Backend.Command, c.Backend.Command)
}

func TestSupervisorFacade_StartAndTerminate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	s := NewSupervisor(LogConfig{})
	require.NoError(t, s.Start(Spec{Name: "sleeper", Command: "sleep 30"}, time.Second))
	assert.True(t, s.IsAlive("sleeper"))

	s.TerminateAll(2 * time.Second)
	assert.False(t, s.IsAlive("sleeper"))

	sts := s.Statuses()
	require.Len(t, sts, 1)
	assert.Equal(t, "sleeper", sts[0].Name)
	assert.False(t, sts[0].Running)
}

func TestVerifyTools_Missing(t *testing.T) {
	err := VerifyTools(context.Background(), []Tool{
		{Name: "nope", Command: "devlaunch-no-such-tool --version", Hint: "install it"},
	})
	require.Error(t, err)
}

func TestRegisterMetricsDefault_Idempotent(t *testing.T) {
	require.NoError(t, RegisterMetricsDefault())
	require.NoError(t, RegisterMetricsDefault())
}
