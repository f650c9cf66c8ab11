package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loykin/devlaunch/internal/process"
	"github.com/loykin/devlaunch/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProc struct{ pid int }

func (s stubProc) PID() int                  { return s.pid }
func (s stubProc) Alive() bool               { return true }
func (s stubProc) Terminate() error          { return nil }
func (s stubProc) Kill() error               { return nil }
func (s stubProc) WaitExit(time.Duration) bool { return false }
func (s stubProc) ExitCode() (int, bool)     { return 0, false }

type stubLauncher struct{}

func (stubLauncher) Launch(spec process.Spec) (supervisor.OSProcess, error) {
	return stubProc{pid: 999}, nil
}

func TestRouter_Health(t *testing.T) {
	sup := supervisor.New(stubLauncher{})
	h := NewRouter(sup, "").Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Status(t *testing.T) {
	sup := supervisor.New(stubLauncher{})
	_, err := sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.NoError(t, err)

	h := NewRouter(sup, "/dev").Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dev/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sts []supervisor.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sts))
	require.Len(t, sts, 1)
	assert.Equal(t, "backend", sts[0].Name)
	assert.True(t, sts[0].Running)
	assert.Equal(t, 999, sts[0].PID)
}

func TestRouter_Metrics(t *testing.T) {
	sup := supervisor.New(stubLauncher{})
	h := NewRouter(sup, "").Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSanitizeBase(t *testing.T) {
	assert.Equal(t, "", sanitizeBase(""))
	assert.Equal(t, "", sanitizeBase("/"))
	assert.Equal(t, "/dev", sanitizeBase("dev"))
	assert.Equal(t, "/dev", sanitizeBase("/dev/"))
}
