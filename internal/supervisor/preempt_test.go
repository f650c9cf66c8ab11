package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	pid        int32
	name       string
	terminated bool
	killFails  bool
	termFails  bool
}

func (f *fakeTarget) PID() int32   { return f.pid }
func (f *fakeTarget) Name() string { return f.name }

func (f *fakeTarget) Terminate() error {
	if f.termFails {
		return errors.New("operation not permitted")
	}
	f.terminated = true
	return nil
}

func (f *fakeTarget) Kill() error {
	if f.killFails {
		return errors.New("operation not permitted")
	}
	f.terminated = true
	return nil
}

type fakeLister struct {
	all []*fakeTarget
}

func (f *fakeLister) FindByName(_ context.Context, names map[string]struct{}) ([]Target, error) {
	var out []Target
	for _, t := range f.all {
		if _, ok := names[t.name]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestPreemptByName_MatchesOnlyGivenNames(t *testing.T) {
	node1 := &fakeTarget{pid: 100, name: "node"}
	node2 := &fakeTarget{pid: 101, name: "node"}
	other := &fakeTarget{pid: 102, name: "postgres"}
	lister := &fakeLister{all: []*fakeTarget{node1, node2, other}}

	sup := New(newFakeLauncher(), WithLister(lister))
	warnings := sup.PreemptByName(context.Background(), []string{"node"})

	assert.Empty(t, warnings)
	assert.True(t, node1.terminated)
	assert.True(t, node2.terminated)
	assert.False(t, other.terminated, "unrelated process must be untouched")
}

func TestPreemptByName_FailuresAreWarnings(t *testing.T) {
	stubborn := &fakeTarget{pid: 200, name: "npm", termFails: true, killFails: true}
	lister := &fakeLister{all: []*fakeTarget{stubborn}}

	sup := New(newFakeLauncher(), WithLister(lister))
	warnings := sup.PreemptByName(context.Background(), []string{"npm"})
	require.Len(t, warnings, 1)
}

func TestPreemptByName_EscalatesWhenTerminateFails(t *testing.T) {
	stubborn := &fakeTarget{pid: 201, name: "node", termFails: true}
	lister := &fakeLister{all: []*fakeTarget{stubborn}}

	sup := New(newFakeLauncher(), WithLister(lister))
	warnings := sup.PreemptByName(context.Background(), []string{"node"})
	assert.Empty(t, warnings)
	assert.True(t, stubborn.terminated)
}
