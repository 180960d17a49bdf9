package registry

import (
	"testing"
	"time"

	"github.com/sadopc/tooldb/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heartbeats(r *Registry, n int) {
	for i := 0; i < n; i++ {
		r.Handle(Heartbeat{})
	}
}

func TestTimerStartsIdle(t *testing.T) {
	r, _ := newTestRegistry(t, 1)
	tm := r.Timer()
	assert.False(t, tm.Running())
	assert.Equal(t, 0, tm.Tool())
	assert.False(t, tm.AutoRun())
	assert.Equal(t, time.Duration(0), tm.Elapsed())
	_, ok := r.CurrentRow()
	assert.False(t, ok)
}

func TestTimerRoundTrip(t *testing.T) {
	r, _ := newTestRegistry(t, 3)
	_, err := r.store.SetToolTime(3, 5.0)
	require.NoError(t, err)

	r.Handle(RunStateChanged{Running: true, Auto: true})
	assert.False(t, r.Timer().Running(), "no tool loaded")

	r.Handle(ToolChanged{Tool: 3})
	require.True(t, r.Timer().Running())
	assert.Equal(t, 300*time.Second, r.Timer().Elapsed())
	row, ok := r.CurrentRow()
	assert.True(t, ok)
	assert.Equal(t, 0, row)

	heartbeats(r, 120)
	assert.Equal(t, 312*time.Second, r.Timer().Elapsed())

	r.Handle(RunStateChanged{Running: false})
	assert.False(t, r.Timer().Running())
	m, _ := r.Meta(3)
	assert.Equal(t, 5.2, m.Time)

	sessions, err := r.store.ListUsage(store.UsageFilter{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 3, sessions[0].Tool)
	assert.Equal(t, int64(12), sessions[0].Seconds)
}

func TestTimerNeedsAutoRun(t *testing.T) {
	r, _ := newTestRegistry(t, 1)
	r.Handle(ToolChanged{Tool: 1})
	assert.False(t, r.Timer().Running())

	r.Handle(RunStateChanged{Running: true, Auto: false})
	assert.False(t, r.Timer().Running(), "manual run ignored")
	assert.False(t, r.Timer().AutoRun())

	r.Handle(RunStateChanged{Running: true, Auto: true})
	assert.True(t, r.Timer().Running())
}

func TestTimerTicksOnlyWhileRunning(t *testing.T) {
	r, _ := newTestRegistry(t, 1)
	r.Handle(ToolChanged{Tool: 1})
	heartbeats(r, 25)
	assert.Equal(t, time.Duration(0), r.Timer().Elapsed())

	r.Handle(RunStateChanged{Running: true, Auto: true})
	heartbeats(r, 9)
	assert.Equal(t, 1*time.Second, r.Timer().Elapsed(), "tenths counter carries over")
}

func TestTimerToolChangeCommitsPrevious(t *testing.T) {
	r, _ := newTestRegistry(t, 1, 2)
	r.Handle(ToolChanged{Tool: 1})
	r.Handle(RunStateChanged{Running: true, Auto: true})
	heartbeats(r, 600)

	r.Handle(ToolChanged{Tool: 2})
	m1, _ := r.Meta(1)
	assert.Equal(t, 1.0, m1.Time)
	assert.True(t, r.Timer().Running())
	assert.Equal(t, 2, r.Timer().Tool())
	assert.Equal(t, time.Duration(0), r.Timer().Elapsed())

	heartbeats(r, 30)
	r.Handle(ToolChanged{Tool: 0})
	assert.False(t, r.Timer().Running())
	m2, _ := r.Meta(2)
	assert.Equal(t, 0.05, m2.Time)
}

func TestTimerUnknownToolSkipsCommit(t *testing.T) {
	r, _ := newTestRegistry(t, 1)
	r.Handle(RunStateChanged{Running: true, Auto: true})
	r.Handle(ToolChanged{Tool: 42})
	require.True(t, r.Timer().Running())
	heartbeats(r, 50)
	r.Handle(RunStateChanged{Running: false})

	assert.False(t, r.Timer().Running())
	sessions, err := r.store.ListUsage(store.UsageFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestTimerStoreFailureKeepsIdle(t *testing.T) {
	r, _ := newTestRegistry(t, 1)
	_, err := r.store.SetToolTime(1, 90.0)
	require.NoError(t, err)
	require.NoError(t, r.store.Close())

	r.Handle(ToolChanged{Tool: 1})
	r.Handle(RunStateChanged{Running: true, Auto: true})
	assert.False(t, r.Timer().Running(), "stored total unreadable")
	assert.Equal(t, time.Duration(0), r.Timer().Elapsed())

	heartbeats(r, 50)
	r.Handle(RunStateChanged{Running: false})
	assert.Equal(t, time.Duration(0), r.Timer().Elapsed())
}

func TestTimerFollowsRenumber(t *testing.T) {
	r, _ := editable(t, 1)
	r.Handle(ToolChanged{Tool: 1})
	r.Handle(RunStateChanged{Running: true, Auto: true})
	heartbeats(r, 60)

	require.NoError(t, r.EditOffset(1, "Tool", "4"))
	assert.Equal(t, 4, r.Timer().Tool())
	r.Handle(RunStateChanged{Running: false})
	m, _ := r.Meta(4)
	assert.Equal(t, 0.1, m.Time)
}

func TestTimerMinutesRounding(t *testing.T) {
	tm := &UsageTimer{elapsed: 100}
	assert.Equal(t, 1.667, tm.Minutes())
	assert.Equal(t, "idle", tm.state.String())
}
