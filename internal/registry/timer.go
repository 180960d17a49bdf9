package registry

import (
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sadopc/tooldb/internal/store"
)

// ticksPerSecond is the number of heartbeats that make up one second.
const ticksPerSecond = 10

// timerState tracks the current state of the usage timer.
type timerState int

const (
	timerIdle timerState = iota
	timerRunning
)

func (s timerState) String() string {
	if s == timerRunning {
		return "running"
	}
	return "idle"
}

// UsageTimer accumulates spindle time for the tool in the spindle while the
// controller runs a program in automatic mode. Elapsed time resumes from the
// tool's stored total and is written back when the timer stops.
type UsageTimer struct {
	store *store.Store
	log   *log.Logger
	now   func() time.Time

	state   timerState
	tool    int
	autoRun bool

	elapsed   int64 // seconds, including the stored total at start
	seeded    int64 // stored total at start, in seconds
	tenths    int
	startedAt time.Time
}

func newUsageTimer(s *store.Store, logger *log.Logger, now func() time.Time) *UsageTimer {
	return &UsageTimer{
		store: s,
		log:   logger,
		now:   now,
		state: timerIdle,
	}
}

// Running reports whether time is being accumulated.
func (t *UsageTimer) Running() bool { return t.state == timerRunning }

// Tool returns the tool currently in the spindle.
func (t *UsageTimer) Tool() int { return t.tool }

// AutoRun reports whether the controller is running a program.
func (t *UsageTimer) AutoRun() bool { return t.autoRun }

// Elapsed returns the accumulated time of the current tool.
func (t *UsageTimer) Elapsed() time.Duration {
	return time.Duration(t.elapsed) * time.Second
}

// Minutes returns the accumulated time in minutes rounded to 3 decimals, the
// value stored in the tools table.
func (t *UsageTimer) Minutes() float64 {
	return math.Round(float64(t.elapsed)/60*1000) / 1000
}

// toolChanged records a new tool in the spindle. A running timer commits the
// previous tool before switching. It reports whether a commit happened.
func (t *UsageTimer) toolChanged(tool int) bool {
	if tool == t.tool {
		return false
	}
	committed := t.stop()
	t.tool = tool
	if tool != 0 && t.autoRun {
		t.start()
	}
	return committed
}

// runStateChanged follows the interpreter entering or leaving automatic run.
func (t *UsageTimer) runStateChanged(running bool) bool {
	t.autoRun = running
	if running {
		t.start()
		return false
	}
	return t.stop()
}

// tick advances the heartbeat counter; every tenth tick adds one second to a
// running timer.
func (t *UsageTimer) tick() {
	t.tenths++
	if t.tenths < ticksPerSecond {
		return
	}
	t.tenths = 0
	if t.state == timerRunning {
		t.elapsed++
	}
}

func (t *UsageTimer) start() {
	if t.tool == 0 || t.state == timerRunning {
		return
	}
	// Only an unknown tool starts from zero.
	var seed int64
	m, err := t.store.GetMetaByTool(t.tool)
	switch {
	case err == nil:
		seed = int64(math.Round(m.Time * 60))
	case !errors.Is(err, store.ErrNotFound):
		t.log.Error("read tool time failed, timer not started", "tool", t.tool, "err", err)
		return
	}
	t.log.Debug("starting tool timer", "tool", t.tool)
	t.state = timerRunning
	t.startedAt = t.now()
	t.elapsed = seed
	t.seeded = seed
}

// stop writes the accumulated time back and returns whether a row was
// updated.
func (t *UsageTimer) stop() bool {
	if t.state != timerRunning {
		return false
	}
	t.log.Debug("stopping tool timer", "tool", t.tool)
	t.state = timerIdle

	minutes := t.Minutes()
	ok, err := t.store.SetToolTime(t.tool, minutes)
	if err != nil {
		t.log.Error("save tool time failed", "tool", t.tool, "minutes", minutes, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if _, err := t.store.RecordUsage(t.tool, t.startedAt, t.now(), t.elapsed-t.seeded); err != nil {
		t.log.Warn("record usage session", "tool", t.tool, "err", err)
	}
	return true
}
