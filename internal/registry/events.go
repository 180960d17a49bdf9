package registry

// Event is a controller status notification. The concrete types are
// ToolChanged, RunStateChanged, Heartbeat and AxesHomed.
type Event interface {
	isEvent()
}

// ToolChanged reports the tool now in the spindle; 0 means empty.
type ToolChanged struct{ Tool int }

// RunStateChanged reports the interpreter entering (Running) or leaving a
// program run. Auto is false when the controller is not in automatic mode;
// a run start outside automatic mode does not start the usage timer.
type RunStateChanged struct {
	Running bool
	Auto    bool
}

// Heartbeat is the periodic status poll, nominally every 100ms.
type Heartbeat struct{}

// AxesHomed reports whether every axis is homed. Edits are refused while
// unhomed.
type AxesHomed struct{ Homed bool }

func (ToolChanged) isEvent()     {}
func (RunStateChanged) isEvent() {}
func (Heartbeat) isEvent()       {}
func (AxesHomed) isEvent()       {}

// Handle applies ev. It runs to completion on the caller's goroutine.
func (r *Registry) Handle(ev Event) {
	committed := false
	switch ev := ev.(type) {
	case ToolChanged:
		committed = r.timer.toolChanged(ev.Tool)
	case RunStateChanged:
		if ev.Running && !ev.Auto {
			return
		}
		committed = r.timer.runStateChanged(ev.Running)
	case Heartbeat:
		r.timer.tick()
	case AxesHomed:
		r.homed = ev.Homed
	}
	if committed {
		if err := r.reload(); err != nil {
			r.log.Error("reload after timer commit", "err", err)
		}
	}
}
