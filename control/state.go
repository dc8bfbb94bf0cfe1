// Package control drives the generation lifecycle: which scene is
// current, scene transitions, auto-rotation and the user-facing intensity,
// color temperature and motion settings.
//
// All settings live in one immutable State value that is replaced as a
// whole on every change. Readers call Controller.Snapshot once per frame
// and never observe a partially applied update.
package control

import (
	"time"

	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/scene"
	"github.com/google/uuid"
)

// Phase is the lifecycle phase.
type Phase uint8

// Lifecycle phases.
const (
	Idle Phase = iota
	Generating
	Transitioning
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Transitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// Transition describes a blend from one scene to another.
type Transition struct {
	From     scene.Scene
	To       scene.Scene
	Start    time.Time
	Duration time.Duration
}

// SwapPoint is the progress at which a transition stops drawing From and
// starts drawing To.
const SwapPoint = 0.5

// Shown returns the scene whose program is drawn at now.
func (t Transition) Shown(now time.Time) scene.Scene {
	if t.Progress(now) < SwapPoint {
		return t.From
	}
	return t.To
}

// Progress returns how far the transition has advanced at now, in [0, 1].
func (t Transition) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(t.Start)) / float64(t.Duration)
	switch {
	case p <= 0:
		return 0
	case p >= 1:
		return 1
	default:
		return p
	}
}

// State is an immutable snapshot of the control settings.
type State struct {
	// Scene is the current scene. During a transition it is the scene
	// being blended away from; it becomes Transition.To on completion.
	Scene scene.Scene

	Intensity        float64
	ColorTemperature float64
	MotionLevel      float64

	Breed dichroma.Breed

	Phase Phase

	// Transition is set only in the Transitioning phase.
	Transition *Transition

	// StartedAt is when the current generation session began.
	StartedAt time.Time

	// Session identifies the generation session; a new one is issued by
	// every Start.
	Session uuid.UUID

	// AutoRotate is the active rotation interval, zero when off.
	AutoRotate time.Duration

	// Version increases with every published change.
	Version uint64
}

// Generating reports whether frames should be produced.
func (s State) Generating() bool { return s.Phase != Idle }

// Destination returns the scene the controller is heading to: the
// transition target while transitioning, otherwise the current scene.
func (s State) Destination() scene.Scene {
	if s.Transition != nil {
		return s.Transition.To
	}
	return s.Scene
}

// Inputs returns the settings consumed by dichroma.Derive.
func (s State) Inputs() dichroma.Inputs {
	return dichroma.Inputs{
		Intensity:        s.Intensity,
		ColorTemperature: s.ColorTemperature,
		MotionLevel:      s.MotionLevel,
	}
}

// Elapsed returns the time since generation started, zero when idle.
func (s State) Elapsed(now time.Time) time.Duration {
	if s.Phase == Idle || s.StartedAt.IsZero() {
		return 0
	}
	return max(now.Sub(s.StartedAt), 0)
}
