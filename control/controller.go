package control

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/internal/logging"
	"github.com/gogpu/dogvision/scene"
	"github.com/google/uuid"
)

// Controller owns the control State and the transition and rotation
// timers. Its methods are safe for concurrent use and never block on
// rendering.
type Controller struct {
	clock clock.Clock

	// mu serializes writers and timer bookkeeping. Readers use state only.
	mu    sync.Mutex
	state atomic.Pointer[State]

	transTimer clock.Timer
	transGen   uint64

	rotTimer clock.Timer
	rotGen   uint64

	subMu   sync.Mutex
	subs    map[uint64]func(State)
	nextSub uint64
}

// New returns an idle Controller on OceanWaves with canine defaults.
func New(opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Controller{clock: o.clock, subs: make(map[uint64]func(State))}
	c.state.Store(&State{
		Scene:            scene.OceanWaves,
		Intensity:        DefaultIntensity,
		ColorTemperature: DefaultColorTemperature,
		MotionLevel:      DefaultMotionLevel,
		Breed:            dichroma.LookupProfile(o.breed).Breed,
		Phase:            Idle,
	})
	return c
}

// Clock returns the controller's time source.
func (c *Controller) Clock() clock.Clock { return c.clock }

// Snapshot returns the current State with a single atomic read.
func (c *Controller) Snapshot() State { return *c.state.Load() }

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.state.Load().Phase }

// Subscribe registers fn to receive every published State. fn runs on the
// goroutine that made the change, after the controller lock is released.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) notify(s State) {
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// publishLocked stores the modified copy of the current state and returns
// it. c.mu must be held.
func (c *Controller) publishLocked(modify func(*State)) State {
	next := *c.state.Load()
	modify(&next)
	next.Version++
	c.state.Store(&next)
	return next
}

// update applies modify under the lock and notifies subscribers.
func (c *Controller) update(modify func(*State)) State {
	c.mu.Lock()
	s := c.publishLocked(modify)
	c.mu.Unlock()
	c.notify(s)
	return s
}

// Start begins generating s. Any phase moves to Generating; an in-flight
// transition is cancelled. Intensity, color temperature and motion level
// are reset to the canine defaults unless overridden. Each Start opens a
// new session. Unknown scenes start OceanWaves.
func (c *Controller) Start(s scene.Scene, opts ...StartOption) {
	if !s.Valid() {
		logging.Logger().Warn("control: unknown scene, starting default", "scene", s.String())
		s = scene.OceanWaves
	}
	so := defaultStartOptions()
	for _, opt := range opts {
		opt(&so)
	}

	c.mu.Lock()
	st := c.startLocked(s, so)
	c.mu.Unlock()

	logging.Logger().Info("control: generation started", "scene", s.String(), "session", st.Session)
	c.notify(st)
}

func (c *Controller) startLocked(s scene.Scene, so startOptions) State {
	c.cancelTransitionLocked()
	now := c.clock.Now()
	return c.publishLocked(func(st *State) {
		st.Scene = s
		st.Intensity = so.intensity
		st.ColorTemperature = so.colorTemperature
		st.MotionLevel = so.motionLevel
		st.Phase = Generating
		st.Transition = nil
		st.StartedAt = now
		st.Session = uuid.New()
	})
}

// Stop moves to Idle, cancelling any transition and auto-rotation. Calling
// Stop while already idle is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	cur := c.state.Load()
	if cur.Phase == Idle && cur.AutoRotate == 0 && c.rotTimer == nil {
		c.mu.Unlock()
		return
	}
	c.cancelTransitionLocked()
	c.cancelRotationLocked()
	st := c.publishLocked(func(st *State) {
		st.Phase = Idle
		st.Transition = nil
		st.AutoRotate = 0
	})
	c.mu.Unlock()

	logging.Logger().Info("control: generation stopped", "scene", st.Scene.String())
	c.notify(st)
}

// TransitionTo blends from the current scene to target over d. A call
// made while another transition is in flight supersedes it, starting from
// the scene that transition is drawing; the latest call wins. d <= 0 switches immediately. When idle, generation starts on
// target directly with canine defaults.
func (c *Controller) TransitionTo(target scene.Scene, d time.Duration) {
	if !target.Valid() {
		logging.Logger().Warn("control: ignoring transition to unknown scene", "scene", target.String())
		return
	}
	c.mu.Lock()
	st := c.transitionLocked(target, d)
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) transitionLocked(target scene.Scene, d time.Duration) State {
	cur := c.state.Load()
	if cur.Phase == Idle {
		return c.startLocked(target, defaultStartOptions())
	}

	c.cancelTransitionLocked()
	if d <= 0 {
		return c.publishLocked(func(st *State) {
			st.Scene = target
			st.Phase = Generating
			st.Transition = nil
		})
	}

	now := c.clock.Now()
	from := cur.Scene
	if cur.Transition != nil {
		from = cur.Transition.Shown(now)
	}

	c.transGen++
	gen := c.transGen
	tr := &Transition{From: from, To: target, Start: now, Duration: d}
	c.transTimer = c.clock.AfterFunc(d, func() { c.completeTransition(gen) })

	logging.Logger().Debug("control: transition", "from", from.String(), "to", target.String(), "duration", d)
	return c.publishLocked(func(st *State) {
		st.Scene = from
		st.Phase = Transitioning
		st.Transition = tr
	})
}

func (c *Controller) completeTransition(gen uint64) {
	c.mu.Lock()
	cur := c.state.Load()
	if gen != c.transGen || cur.Phase != Transitioning || cur.Transition == nil {
		c.mu.Unlock()
		return
	}
	c.transTimer = nil
	target := cur.Transition.To
	st := c.publishLocked(func(st *State) {
		st.Scene = target
		st.Phase = Generating
		st.Transition = nil
	})
	c.mu.Unlock()
	c.notify(st)
}

// cancelTransitionLocked invalidates any pending completion. c.mu must be
// held.
func (c *Controller) cancelTransitionLocked() {
	c.transGen++
	if c.transTimer != nil {
		c.transTimer.Stop()
		c.transTimer = nil
	}
}

// AutoRotate transitions to the next scene in catalog order every
// interval. Each blend lasts min(DefaultTransitionDuration, interval/2).
// Starting a schedule replaces any previous one. Non-positive intervals
// are ignored.
func (c *Controller) AutoRotate(interval time.Duration) {
	if interval <= 0 {
		logging.Logger().Warn("control: ignoring non-positive auto-rotate interval", "interval", interval)
		return
	}
	c.mu.Lock()
	c.cancelRotationLocked()
	gen := c.rotGen
	c.scheduleRotationLocked(gen, interval)
	st := c.publishLocked(func(st *State) { st.AutoRotate = interval })
	c.mu.Unlock()

	logging.Logger().Info("control: auto-rotate started", "interval", interval)
	c.notify(st)
}

func (c *Controller) scheduleRotationLocked(gen uint64, interval time.Duration) {
	c.rotTimer = c.clock.AfterFunc(interval, func() { c.rotate(gen, interval) })
}

func (c *Controller) rotate(gen uint64, interval time.Duration) {
	c.mu.Lock()
	if gen != c.rotGen {
		c.mu.Unlock()
		return
	}
	next := c.state.Load().Destination().Next()
	st := c.transitionLocked(next, RotationDuration(interval))
	c.scheduleRotationLocked(gen, interval)
	c.mu.Unlock()
	c.notify(st)
}

// RotationDuration returns the blend length auto-rotation uses for
// interval.
func RotationDuration(interval time.Duration) time.Duration {
	return min(DefaultTransitionDuration, interval/2)
}

// StopAutoRotate cancels the rotation schedule. It is safe to call when no
// schedule is active. An in-flight transition completes normally.
func (c *Controller) StopAutoRotate() {
	c.mu.Lock()
	cur := c.state.Load()
	if cur.AutoRotate == 0 && c.rotTimer == nil {
		c.mu.Unlock()
		return
	}
	c.cancelRotationLocked()
	st := c.publishLocked(func(st *State) { st.AutoRotate = 0 })
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) cancelRotationLocked() {
	c.rotGen++
	if c.rotTimer != nil {
		c.rotTimer.Stop()
		c.rotTimer = nil
	}
}

// AdjustIntensity sets the intensity, clamped to [0, 1]. NaN is ignored.
func (c *Controller) AdjustIntensity(v float64) {
	c.adjust(v, func(st *State) *float64 { return &st.Intensity })
}

// AdjustColorTemperature sets the color temperature, clamped to [0, 1].
// NaN is ignored.
func (c *Controller) AdjustColorTemperature(v float64) {
	c.adjust(v, func(st *State) *float64 { return &st.ColorTemperature })
}

// AdjustMotionLevel sets the motion level, clamped to [0, 1]. NaN is
// ignored.
func (c *Controller) AdjustMotionLevel(v float64) {
	c.adjust(v, func(st *State) *float64 { return &st.MotionLevel })
}

func (c *Controller) adjust(v float64, field func(*State) *float64) {
	if v != v {
		return
	}
	c.update(func(st *State) {
		f := field(st)
		*f = clampSetting(v, *f)
	})
}

// SetBreed selects the breed calibration profile. Unknown values select
// Standard.
func (c *Controller) SetBreed(b dichroma.Breed) {
	b = dichroma.LookupProfile(b).Breed
	c.update(func(st *State) { st.Breed = b })
}
