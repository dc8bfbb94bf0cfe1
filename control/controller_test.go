package control

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/dogvision/clock"
	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/scene"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestController(opts ...Option) (*Controller, *clock.Fake) {
	fc := clock.NewFake(epoch)
	return New(append([]Option{WithClock(fc)}, opts...)...), fc
}

func TestNewIsIdle(t *testing.T) {
	c, _ := newTestController()
	s := c.Snapshot()
	require.Equal(t, Idle, s.Phase)
	require.False(t, s.Generating())
	require.Equal(t, scene.OceanWaves, s.Scene)
	require.Equal(t, dichroma.Standard, s.Breed)
	require.Equal(t, uuid.Nil, s.Session)
}

func TestStartAppliesCanineDefaults(t *testing.T) {
	c, fc := newTestController()
	c.AdjustIntensity(1)
	c.AdjustColorTemperature(1)

	c.Start(scene.Fireflies)
	s := c.Snapshot()
	require.Equal(t, Generating, s.Phase)
	require.Equal(t, scene.Fireflies, s.Scene)
	require.InDelta(t, DefaultIntensity, s.Intensity, 1e-12)
	require.InDelta(t, DefaultColorTemperature, s.ColorTemperature, 1e-12)
	require.InDelta(t, DefaultMotionLevel, s.MotionLevel, 1e-12)
	require.Equal(t, fc.Now(), s.StartedAt)
	require.NotEqual(t, uuid.Nil, s.Session)

	first := s.Session
	c.Start(scene.Fireflies, WithIntensity(0.9), WithMotionLevel(7), WithColorTemperature(math.NaN()))
	s = c.Snapshot()
	require.NotEqual(t, first, s.Session)
	require.InDelta(t, 0.9, s.Intensity, 1e-12)
	require.InDelta(t, 1.0, s.MotionLevel, 1e-12)
	require.InDelta(t, DefaultColorTemperature, s.ColorTemperature, 1e-12)
}

func TestStartUnknownSceneUsesDefault(t *testing.T) {
	c, _ := newTestController()
	c.Start(scene.Scene(99))
	require.Equal(t, scene.OceanWaves, c.Snapshot().Scene)
}

func TestStopTwice(t *testing.T) {
	c, _ := newTestController()
	c.Start(scene.ZenGarden)

	c.Stop()
	require.Equal(t, Idle, c.Phase())
	v := c.Snapshot().Version

	c.Stop()
	require.Equal(t, Idle, c.Phase())
	require.Equal(t, v, c.Snapshot().Version, "second Stop must not publish")
}

func TestTransitionCompletes(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.TransitionTo(scene.ForestCanopy, 2*time.Second)

	s := c.Snapshot()
	require.Equal(t, Transitioning, s.Phase)
	require.Equal(t, scene.OceanWaves, s.Scene)
	require.Equal(t, scene.ForestCanopy, s.Destination())
	require.NotNil(t, s.Transition)

	fc.Advance(time.Second)
	require.InDelta(t, 0.5, s.Transition.Progress(fc.Now()), 1e-9)
	require.Equal(t, Transitioning, c.Phase())

	fc.Advance(time.Second)
	s = c.Snapshot()
	require.Equal(t, Generating, s.Phase)
	require.Equal(t, scene.ForestCanopy, s.Scene)
	require.Nil(t, s.Transition)
}

func TestTransitionSupersede(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)

	var seen []scene.Scene
	cancel := c.Subscribe(func(s State) { seen = append(seen, s.Scene) })
	defer cancel()

	c.TransitionTo(scene.Fireflies, 2*time.Second)
	fc.Advance(500 * time.Millisecond)
	c.TransitionTo(scene.GentleRain, 3*time.Second)

	tr := c.Snapshot().Transition
	require.NotNil(t, tr)
	require.Equal(t, scene.OceanWaves, tr.From)
	require.Equal(t, scene.GentleRain, tr.To)

	// The superseded transition would have completed here.
	fc.Advance(2 * time.Second)
	require.Equal(t, Transitioning, c.Phase())
	require.Equal(t, scene.OceanWaves, c.Snapshot().Scene)

	fc.Advance(time.Second)
	require.Equal(t, scene.GentleRain, c.Snapshot().Scene)
	require.Equal(t, Generating, c.Phase())
	require.NotContains(t, seen, scene.Fireflies)
}

func TestTransitionSupersedeAfterSwap(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)

	c.TransitionTo(scene.Fireflies, 2*time.Second)
	fc.Advance(1800 * time.Millisecond)
	require.Equal(t, scene.Fireflies, c.Snapshot().Transition.Shown(fc.Now()))

	c.TransitionTo(scene.GentleRain, 2*time.Second)
	s := c.Snapshot()
	require.NotNil(t, s.Transition)
	require.Equal(t, scene.Fireflies, s.Transition.From)
	require.Equal(t, scene.Fireflies, s.Scene)
	require.Equal(t, scene.Fireflies, s.Transition.Shown(fc.Now()))

	fc.Advance(2 * time.Second)
	require.Equal(t, scene.GentleRain, c.Snapshot().Scene)
	require.Equal(t, Generating, c.Phase())
}

func TestTransitionShown(t *testing.T) {
	tr := Transition{From: scene.OceanWaves, To: scene.ZenGarden, Start: epoch, Duration: 2 * time.Second}
	require.Equal(t, scene.OceanWaves, tr.Shown(epoch))
	require.Equal(t, scene.OceanWaves, tr.Shown(epoch.Add(999*time.Millisecond)))
	require.Equal(t, scene.ZenGarden, tr.Shown(epoch.Add(time.Second)))
	require.Equal(t, scene.ZenGarden, tr.Shown(epoch.Add(time.Hour)))
}

func TestTransitionImmediate(t *testing.T) {
	c, _ := newTestController()
	c.Start(scene.OceanWaves)
	c.TransitionTo(scene.SquirrelChase, 0)
	s := c.Snapshot()
	require.Equal(t, scene.SquirrelChase, s.Scene)
	require.Equal(t, Generating, s.Phase)
}

func TestTransitionFromIdleStarts(t *testing.T) {
	c, fc := newTestController()
	c.TransitionTo(scene.ZenGarden, time.Second)
	s := c.Snapshot()
	require.Equal(t, Generating, s.Phase)
	require.Equal(t, scene.ZenGarden, s.Scene)
	require.Equal(t, fc.Now(), s.StartedAt)
}

func TestTransitionUnknownIgnored(t *testing.T) {
	c, _ := newTestController()
	c.Start(scene.OceanWaves)
	v := c.Snapshot().Version
	c.TransitionTo(scene.Scene(42), time.Second)
	require.Equal(t, v, c.Snapshot().Version)
}

func TestStartCancelsTransition(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.TransitionTo(scene.ForestCanopy, time.Second)
	c.Start(scene.ZenGarden)
	fc.Advance(5 * time.Second)
	require.Equal(t, scene.ZenGarden, c.Snapshot().Scene)
	require.Equal(t, Generating, c.Phase())
}

func TestStopCancelsTransition(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.TransitionTo(scene.ForestCanopy, time.Second)
	c.Stop()
	fc.Advance(5 * time.Second)
	s := c.Snapshot()
	require.Equal(t, Idle, s.Phase)
	require.Equal(t, scene.OceanWaves, s.Scene)
}

func TestAutoRotateVisitsEveryScene(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)

	var visited []scene.Scene
	last := scene.OceanWaves
	c.Subscribe(func(s State) {
		if s.Phase == Generating && s.Scene != last {
			visited = append(visited, s.Scene)
			last = s.Scene
		}
	})

	const interval = 10 * time.Second
	c.AutoRotate(interval)
	require.Equal(t, interval, c.Snapshot().AutoRotate)

	fc.Advance(time.Duration(scene.Count)*interval + interval/2)

	require.Equal(t, []scene.Scene{
		scene.ForestCanopy,
		scene.Fireflies,
		scene.GentleRain,
		scene.ZenGarden,
		scene.SquirrelChase,
		scene.OceanWaves,
	}, visited)
}

func TestAutoRotateDuration(t *testing.T) {
	require.Equal(t, DefaultTransitionDuration, RotationDuration(time.Minute))
	require.Equal(t, 500*time.Millisecond, RotationDuration(time.Second))
}

func TestAutoRotateReplacesSchedule(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.AutoRotate(10 * time.Second)
	c.AutoRotate(30 * time.Second)

	fc.Advance(20 * time.Second)
	require.Equal(t, scene.OceanWaves, c.Snapshot().Destination())

	fc.Advance(10 * time.Second)
	require.Equal(t, scene.ForestCanopy, c.Snapshot().Destination())
}

func TestStopAutoRotate(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.AutoRotate(10 * time.Second)
	c.StopAutoRotate()
	c.StopAutoRotate()

	fc.Advance(time.Minute)
	s := c.Snapshot()
	require.Equal(t, scene.OceanWaves, s.Scene)
	require.Zero(t, s.AutoRotate)
	require.Zero(t, fc.Pending())
}

func TestStopCancelsAutoRotate(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.AutoRotate(10 * time.Second)
	c.Stop()

	fc.Advance(time.Minute)
	s := c.Snapshot()
	require.Equal(t, Idle, s.Phase)
	require.Zero(t, s.AutoRotate)
}

func TestAutoRotateIgnoresNonPositive(t *testing.T) {
	c, fc := newTestController()
	c.Start(scene.OceanWaves)
	c.AutoRotate(0)
	c.AutoRotate(-time.Second)
	require.Zero(t, c.Snapshot().AutoRotate)
	require.Zero(t, fc.Pending())
}

func TestAdjustClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{5, 1},
		{0.5, 0.5},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		c, _ := newTestController()
		c.AdjustIntensity(tt.in)
		c.AdjustColorTemperature(tt.in)
		c.AdjustMotionLevel(tt.in)
		s := c.Snapshot()
		require.Equal(t, tt.want, s.Intensity, "intensity(%v)", tt.in)
		require.Equal(t, tt.want, s.ColorTemperature, "colorTemperature(%v)", tt.in)
		require.Equal(t, tt.want, s.MotionLevel, "motionLevel(%v)", tt.in)
	}
}

func TestAdjustNaNLeavesValue(t *testing.T) {
	c, _ := newTestController()
	c.AdjustIntensity(0.25)
	v := c.Snapshot().Version
	c.AdjustIntensity(math.NaN())
	s := c.Snapshot()
	require.Equal(t, 0.25, s.Intensity)
	require.Equal(t, v, s.Version)
}

func TestSetBreed(t *testing.T) {
	c, _ := newTestController(WithBreed(dichroma.Senior))
	require.Equal(t, dichroma.Senior, c.Snapshot().Breed)
	c.SetBreed(dichroma.Brachycephalic)
	require.Equal(t, dichroma.Brachycephalic, c.Snapshot().Breed)
	c.SetBreed(dichroma.Breed(250))
	require.Equal(t, dichroma.Standard, c.Snapshot().Breed)
}

func TestSubscribeCancel(t *testing.T) {
	c, _ := newTestController()
	n := 0
	cancel := c.Subscribe(func(State) { n++ })
	c.AdjustIntensity(0.1)
	cancel()
	cancel()
	c.AdjustIntensity(0.2)
	require.Equal(t, 1, n)
}

func TestProgressBounds(t *testing.T) {
	tr := Transition{Start: epoch, Duration: 4 * time.Second}
	require.Equal(t, 0.0, tr.Progress(epoch.Add(-time.Second)))
	require.InDelta(t, 0.25, tr.Progress(epoch.Add(time.Second)), 1e-12)
	require.Equal(t, 1.0, tr.Progress(epoch.Add(time.Minute)))
	require.Equal(t, 1.0, Transition{}.Progress(epoch))
}

func TestElapsed(t *testing.T) {
	c, fc := newTestController()
	require.Zero(t, c.Snapshot().Elapsed(fc.Now()))
	c.Start(scene.OceanWaves)
	fc.Advance(3 * time.Second)
	require.Equal(t, 3*time.Second, c.Snapshot().Elapsed(fc.Now()))
}

func TestSnapshotsAreConsistent(t *testing.T) {
	c := New()
	c.Start(scene.OceanWaves)
	c.update(func(st *State) {
		st.Intensity = 0
		st.MotionLevel = 0
	})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			v := float64(i%2) * 0.5
			c.update(func(st *State) {
				st.Intensity = v
				st.MotionLevel = v
			})
		}
	}()

	for range 1000 {
		s := c.Snapshot()
		require.Equal(t, s.Intensity, s.MotionLevel)
	}
	close(stop)
	wg.Wait()
	c.Stop()
}
