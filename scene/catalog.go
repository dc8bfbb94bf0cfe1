// Package scene is the static catalog of procedural scenes.
//
// The catalog is a process-wide constant table: every [Scene] value has
// exactly one [Metadata] entry, and [Lookup] is total over the enumeration.
package scene

import (
	"fmt"
	"strings"

	"github.com/gogpu/dogvision/dichroma"
)

// Scene identifies a procedural scene variant.
type Scene uint8

// Scenes in catalog (and auto-rotation) order.
const (
	OceanWaves Scene = iota
	ForestCanopy
	Fireflies
	GentleRain
	ZenGarden
	SquirrelChase

	count
)

// Count is the number of scenes in the catalog.
const Count = int(count)

// Category groups scenes by their stimulation level.
type Category uint8

const (
	// Calming scenes move slowly with low contrast changes.
	Calming Category = iota
	// Ambient scenes carry steady, moderate motion.
	Ambient
	// Engaging scenes contain tracked moving subjects.
	Engaging
)

func (c Category) String() string {
	switch c {
	case Calming:
		return "calming"
	case Ambient:
		return "ambient"
	case Engaging:
		return "engaging"
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Palette holds the four scene colors in shader order: base, secondary,
// highlight, accent.
type Palette [4]dichroma.RGBA

// Metadata describes a scene's defaults.
type Metadata struct {
	Scene       Scene
	Name        string
	Icon        string
	Category    Category
	Description string
	Palette     Palette
	ClearColor  dichroma.RGBA

	// Shader names the scene's fragment program (shaders/<Shader>.wgsl).
	Shader string

	// FrameRate is the recommended frame rate, within 20..30 fps.
	FrameRate int
}

// Documented palette anchors.
var (
	OceanBlue     = dichroma.RGB(0.05, 0.20, 0.55)
	OceanClear    = dichroma.RGB(0.02, 0.08, 0.25)
	FireflyYellow = dichroma.RGB(1.00, 0.90, 0.30)
	FireflyClear  = dichroma.RGB(0.01, 0.01, 0.05)
	ForestClear   = dichroma.RGB(0.06, 0.08, 0.04)
	RainClear     = dichroma.RGB(0.10, 0.12, 0.20)
	ZenClear      = dichroma.RGB(0.30, 0.28, 0.22)
	SquirrelClear = dichroma.RGB(0.35, 0.45, 0.65)
)

var catalog = [count]Metadata{
	OceanWaves: {
		Name:        "Ocean Waves",
		Icon:        "water.waves",
		Category:    Calming,
		Description: "Rolling blue swells with soft yellow crests",
		Palette: Palette{
			OceanBlue,
			dichroma.RGB(0.10, 0.35, 0.75),
			dichroma.RGB(0.30, 0.55, 0.90),
			dichroma.RGB(0.85, 0.85, 0.60),
		},
		ClearColor: OceanClear,
		Shader:     "ocean",
		FrameRate:  24,
	},
	ForestCanopy: {
		Name:        "Forest Canopy",
		Icon:        "leaf",
		Category:    Ambient,
		Description: "Swaying leaves with dappled yellow light over blue shade",
		Palette: Palette{
			dichroma.RGB(0.25, 0.30, 0.10),
			dichroma.RGB(0.55, 0.50, 0.20),
			dichroma.RGB(0.80, 0.75, 0.35),
			dichroma.RGB(0.20, 0.35, 0.60),
		},
		ClearColor: ForestClear,
		Shader:     "forest",
		FrameRate:  24,
	},
	Fireflies: {
		Name:        "Fireflies",
		Icon:        "sparkles",
		Category:    Engaging,
		Description: "Slow pulsing yellow lights drifting in a dark blue night",
		Palette: Palette{
			dichroma.RGB(0.02, 0.03, 0.12),
			dichroma.RGB(0.10, 0.12, 0.30),
			FireflyYellow,
			dichroma.RGB(0.95, 0.75, 0.15),
		},
		ClearColor: FireflyClear,
		Shader:     "fireflies",
		FrameRate:  24,
	},
	GentleRain: {
		Name:        "Gentle Rain",
		Icon:        "cloud.rain",
		Category:    Calming,
		Description: "Soft falling streaks over a misty blue backdrop",
		Palette: Palette{
			dichroma.RGB(0.20, 0.25, 0.40),
			dichroma.RGB(0.35, 0.45, 0.65),
			dichroma.RGB(0.60, 0.70, 0.90),
			dichroma.RGB(0.85, 0.85, 0.75),
		},
		ClearColor: RainClear,
		Shader:     "rain",
		FrameRate:  24,
	},
	ZenGarden: {
		Name:        "Zen Garden",
		Icon:        "circle.dotted",
		Category:    Calming,
		Description: "Raked sand ripples around still blue stones",
		Palette: Palette{
			dichroma.RGB(0.85, 0.80, 0.60),
			dichroma.RGB(0.70, 0.65, 0.45),
			dichroma.RGB(0.40, 0.45, 0.60),
			dichroma.RGB(0.20, 0.30, 0.55),
		},
		ClearColor: ZenClear,
		Shader:     "zen",
		FrameRate:  20,
	},
	SquirrelChase: {
		Name:        "Squirrel Chase",
		Icon:        "hare",
		Category:    Engaging,
		Description: "A yellow squirrel darting between trunks under a blue sky",
		Palette: Palette{
			dichroma.RGB(0.45, 0.55, 0.80),
			dichroma.RGB(0.60, 0.50, 0.25),
			dichroma.RGB(0.90, 0.70, 0.30),
			dichroma.RGB(0.30, 0.35, 0.20),
		},
		ClearColor: SquirrelClear,
		Shader:     "squirrel",
		FrameRate:  30,
	},
}

func init() {
	for i := range catalog {
		catalog[i].Scene = Scene(i)
	}
}

// Lookup returns the metadata for s. It is total over the declared scenes;
// an out-of-range value (only reachable through a conversion) yields the
// zero Metadata.
func Lookup(s Scene) Metadata {
	if !s.Valid() {
		return Metadata{}
	}
	return catalog[s]
}

// All returns every scene in catalog order.
func All() []Scene {
	out := make([]Scene, count)
	for i := range out {
		out[i] = Scene(i)
	}
	return out
}

// Valid reports whether s is a declared scene.
func (s Scene) Valid() bool { return s < count }

// Next returns the scene after s in cyclic catalog order.
func (s Scene) Next() Scene {
	if !s.Valid() {
		return OceanWaves
	}
	return (s + 1) % count
}

// String returns the scene's display name.
func (s Scene) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scene(%d)", uint8(s))
	}
	return catalog[s].Name
}

// Parse resolves a scene from its display name or shader name, ignoring
// case, spaces, dashes and underscores ("ocean", "Ocean Waves",
// "ocean-waves" all resolve to OceanWaves).
func Parse(name string) (Scene, error) {
	key := normalize(name)
	if key == "" {
		return 0, fmt.Errorf("scene: empty scene name")
	}
	for _, s := range All() {
		m := catalog[s]
		if key == normalize(m.Name) || key == normalize(m.Shader) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("scene: unknown scene %q", name)
}

func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
