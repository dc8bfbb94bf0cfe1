// Package dogvision generates calming procedural scenes tuned for dog
// vision.
//
// # Overview
//
// Dogs are dichromats: they resolve blue and yellow well and confuse red
// with green. dogvision renders six animated scenes on the GPU and passes
// every pixel through a dichromatic transform that moves contrast into the
// blue-yellow axis, with output paced to a steady 20..30 frames per second.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/dogvision"
//	    "github.com/gogpu/dogvision/gpu"
//	    "github.com/gogpu/dogvision/render"
//	    "github.com/gogpu/dogvision/scene"
//	)
//
//	dev, err := gpu.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	gen, err := dogvision.New(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	target, _ := render.NewTextureTarget(dev, 1280, 720, gen.Format())
//	defer target.Destroy()
//
//	gen.StartGeneration(scene.OceanWaves)
//	gen.StartAutoTransition(5 * time.Minute)
//	for running {
//	    gen.RenderFrame(target)
//	}
//
// Hosts with their own window pass their device through gpu.FromProvider
// and draw into the swapchain view with render.NewViewTarget.
//
// # Scenes
//
// The catalog (package scene) is a closed set: OceanWaves, ForestCanopy,
// Fireflies, GentleRain, ZenGarden and SquirrelChase. Each scene has a
// palette, a clear color and a recommended frame rate.
//
// # Settings
//
// Intensity, color temperature and motion level are each clamped to [0, 1];
// out-of-range values never fail. Breed profiles (package dichroma) retune
// the derived parameters for low-light viewing, high-drive breeds,
// brachycephalic breeds and senior dogs.
//
// # Transitions
//
// TransitionToScene blends palettes and clear colors from the current scene
// to the next; a new request supersedes one in flight. StartAutoTransition
// cycles the catalog on an injectable clock (package clock), so tests can
// drive hours of rotation in virtual time.
//
// # Errors
//
// Only New can fail, with an *InitializationError. Scene programs that fail
// to compile fall back to a plain gradient and are reported by
// CompileFailures. Frames that fail to encode or submit are dropped,
// logged and counted in Stats.
//
// # Logging
//
// dogvision is silent by default. SetLogger enables structured logging for
// every package.
package dogvision
