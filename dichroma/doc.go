// Package dichroma converts standard RGB output into colors tuned for canine
// (dichromatic, blue/yellow) vision.
//
// The core is [Transform], a pure per-pixel function of an input color and a
// [Params] block. The same math runs on the GPU as WGSL (see the pipeline
// package) and on the CPU through [Transform] and [TransformImage], so the
// CPU path doubles as the reference for shader output.
//
// Per-breed calibration is expressed as a [Profile] looked up by the closed
// [Breed] enumeration. [Derive] turns the user-facing control values
// (intensity, color temperature, motion level) plus a profile into a
// [Tuning]: everything a frame needs, including the transform Params.
//
//	in := dichroma.Inputs{Intensity: 0.6, ColorTemperature: 0.3, MotionLevel: 0.4}
//	tuning := dichroma.Derive(in, dichroma.LookupProfile(dichroma.Brachycephalic))
//	out := dichroma.Transform(dichroma.RGB(0.2, 0.6, 0.3), tuning.Transform)
package dichroma
