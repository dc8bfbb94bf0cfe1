// Package pipeline owns the GPU programs and shared buffers used to draw
// scenes.
//
// A Manager is built once per device. Construction compiles a baseline
// program first; if that fails the Manager cannot be created. Every
// catalog scene is then compiled into its own render pipeline. A scene
// whose program fails to compile is mapped to the baseline program, so
// Get always returns a drawable Handle.
//
// Per-frame parameters are written into a ring of uniform slots. Each slot
// has its own bind group and sits at an offset aligned to the device's
// uniform offset alignment, so consecutive frames never overwrite a block
// the GPU may still be reading.
package pipeline
