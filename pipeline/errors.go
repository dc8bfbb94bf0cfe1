package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/dogvision/scene"
)

// ErrNilDevice is returned by New when no device is supplied.
var ErrNilDevice = errors.New("pipeline: nil device")

// ErrClosed is returned by operations on a destroyed Manager.
var ErrClosed = errors.New("pipeline: manager destroyed")

// InitError reports a failure that prevents the Manager from being built:
// a missing device, shared buffer allocation, or the baseline program.
type InitError struct {
	// Stage names the construction step that failed.
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("pipeline: init %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// CompileError reports a scene program that could not be built. The scene
// is drawn with the baseline program instead.
type CompileError struct {
	Scene scene.Scene
	// Stage is "source", "compile", "module" or "pipeline".
	Stage string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pipeline: scene %s: %s: %v", e.Scene, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
