package dogvision

import (
	"errors"
	"fmt"
)

// ErrNoDevice is reported by New when no GPU device is supplied.
var ErrNoDevice = errors.New("dogvision: no GPU device")

// ErrClosed is returned by operations on a closed Generator.
var ErrClosed = errors.New("dogvision: generator closed")

// InitializationError reports a failure that prevents a Generator from being
// created. It is the only fatal error dogvision produces: setting changes,
// scene changes and frame failures never fail.
type InitializationError struct {
	// Stage is "device" or "pipelines".
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("dogvision: initialization failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
