package core

import (
	"errors"
	"fmt"
)

// Surface errors returned by GraphicsContext.Render.
var (
	ErrSurfaceTimeout  = errors.New("surface: timed out acquiring frame")
	ErrSurfaceOutdated = errors.New("surface: outdated")
	ErrSurfaceLost     = errors.New("surface: lost")
	ErrOutOfMemory     = errors.New("surface: out of memory")
)

// IsFatal reports whether a render error must end the frame loop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrOutOfMemory)
}

// DeviceError is an environment failure: no window, context or usable GPU.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("device: %s: %v", e.Op, e.Err) }
func (e *DeviceError) Unwrap() error { return e.Err }

// ShaderError is a problem with shader source: it failed to compile, link,
// or declares a uniform layout the host cannot feed.
type ShaderError struct {
	Stage string // "vertex", "fragment", "program"
	Phase string // "compile", "link", "layout"
	Log   string
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("shader: %s %s error: %s", e.Stage, e.Phase, e.Log)
}
