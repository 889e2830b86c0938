package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrSurfaceTimeout, false},
		{ErrSurfaceOutdated, false},
		{errors.New("other"), false},
		{ErrSurfaceLost, true},
		{ErrOutOfMemory, true},
		{fmt.Errorf("present: %w", ErrSurfaceLost), true},
	}
	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestStartupErrorClassesAreDistinct(t *testing.T) {
	var shaderErr error = &ShaderError{Stage: "fragment", Phase: "compile", Log: "0:3: syntax error"}
	var deviceErr error = fmt.Errorf("setup: %w", &DeviceError{Op: "load gl", Err: errors.New("no context")})

	var se *ShaderError
	var de *DeviceError
	if !errors.As(shaderErr, &se) || errors.As(shaderErr, &de) {
		t.Fatal("shader error misclassified")
	}
	if !errors.As(deviceErr, &de) || errors.As(deviceErr, &se) {
		t.Fatal("device error misclassified")
	}
	if got := se.Error(); got != "shader: fragment compile error: 0:3: syntax error" {
		t.Errorf("ShaderError.Error() = %q", got)
	}
	if got := de.Error(); got != "device: load gl: no context" {
		t.Errorf("DeviceError.Error() = %q", got)
	}
}
