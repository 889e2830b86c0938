package glbackend

import (
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/hubastard/shaderview/engine/core"
	"github.com/hubastard/shaderview/engine/platform"
)

const solidMagenta = `#version 330 core
out vec4 fragColor;
void main() {
    fragColor = vec4(1.0, 0.0, 1.0, 1.0);
}
`

const resolutionShader = `#version 330 core
layout(std140) uniform Globals {
    vec2 resolution;
    float time;
};
in vec2 vPosition;
out vec4 fragColor;
void main() {
    fragColor = vec4(resolution.x / 255.0, resolution.y / 255.0, step(0.0, time), 1.0);
}
`

func TestClassifyError(t *testing.T) {
	tests := []struct {
		code      uint32
		wantNil   bool
		wantFatal bool
		wantIs    error
	}{
		{gl.NO_ERROR, true, false, nil},
		{gl.OUT_OF_MEMORY, false, true, core.ErrOutOfMemory},
		{gl.INVALID_FRAMEBUFFER_OPERATION, false, false, core.ErrSurfaceOutdated},
		{gl.INVALID_ENUM, false, false, nil},
	}
	for _, tt := range tests {
		err := classifyError(tt.code)
		if (err == nil) != tt.wantNil {
			t.Errorf("classifyError(%#x) = %v", tt.code, err)
			continue
		}
		if core.IsFatal(err) != tt.wantFatal {
			t.Errorf("classifyError(%#x) fatal = %v, want %v", tt.code, core.IsFatal(err), tt.wantFatal)
		}
		if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
			t.Errorf("classifyError(%#x) = %v, want %v", tt.code, err, tt.wantIs)
		}
	}
}

func TestStrings(t *testing.T) {
	if got := (SurfaceFormat{8, 8, 8, 8, true}).String(); got != "R8G8B8A8_sRGB" {
		t.Errorf("SurfaceFormat.String() = %q", got)
	}
	if PresentFIFO.String() != "fifo" || PresentImmediate.String() != "immediate" {
		t.Error("unexpected present mode names")
	}
	if stageName(gl.FRAGMENT_SHADER) != "fragment" || stageName(gl.VERTEX_SHADER) != "vertex" {
		t.Error("unexpected stage names")
	}
}

// stubSurface overrides parts of a real surface to simulate acquisition failures.
type stubSurface struct {
	Surface
	lost      bool
	minimized bool
}

func (s *stubSurface) IsContextCurrent() bool { return !s.lost && s.Surface.IsContextCurrent() }

func (s *stubSurface) FramebufferSize() (int, int) {
	if s.minimized {
		return 0, 0
	}
	return s.Surface.FramebufferSize()
}

// withContext opens a hidden window, builds a Context and runs fn on the
// main thread. It skips when no window system is available.
func withContext(t *testing.T, cfg core.Config, frag string, fn func(c *Context, s *stubSurface)) {
	t.Helper()
	if testing.Short() {
		t.Skip("needs a GPU window")
	}
	cfg.Hidden = true
	var skip error
	onMain(func() {
		win, err := platform.NewGLFWWindow(cfg, nil)
		if err != nil {
			skip = err
			return
		}
		defer win.Close()

		s := &stubSurface{Surface: win}
		c, err := New(s, cfg, frag)
		if err != nil {
			var de *core.DeviceError
			if errors.As(err, &de) {
				skip = err
				return
			}
			t.Errorf("New() = %v", err)
			return
		}
		defer c.Shutdown()
		fn(c, s)
	})
	if skip != nil {
		t.Skipf("no usable GL 3.3 context: %v", skip)
	}
}

func smallConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	return cfg
}

func pixelAt(w int, pixels []byte, x, y int) color.RGBA {
	i := (y*w + x) * 4
	return color.RGBA{pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]}
}

func TestRenderConstantColorCoversViewport(t *testing.T) {
	withContext(t, smallConfig(), solidMagenta, func(c *Context, _ *stubSurface) {
		for i := 0; i < 3; i++ {
			if err := c.Render(); err != nil {
				t.Errorf("Render() #%d = %v", i, err)
				return
			}
		}
		if c.Frame() != 3 {
			t.Errorf("Frame() = %d, want 3", c.Frame())
		}
		sc := c.SurfaceConfig()
		if sc.Width != 64 || sc.Height != 48 || sc.PresentMode != PresentFIFO {
			t.Errorf("surface config = %+v", sc)
		}
		if info := c.Info(); info.Major < 3 || info.Version == "" {
			t.Errorf("device info = %+v", info)
		}

		c.draw()
		w, h, pixels := c.readPixels()
		want := color.RGBA{255, 0, 255, 255}
		for _, p := range [][2]int{{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1}, {w / 2, h / 2}} {
			if got := pixelAt(w, pixels, p[0], p[1]); got != want {
				t.Errorf("pixel %v = %v, want %v", p, got, want)
			}
		}
	})
}

func TestGlobalsReachFragmentShader(t *testing.T) {
	withContext(t, smallConfig(), resolutionShader, func(c *Context, _ *stubSurface) {
		if err := c.Render(); err != nil {
			t.Errorf("Render() = %v", err)
			return
		}
		g := c.Globals(c.clock.Elapsed())
		if g.Resolution.X() != 64 || g.Resolution.Y() != 48 {
			t.Errorf("resolution = %v, want [64 48]", g.Resolution)
		}

		c.writeGlobals(g)
		c.draw()
		w, h, pixels := c.readPixels()
		got := pixelAt(w, pixels, w/2, h/2)
		if got.R != 64 || got.G != 48 || got.B != 255 {
			t.Errorf("center pixel = %v, want resolution (64,48) and time >= 0", got)
		}
	})
}

func TestCaptureWritesFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	cfg := smallConfig()
	cfg.CapturePath = path
	cfg.CaptureFrame = 2
	withContext(t, cfg, solidMagenta, func(c *Context, _ *stubSurface) {
		for i := 0; i < 2; i++ {
			if err := c.Render(); err != nil {
				t.Errorf("Render() = %v", err)
				return
			}
		}
	})
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("capture not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(img.Bounds().Dx()/2, img.Bounds().Dy()/2).RGBA()
	if r != 0xffff || g != 0 || b != 0xffff {
		t.Errorf("captured center = (%d,%d,%d), want magenta", r, g, b)
	}
}

func TestRenderSurfaceFailures(t *testing.T) {
	withContext(t, smallConfig(), solidMagenta, func(c *Context, s *stubSurface) {
		s.minimized = true
		if err := c.Render(); !errors.Is(err, core.ErrSurfaceTimeout) || core.IsFatal(err) {
			t.Errorf("minimized Render() = %v, want transient timeout", err)
		}
		s.minimized = false

		s.lost = true
		if err := c.Render(); !errors.Is(err, core.ErrSurfaceLost) || !core.IsFatal(err) {
			t.Errorf("lost Render() = %v, want fatal surface lost", err)
		}
		if c.Frame() != 0 {
			t.Errorf("failed frames counted: Frame() = %d", c.Frame())
		}
	})
}

func TestShaderErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantPhase string
	}{
		{"syntax", "#version 330 core\nout vec4 c;\nvoid main( { c = vec4(1); }\n", "compile"},
		{"oversized globals", `#version 330 core
layout(std140) uniform Globals {
    vec2 resolution;
    float time;
    vec4 mouse;
};
out vec4 c;
void main() { c = vec4(resolution, time, mouse.x); }
`, "layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if testing.Short() {
				t.Skip("needs a GPU window")
			}
			cfg := smallConfig()
			cfg.Hidden = true
			var (
				skip   error
				newErr error
			)
			onMain(func() {
				win, err := platform.NewGLFWWindow(cfg, nil)
				if err != nil {
					skip = err
					return
				}
				defer win.Close()
				c, err := New(win, cfg, tt.src)
				if c != nil {
					c.Shutdown()
				}
				newErr = err
			})
			if skip != nil {
				t.Skipf("no window system: %v", skip)
			}
			var de *core.DeviceError
			if errors.As(newErr, &de) {
				t.Skipf("no usable GL 3.3 context: %v", newErr)
			}
			var se *core.ShaderError
			if !errors.As(newErr, &se) {
				t.Fatalf("New() = %v, want *core.ShaderError", newErr)
			}
			if se.Phase != tt.wantPhase {
				t.Errorf("phase = %q, want %q (%v)", se.Phase, tt.wantPhase, se)
			}
		})
	}
}
