package glbackend

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hubastard/shaderview/engine/assets"
	"github.com/hubastard/shaderview/engine/colors"
	"github.com/hubastard/shaderview/engine/core"
)

// globalsBinding is the uniform buffer slot the Globals block is bound to.
const globalsBinding = 0

const globalsBlockName = "Globals\x00"

// Surface is the window side of a GL context: where frames are presented.
type Surface interface {
	MakeContextCurrent()
	IsContextCurrent() bool
	SwapBuffers()
	FramebufferSize() (int, int)
	SetSwapInterval(interval int)
}

type PresentMode int

const (
	PresentImmediate PresentMode = iota
	PresentFIFO
)

func (m PresentMode) String() string {
	if m == PresentFIFO {
		return "fifo"
	}
	return "immediate"
}

// SurfaceFormat describes the default framebuffer's color buffer.
type SurfaceFormat struct {
	RedBits, GreenBits, BlueBits, AlphaBits int32
	SRGB                                    bool
}

func (f SurfaceFormat) String() string {
	s := fmt.Sprintf("R%dG%dB%dA%d", f.RedBits, f.GreenBits, f.BlueBits, f.AlphaBits)
	if f.SRGB {
		s += "_sRGB"
	}
	return s
}

type SurfaceConfig struct {
	Format        SurfaceFormat
	Width, Height int
	PresentMode   PresentMode
}

type DeviceInfo struct {
	Vendor, Renderer, Version string
	Major, Minor              int32
}

// Context owns every GL object used to draw the shader quad.
// It implements core.GraphicsContext.
type Context struct {
	surface Surface
	info    DeviceInfo
	config  SurfaceConfig
	clear   colors.Color
	clock   *core.FrameClock

	program uint32
	vao     uint32
	vbo     uint32
	ebo     uint32
	ubo     uint32

	globals []byte

	capturePath  string
	captureFrame uint64
}

// New sets up the device, surface and pipeline for fragSrc. Failures are
// *core.DeviceError for the environment and *core.ShaderError for the source.
func New(surface Surface, cfg core.Config, fragSrc string) (c *Context, err error) {
	if err := core.CheckGlobalsLayout(); err != nil {
		return nil, err
	}

	c = &Context{
		surface:     surface,
		clear:       cfg.ClearColor,
		globals:     make([]byte, core.GlobalsSize),
		capturePath: cfg.CapturePath,
	}
	if cfg.CaptureFrame > 0 {
		c.captureFrame = uint64(cfg.CaptureFrame)
	}
	defer func() {
		if err != nil {
			c.Shutdown()
			c = nil
		}
	}()

	surface.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return c, &core.DeviceError{Op: "load gl", Err: err}
	}
	c.info = queryDevice()
	core.Logger().Info("gl device",
		"vendor", c.info.Vendor, "renderer", c.info.Renderer, "version", c.info.Version)
	if c.info.Major < 3 || (c.info.Major == 3 && c.info.Minor < 3) {
		return c, &core.DeviceError{
			Op:  "request device",
			Err: fmt.Errorf("context is GL %d.%d, need 3.3", c.info.Major, c.info.Minor),
		}
	}

	c.config = SurfaceConfig{
		Format:      querySurfaceFormat(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: PresentFIFO,
	}
	surface.SetSwapInterval(1)
	fbw, fbh := surface.FramebufferSize()
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
	core.Logger().Info("surface configured",
		"format", c.config.Format.String(),
		"width", c.config.Width, "height", c.config.Height,
		"framebuffer", fmt.Sprintf("%dx%d", fbw, fbh),
		"present_mode", c.config.PresentMode.String())

	c.program, err = makeProgram(vertexSource, fragSrc)
	if err != nil {
		return c, err
	}

	c.createQuad()

	if err := c.createGlobals(); err != nil {
		return c, err
	}

	// Opaque replace, full write mask, no depth/stencil/culling/MSAA.
	gl.Disable(gl.BLEND)
	gl.ColorMask(true, true, true, true)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.STENCIL_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.FrontFace(gl.CCW)
	gl.Disable(gl.MULTISAMPLE)

	if err := drainErrors(); err != nil {
		return c, &core.DeviceError{Op: "create pipeline", Err: err}
	}

	c.clock = core.NewFrameClock(cfg.LogEvery, nil)
	return c, nil
}

func queryDevice() DeviceInfo {
	info := DeviceInfo{
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
	}
	gl.GetIntegerv(gl.MAJOR_VERSION, &info.Major)
	gl.GetIntegerv(gl.MINOR_VERSION, &info.Minor)
	return info
}

func querySurfaceFormat() SurfaceFormat {
	var f SurfaceFormat
	var enc int32
	query := func(pname uint32, out *int32) {
		gl.GetFramebufferAttachmentParameteriv(gl.FRAMEBUFFER, gl.BACK_LEFT, pname, out)
	}
	query(gl.FRAMEBUFFER_ATTACHMENT_RED_SIZE, &f.RedBits)
	query(gl.FRAMEBUFFER_ATTACHMENT_GREEN_SIZE, &f.GreenBits)
	query(gl.FRAMEBUFFER_ATTACHMENT_BLUE_SIZE, &f.BlueBits)
	query(gl.FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE, &f.AlphaBits)
	query(gl.FRAMEBUFFER_ATTACHMENT_COLOR_ENCODING, &enc)
	f.SRGB = enc == gl.SRGB
	// Some drivers reject BACK_LEFT queries; the format is informational.
	if code := gl.GetError(); code != gl.NO_ERROR {
		core.Logger().Debug("surface format query failed", "gl_error", fmt.Sprintf("%#x", code))
	}
	return f
}

func (c *Context) createQuad() {
	verts := core.QuadVertexData()
	inds := core.QuadIndices[:]

	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	// Element buffer binding is recorded in the VAO.
	gl.GenBuffers(1, &c.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(inds)*2, gl.Ptr(inds), gl.STATIC_DRAW)

	// layout(location = 0) in vec2 aPosition;
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, core.VertexStride, unsafe.Pointer(uintptr(0)))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	core.Logger().Debug("quad uploaded", "vertices", len(core.QuadVertices), "indices", len(inds))
}

func (c *Context) createGlobals() error {
	gl.GenBuffers(1, &c.ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, c.ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, core.GlobalsSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, globalsBinding, c.ubo)

	idx := gl.GetUniformBlockIndex(c.program, gl.Str(globalsBlockName))
	if idx == gl.INVALID_INDEX {
		core.Logger().Debug("fragment shader declares no Globals block")
		return nil
	}
	var size int32
	gl.GetActiveUniformBlockiv(c.program, idx, gl.UNIFORM_BLOCK_DATA_SIZE, &size)
	if size > core.GlobalsSize {
		return &core.ShaderError{
			Stage: "fragment",
			Phase: "layout",
			Log:   fmt.Sprintf("uniform block Globals is %d bytes, host provides %d (vec2 resolution; float time)", size, core.GlobalsSize),
		}
	}
	gl.UniformBlockBinding(c.program, idx, globalsBinding)
	core.Logger().Debug("globals bound", "binding", globalsBinding, "block_size", size)
	return nil
}

// Info reports the device picked at setup.
func (c *Context) Info() DeviceInfo { return c.info }

// SurfaceConfig reports the fixed surface configuration.
func (c *Context) SurfaceConfig() SurfaceConfig { return c.config }

// Frame returns the number of frames presented so far.
func (c *Context) Frame() uint64 { return c.clock.Frame() }

// Input never consumes events yet.
func (c *Context) Input(core.Event) bool { return false }

// Update is reserved for per-frame state that does not exist yet.
func (c *Context) Update() {}

// Render draws and presents one frame.
func (c *Context) Render() error {
	elapsed := c.clock.Elapsed()

	if err := c.acquire(); err != nil {
		return err
	}
	c.writeGlobals(c.Globals(elapsed))
	c.draw()

	if c.capturePath != "" && c.clock.Frame()+1 == c.captureFrame {
		if err := c.capture(c.capturePath); err != nil {
			core.Logger().Error("frame capture failed", "path", c.capturePath, "err", err)
		} else {
			core.Logger().Info("frame captured", "path", c.capturePath, "frame", c.captureFrame)
		}
	}

	c.surface.SwapBuffers()
	if err := drainErrors(); err != nil {
		return err
	}

	if r, ok := c.clock.Advance(elapsed); ok {
		if r.FPSValid {
			core.Logger().Info("frame", "frame", r.Frame, "fps", fmt.Sprintf("%.3f", r.FPS))
		} else {
			core.Logger().Info("frame", "frame", r.Frame, "fps", "unavailable")
		}
	}
	return nil
}

// Globals is the uniform record for a frame drawn at elapsed seconds.
func (c *Context) Globals(elapsed float32) core.Globals {
	return core.Globals{
		Resolution: mgl32.Vec2{float32(c.config.Width), float32(c.config.Height)},
		Time:       elapsed,
	}
}

// acquire checks the default framebuffer can take a frame.
func (c *Context) acquire() error {
	if !c.surface.IsContextCurrent() {
		return core.ErrSurfaceLost
	}
	if w, h := c.surface.FramebufferSize(); w <= 0 || h <= 0 {
		return core.ErrSurfaceTimeout
	}
	if st := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: framebuffer status %#x", core.ErrSurfaceOutdated, st)
	}
	return nil
}

func (c *Context) writeGlobals(g core.Globals) {
	c.globals = g.Encode(c.globals)
	gl.BindBuffer(gl.UNIFORM_BUFFER, c.ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, core.GlobalsSize, gl.Ptr(c.globals))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (c *Context) draw() {
	gl.ClearColor(c.clear[0], c.clear[1], c.clear[2], c.clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(c.program)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, globalsBinding, c.ubo)
	gl.BindVertexArray(c.vao)
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(len(core.QuadIndices)), gl.UNSIGNED_SHORT, gl.PtrOffset(0), 1)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// readPixels returns the back buffer as tightly packed RGBA8, bottom row first.
func (c *Context) readPixels() (w, h int, pixels []byte) {
	w, h = c.surface.FramebufferSize()
	pixels = make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return w, h, pixels
}

func (c *Context) capture(path string) error {
	w, h, pixels := c.readPixels()
	return assets.SaveRGBA(path, w, h, pixels)
}

// drainErrors empties the GL error queue. Out-of-memory wins over anything
// else reported in the same batch.
func drainErrors() error {
	var first error
	for i := 0; i < 16; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		err := classifyError(code)
		if errors.Is(err, core.ErrOutOfMemory) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func classifyError(code uint32) error {
	switch code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return core.ErrOutOfMemory
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return fmt.Errorf("%w: invalid framebuffer operation", core.ErrSurfaceOutdated)
	default:
		return fmt.Errorf("gl error %#x", code)
	}
}

// Shutdown releases every GL object. Safe to call more than once.
func (c *Context) Shutdown() {
	if c.ubo != 0 {
		gl.DeleteBuffers(1, &c.ubo)
		c.ubo = 0
	}
	if c.ebo != 0 {
		gl.DeleteBuffers(1, &c.ebo)
		c.ebo = 0
	}
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
		c.vbo = 0
	}
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
	if c.program != 0 {
		gl.DeleteProgram(c.program)
		c.program = 0
	}
}
