package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hubastard/shaderview/engine/assets"
	"github.com/hubastard/shaderview/engine/colors"
	"github.com/hubastard/shaderview/engine/core"
	glbackend "github.com/hubastard/shaderview/engine/gfx/gl"
	"github.com/hubastard/shaderview/engine/platform"
)

// GLFW and GL calls must stay on the main thread.
func init() { runtime.LockOSThread() }

const logLevelEnv = "SHADERVIEW_LOG_LEVEL"

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type options struct {
	cfg      core.Config
	shader   string
	logLevel slog.Level
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "shaderview: %v\n", err)
		return exitUsage
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: opts.logLevel}))
	slog.SetDefault(logger)
	core.SetLogger(logger)

	src, err := assets.LoadShader(opts.shader)
	if err != nil {
		fmt.Fprintf(stderr, "shaderview: %v\n", err)
		return exitFailed
	}

	if err := view(opts.cfg, src); err != nil {
		var se *core.ShaderError
		var de *core.DeviceError
		switch {
		case errors.As(err, &se):
			fmt.Fprintf(stderr, "shaderview: %s: fragment shader rejected:\n%v\n", opts.shader, se)
		case errors.As(err, &de):
			fmt.Fprintf(stderr, "shaderview: graphics device unavailable: %v\n", de)
		default:
			fmt.Fprintf(stderr, "shaderview: %v\n", err)
		}
		return exitFailed
	}
	return exitOK
}

// view opens the window and renders until it is closed.
func view(cfg core.Config, fragSrc string) error {
	win, err := platform.NewGLFWWindow(cfg, nil)
	if err != nil {
		return err
	}
	defer win.Close()

	ctx, err := glbackend.New(win, cfg, fragSrc)
	if err != nil {
		return err
	}
	defer ctx.Shutdown()

	return core.NewFrameLoop(win, ctx, cfg.MaxFrames).Run()
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("shaderview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: shaderview [flags] <fragment-shader>\n\nflags:\n")
		fs.PrintDefaults()
	}

	var (
		width, height int
		clear         string
		configPath    string
		logLevel      string
		opts          options
	)
	def := core.DefaultConfig()
	fs.IntVar(&width, "width", def.Width, "window width in pixels")
	fs.IntVar(&width, "w", def.Width, "shorthand for -width")
	fs.IntVar(&height, "height", def.Height, "window height in pixels")
	fs.IntVar(&height, "h", def.Height, "shorthand for -height")
	fs.StringVar(&configPath, "config", "", "YAML config file; flags override its values")
	fs.StringVar(&opts.cfg.Title, "title", "", "window title (default \"shaderview: <file>\")")
	fs.StringVar(&clear, "clear", def.ClearColor.Hex(), "clear color as #rrggbb[aa]")
	fs.IntVar(&opts.cfg.MaxFrames, "frames", 0, "exit after this many rendered frames (0 = until closed)")
	fs.StringVar(&opts.cfg.CapturePath, "capture", "", "write one rendered frame to this .png, .bmp or .tiff file")
	fs.IntVar(&opts.cfg.CaptureFrame, "capture-frame", def.CaptureFrame, "frame number written by -capture")
	fs.StringVar(&logLevel, "log-level", envOr(logLevelEnv, "info"), "debug, info, warn or error (env "+logLevelEnv+")")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected exactly one fragment shader path, got %d arguments", fs.NArg())
	}
	opts.shader = fs.Arg(0)

	if err := opts.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return opts, fmt.Errorf("log level %q: %w", logLevel, err)
	}

	cfg := def
	if configPath != "" {
		var err error
		if cfg, err = core.LoadConfig(configPath); err != nil {
			return opts, err
		}
	}

	// Explicitly set flags win over the config file.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width", "w":
			cfg.Width = width
		case "height", "h":
			cfg.Height = height
		case "title":
			cfg.Title = opts.cfg.Title
		case "clear":
			c, err := colors.Parse(clear)
			if err != nil {
				flagErr = err
				return
			}
			cfg.ClearColor = c
		case "frames":
			cfg.MaxFrames = opts.cfg.MaxFrames
		case "capture":
			cfg.CapturePath = opts.cfg.CapturePath
		case "capture-frame":
			cfg.CaptureFrame = opts.cfg.CaptureFrame
		}
	})
	if flagErr != nil {
		return opts, flagErr
	}
	if cfg.Title == "" || cfg.Title == def.Title {
		cfg.Title = "shaderview: " + filepath.Base(opts.shader)
	}
	if err := cfg.Validate(); err != nil {
		return opts, err
	}
	opts.cfg = cfg
	return opts, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
