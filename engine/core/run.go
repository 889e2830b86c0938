package core

import "runtime"

type LoopState int

const (
	StateRunning LoopState = iota
	StateExiting
)

func (s LoopState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// FrameLoop drives a GraphicsContext from window events.
type FrameLoop struct {
	win       Window
	gfx       GraphicsContext
	state     LoopState
	err       error
	rendered  int
	maxFrames int
}

// NewFrameLoop wires the loop as the window's event callback.
// maxFrames > 0 stops the loop after that many successful renders.
func NewFrameLoop(win Window, gfx GraphicsContext, maxFrames int) *FrameLoop {
	l := &FrameLoop{win: win, gfx: gfx, maxFrames: maxFrames}
	win.SetEventCallback(l.Dispatch)
	return l
}

func (l *FrameLoop) State() LoopState { return l.state }

// Rendered returns the number of frames rendered without error.
func (l *FrameLoop) Rendered() int { return l.rendered }

// Err returns the fatal render error that ended the loop, if any.
func (l *FrameLoop) Err() error { return l.err }

// Dispatch applies one event to the loop state.
func (l *FrameLoop) Dispatch(ev Event) {
	if l.state == StateExiting {
		return
	}

	switch ev.(type) {
	case EventsCleared:
		l.win.RequestRedraw()
		return
	case EventRedrawRequested:
		l.redraw()
		return
	}

	if l.gfx.Input(ev) {
		return
	}
	switch e := ev.(type) {
	case EventCloseRequested:
		l.exit(nil)
	case EventKey:
		if e.Down && e.Key == KeyEscape {
			l.exit(nil)
		}
	}
}

func (l *FrameLoop) redraw() {
	l.gfx.Update()
	err := l.gfx.Render()
	switch {
	case err == nil:
		l.rendered++
		if l.maxFrames > 0 && l.rendered >= l.maxFrames {
			Logger().Info("frame limit reached", "frames", l.rendered)
			l.exit(nil)
		}
	case IsFatal(err):
		Logger().Error("render failed, exiting", "err", err)
		l.exit(err)
	default:
		Logger().Error("frame skipped", "err", err)
	}
}

func (l *FrameLoop) exit(err error) {
	l.state = StateExiting
	l.err = err
}

// Run polls the window until the loop exits or the platform asks to close.
// It returns the fatal render error, if that is what ended the loop.
func (l *FrameLoop) Run() error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()

	for l.state == StateRunning {
		l.win.PollEvents()
		if l.state == StateRunning && l.win.ShouldClose() {
			l.exit(nil)
		}
	}
	Logger().Info("frame loop exit", "frames", l.rendered)
	return l.err
}
