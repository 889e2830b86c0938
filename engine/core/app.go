package core

// Window abstraction. PollEvents delivers pending platform events through
// the event callback and closes every cycle with EventsCleared, followed by
// EventRedrawRequested when a redraw was requested during the cycle.
type Window interface {
	PollEvents()
	RequestRedraw()
	ShouldClose() bool
	FramebufferSize() (int, int)
	SetTitle(title string)
	SetEventCallback(cb func(Event))
	Close()
}

// GraphicsContext is what the frame loop drives once per redraw.
type GraphicsContext interface {
	// Input may consume a window event before the loop handles it.
	Input(ev Event) bool
	// Update runs before every Render.
	Update()
	// Render draws and presents one frame. Errors for which IsFatal
	// reports true end the loop; any other error skips the frame.
	Render() error
}

// Event model.
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

type EventMouseMove struct{ X, Y float64 }

func (EventMouseMove) isEvent() {}

// EventsCleared marks the idle point after a poll cycle drained its events.
type EventsCleared struct{}

func (EventsCleared) isEvent() {}

type EventRedrawRequested struct{}

func (EventRedrawRequested) isEvent() {}

// Key/mod enums (subset).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyQ
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)
