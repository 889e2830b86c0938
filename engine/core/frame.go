package core

import "time"

// FrameReport is emitted every Every-th frame.
type FrameReport struct {
	Frame uint64
	FPS   float64
	// FPSValid is false when no time passed since the previous report.
	FPSValid bool
}

// FrameClock tracks elapsed time and the rendered-frame counter.
type FrameClock struct {
	now        func() time.Time
	start      time.Time
	every      uint64
	frame      uint64
	lastReport float32
}

// NewFrameClock starts the clock now. every <= 0 falls back to DefaultLogEvery.
func NewFrameClock(every int, now func() time.Time) *FrameClock {
	if now == nil {
		now = time.Now
	}
	if every <= 0 {
		every = DefaultLogEvery
	}
	return &FrameClock{now: now, start: now(), every: uint64(every)}
}

// Elapsed returns seconds since the clock started.
func (c *FrameClock) Elapsed() float32 {
	return float32(c.now().Sub(c.start).Seconds())
}

// Frame returns how many frames were recorded so far.
func (c *FrameClock) Frame() uint64 { return c.frame }

// Advance records one rendered frame drawn at elapsed seconds.
func (c *FrameClock) Advance(elapsed float32) (FrameReport, bool) {
	c.frame++
	if c.frame%c.every != 0 {
		return FrameReport{}, false
	}
	r := FrameReport{Frame: c.frame}
	if dt := elapsed - c.lastReport; dt > 0 {
		r.FPS = float64(c.every) / float64(dt)
		r.FPSValid = true
	}
	c.lastReport = elapsed
	return r, true
}
