// Package fade tracks in-flight intensity fades and advances them each tick.
package fade

import "math"

// State is one in-flight intensity fade for a virtual fixture ID.
type State struct {
	Current float64
	Target  float64
	Rate    float64 // intensity units per second
}

// Engine advances active fades. It is tick-driven and keeps no goroutines
// or locks of its own: Tick must be called from the controller's tick
// goroutine, and the callback runs inline so the caller can update the
// universe buffer and publish change notifications in the same pass.
type Engine struct {
	active map[int]*State
}

// NewEngine creates an engine with no active fades.
func NewEngine() *Engine {
	return &Engine{
		active: make(map[int]*State),
	}
}

// StartFade begins a linear fade from current to target intensity over the
// given duration in seconds. A zero or negative duration is instantaneous:
// no fade is recorded and the caller must apply the target directly.
// Starting a fade replaces any fade already running for the same fixture.
func (e *Engine) StartFade(id int, current, target, duration float64) bool {
	if duration <= 0 {
		delete(e.active, id)
		return false
	}

	e.active[id] = &State{
		Current: current,
		Target:  target,
		Rate:    math.Abs(target-current) / duration,
	}
	return true
}

// Cancel removes any in-flight fade for a fixture.
func (e *Engine) Cancel(id int) {
	delete(e.active, id)
}

// CancelAll removes every in-flight fade.
func (e *Engine) CancelAll() {
	e.active = make(map[int]*State)
}

// IsActive reports whether a fade is running for a fixture.
func (e *Engine) IsActive(id int) bool {
	_, ok := e.active[id]
	return ok
}

// ActiveCount returns the number of in-flight fades.
func (e *Engine) ActiveCount() int {
	return len(e.active)
}

// Tick advances every active fade by dt seconds and invokes onIntensity
// with the new value, including the tick that lands exactly on the target.
// Fades that reach their target are removed after that tick.
func (e *Engine) Tick(dt float64, onIntensity func(id int, intensity float64)) {
	if dt <= 0 || len(e.active) == 0 {
		return
	}

	var completed []int

	for id, f := range e.active {
		step := f.Rate * dt

		if f.Current < f.Target {
			f.Current += step
			if f.Current >= f.Target {
				f.Current = f.Target
			}
		} else {
			f.Current -= step
			if f.Current <= f.Target {
				f.Current = f.Target
			}
		}

		if onIntensity != nil {
			onIntensity(id, f.Current)
		}

		if f.Current == f.Target {
			completed = append(completed, id)
		}
	}

	for _, id := range completed {
		delete(e.active, id)
	}
}
