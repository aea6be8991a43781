// Copyright (C) 2025 Josh Simonot
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package pid implements a bounded three-term (PID) controller meant to
// be owned and driven by an external control loop. The loop supplies the
// elapsed time per cycle; the controller produces a correction value
// clamped to the configured output range.
//
// The controller is not internally synchronized. It has exactly one
// logical owner; concurrent use requires external mutual exclusion.
package pid

import (
	"pidloop/pkg/logger"
)

// zeroRadius is the tolerance within which a float is treated as zero.
const zeroRadius = 1e-5

func nearlyZero(v float64) bool {
	return v == 0 || (v > -zeroRadius && v < zeroRadius)
}

// accumulate adds dt into the buffer and reports whether it overflowed
// the bucket. On overflow the bucket is subtracted once, carrying the
// remainder forward to the next call.
func accumulate(buf *float64, dt, bucket float64) bool {
	*buf += dt
	if *buf >= bucket {
		*buf -= bucket
		return true
	}
	return false
}

// Controller combines tunable gains and limits with the run-time state of
// an active control loop. Tunables are exported and may be changed at any
// time; changing IGain through zero freezes (not erases) the integral
// accumulator.
type Controller struct {
	PGain float64
	IGain float64
	DGain float64

	// Output and the integral accumulator are clamped to this range.
	OutputMin float64
	OutputMax float64

	// Period is the nominal interval between calculations, in seconds.
	// Tick accumulates frame deltas against it; <= 0 means a calculation
	// runs on every invocation. Use SetPeriod to change it on a live
	// controller so the I and D gains are rescaled with it.
	Period float64

	enabled    bool
	integral   float64
	prevError  float64
	prevInput  float64
	prevOutput float64
	tickBuf    float64

	window     []float64
	windowSize int
	cursor     int

	log *logger.Logger
}

// New returns a controller with the default tuning: P=1, I=0, D=0,
// output range [0,1], period 0.2s, no output averaging, enabled.
func New() *Controller {
	c := &Controller{
		PGain:      1,
		OutputMin:  0,
		OutputMax:  1,
		Period:     0.2,
		windowSize: 1,
		enabled:    true,
		log:        logger.New("PID"),
	}
	c.ClearState()
	return c
}

// NewTuned returns a controller with explicit gains, output bounds,
// and period.
func NewTuned(p, i, d, min, max, period float64) *Controller {
	c := New()
	c.PGain, c.IGain, c.DGain = p, i, d
	c.OutputMin, c.OutputMax = min, max
	c.Period = period
	return c
}

// WithOutputLimits sets the output bounds.
func (c *Controller) WithOutputLimits(min, max float64) *Controller {
	c.OutputMin, c.OutputMax = min, max
	return c
}

// WithWindow sets the output averaging window size.
func (c *Controller) WithWindow(n int) *Controller {
	c.SetWindowSize(n)
	return c
}

// ClearState resets the run-time state of an active controller: the
// integral accumulator, error and input history, the tick-time buffer,
// and the averaging window. Tunables and the enabled flag are untouched.
func (c *Controller) ClearState() {
	c.tickBuf = 0
	c.integral = 0
	c.prevError = 0
	c.prevInput = 0
	c.prevOutput = 0
	c.clearWindow()
}

// Calculate computes a new correction from the target setpoint and the
// measured value. The derivative acts on the measured value rather than
// the error, so a setpoint step does not produce a derivative kick.
//
// A near-zero deltaTime returns 0 without mutating any state.
func (c *Controller) Calculate(setpoint, measured, deltaTime float64) float64 {
	if nearlyZero(deltaTime) {
		c.log.Debug("delta time nearly zero, skipping calculation")
		return 0
	}

	err := setpoint - measured

	out := c.proportional(err)
	out += c.integrate(err, deltaTime)
	out += c.derivativeOnInput(measured, deltaTime)

	// history updates last, so the derivative above always saw the
	// prior cycle's input
	c.prevError = err
	c.prevInput = measured

	return c.clampAndRecord(out)
}

// CalculateError computes a new correction from a raw error value. With
// no measurement signal available, the derivative acts on the error delta
// and is therefore susceptible to derivative kick on setpoint changes.
// Previous-input tracking is not updated by this variant.
func (c *Controller) CalculateError(err, deltaTime float64) float64 {
	if nearlyZero(deltaTime) {
		c.log.Debug("delta time nearly zero, skipping calculation")
		return 0
	}

	out := c.proportional(err)
	out += c.integrate(err, deltaTime)
	out += c.derivativeOnError(err, deltaTime)

	c.prevError = err

	return c.clampAndRecord(out)
}

func (c *Controller) proportional(err float64) float64 {
	if nearlyZero(c.PGain) {
		return 0
	}
	return c.PGain * err
}

// integrate folds the error into the accumulator and returns it. The
// gain is applied before accumulation so retuning does not rescale
// history, and the accumulator is clamped to the output range to
// prevent integral windup. A near-zero gain freezes the accumulator.
func (c *Controller) integrate(err, deltaTime float64) float64 {
	if nearlyZero(c.IGain) {
		return c.integral
	}
	c.integral += c.IGain * err * deltaTime
	c.integral = c.clamp(c.integral)
	return c.integral
}

// derivativeOnInput differentiates the measured value. The derivative of
// error equals the negative derivative of the input while the setpoint
// holds, which is what makes this variant immune to setpoint steps.
func (c *Controller) derivativeOnInput(measured, deltaTime float64) float64 {
	if deltaTime < 0 || nearlyZero(deltaTime) || nearlyZero(c.DGain) {
		return 0
	}
	return -c.DGain * (measured - c.prevInput) / deltaTime
}

func (c *Controller) derivativeOnError(err, deltaTime float64) float64 {
	if deltaTime < 0 || nearlyZero(deltaTime) || nearlyZero(c.DGain) {
		return 0
	}
	return c.DGain * (err - c.prevError) / deltaTime
}

func (c *Controller) clamp(v float64) float64 {
	if v > c.OutputMax {
		return c.OutputMax
	}
	if v < c.OutputMin {
		return c.OutputMin
	}
	return v
}

// clampAndRecord bounds the raw sum, stores it as the last output, and
// feeds the averaging window when one is configured.
func (c *Controller) clampAndRecord(v float64) float64 {
	v = c.clamp(v)
	c.prevOutput = v
	if c.windowSize > 1 {
		c.window[c.cursor] = v
		c.cursor = (c.cursor + 1) % len(c.window)
	}
	return v
}

// Tick accumulates deltaTime toward the configured period and performs a
// calculation when it overflows, decoupling the control frequency from
// the caller's invocation cadence. It reports whether a calculation
// occurred; retrieve the result with LastOutput or AverageOutput.
func (c *Controller) Tick(setpoint, measured, deltaTime float64) bool {
	if c.Period > 0 {
		if deltaTime > c.Period {
			// the caller's loop under-sampled; run immediately with the
			// full delta rather than stalling, even if the result is
			// less stable
			c.log.Debug("tick delta %.4fs exceeds period %.4fs", deltaTime, c.Period)
			accumulate(&c.tickBuf, deltaTime, deltaTime)
			c.Calculate(setpoint, measured, deltaTime)
			return true
		}
		if accumulate(&c.tickBuf, deltaTime, c.Period) {
			c.Calculate(setpoint, measured, c.Period)
			return true
		}
		return false
	}

	// no period configured: calculate on every invocation
	c.Calculate(setpoint, measured, deltaTime)
	return true
}

// TickError is the raw-error variant of Tick. See CalculateError for the
// derivative-kick caveat.
func (c *Controller) TickError(err, deltaTime float64) bool {
	if c.Period > 0 {
		if deltaTime > c.Period {
			c.log.Debug("tick delta %.4fs exceeds period %.4fs", deltaTime, c.Period)
			accumulate(&c.tickBuf, deltaTime, deltaTime)
			c.CalculateError(err, deltaTime)
			return true
		}
		if accumulate(&c.tickBuf, deltaTime, c.Period) {
			c.CalculateError(err, c.Period)
			return true
		}
		return false
	}

	c.CalculateError(err, deltaTime)
	return true
}

// TickIfEnabled ticks only while the controller is enabled; disabled
// ticks are no-ops returning false.
func (c *Controller) TickIfEnabled(setpoint, measured, deltaTime float64) bool {
	if !c.enabled {
		return false
	}
	return c.Tick(setpoint, measured, deltaTime)
}

// TickErrorIfEnabled is the raw-error variant of TickIfEnabled.
func (c *Controller) TickErrorIfEnabled(err, deltaTime float64) bool {
	if !c.enabled {
		return false
	}
	return c.TickError(err, deltaTime)
}

// LastOutput returns the most recent clamped correction.
func (c *Controller) LastOutput() float64 {
	return c.prevOutput
}

// AverageOutput returns the mean of the rolling output window, or the
// last raw output when the window size is 1 or less.
func (c *Controller) AverageOutput() float64 {
	if c.windowSize <= 1 {
		return c.prevOutput
	}
	var sum float64
	for i := 0; i < c.windowSize; i++ {
		if i >= len(c.window) {
			break
		}
		sum += c.window[i]
	}
	return sum / float64(c.windowSize)
}

// SetPeriod changes the control period on the fly. When both the old and
// new periods are strictly positive, the integral gain is rescaled by
// newPeriod/oldPeriod and the derivative gain by its inverse, preserving
// the effective loop dynamics across the frequency change. Transitions
// to or from pass-through mode (period <= 0) do not rescale.
func (c *Controller) SetPeriod(seconds float64) {
	if seconds > 0 && !nearlyZero(seconds) &&
		c.Period > 0 && !nearlyZero(c.Period) {
		ratio := seconds / c.Period
		c.IGain *= ratio
		c.DGain /= ratio
	}
	c.Period = seconds
}

// Enabled reports whether the controller is active.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// SetEnabled activates or deactivates the controller. Transitioning from
// disabled to enabled clears the run-time state and seeds the integral
// accumulator: zero when clearIntegral is set, otherwise the last output
// value so the loop re-engages without a bump.
func (c *Controller) SetEnabled(on, clearIntegral bool) {
	if on && !c.enabled {
		c.initialize(clearIntegral)
	}
	c.enabled = on
}

func (c *Controller) initialize(clearIntegral bool) {
	seed := c.prevOutput
	c.ClearState()
	if !clearIntegral {
		c.integral = c.clamp(seed)
	}
}

// WindowSize returns the output averaging window size.
func (c *Controller) WindowSize() int {
	return c.windowSize
}

// SetWindowSize resizes the output averaging window. This is destructive:
// the window is cleared and re-filled with zeros.
func (c *Controller) SetWindowSize(n int) {
	c.windowSize = n
	c.clearWindow()
}

func (c *Controller) clearWindow() {
	c.window = make([]float64, max(c.windowSize, 0))
	c.cursor = 0
}

// PreviousError returns the error used by the last calculation.
func (c *Controller) PreviousError() float64 {
	return c.prevError
}

// PreviousInput returns the measured value used by the last calculation.
// Only the setpoint/measurement entry points maintain it; raw-error
// calculations have no measurement to track.
func (c *Controller) PreviousInput() float64 {
	return c.prevInput
}

// Integral returns the current integral accumulation.
func (c *Controller) Integral() float64 {
	return c.integral
}
