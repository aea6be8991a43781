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

package pid

import "testing"

// The tick tests use an I-only controller: the integral accumulates
// gain*error*dt, so with error=1 and gain=1 the accumulator reads back
// exactly the effective delta time each calculation ran with.

func TestTickAccumulatesToPeriod(t *testing.T) {
	c := NewTuned(0, 1, 0, -10, 10, 0.25)

	want := []bool{false, false, true, false, true}
	for i, w := range want {
		if got := c.Tick(1, 0, 0.1); got != w {
			t.Errorf("tick %d: got %v, want %v", i+1, got, w)
		}
	}

	// two calculations, each with the period as effective delta
	if !approx(c.Integral(), 0.5) {
		t.Errorf("integral after 5 ticks: got %v, want 0.5", c.Integral())
	}
	if !approx(c.LastOutput(), 0.5) {
		t.Errorf("last output after 5 ticks: got %v, want 0.5", c.LastOutput())
	}
}

func TestTickPassThrough(t *testing.T) {
	c := NewTuned(0, 1, 0, -10, 10, 0)
	for i := 0; i < 3; i++ {
		if !c.Tick(1, 0, 0.1) {
			t.Fatalf("tick %d: pass-through mode must always calculate", i+1)
		}
	}
	if !approx(c.Integral(), 0.3) {
		t.Errorf("pass-through integral: got %v, want 0.3", c.Integral())
	}
}

func TestTickOvershootPreservesCarry(t *testing.T) {
	c := NewTuned(0, 1, 0, -10, 10, 0.2)

	if c.Tick(1, 0, 0.1) {
		t.Fatal("first tick should not calculate")
	}

	// under-sampled frame: calculates immediately with the full delta
	if !c.Tick(1, 0, 0.5) {
		t.Fatal("overshoot tick should calculate")
	}
	if !approx(c.Integral(), 0.5) {
		t.Errorf("overshoot effective delta: got %v, want 0.5", c.Integral())
	}

	// the previously accumulated 0.1s was left in place
	if !c.Tick(1, 0, 0.1) {
		t.Error("carry from before the overshoot should trigger here")
	}
	if !approx(c.Integral(), 0.7) {
		t.Errorf("integral after carry tick: got %v, want 0.7", c.Integral())
	}
}

func TestTickErrorCadence(t *testing.T) {
	c := NewTuned(0, 1, 0, -10, 10, 0.2)
	if c.TickError(1, 0.1) {
		t.Error("first error tick should not calculate")
	}
	if !c.TickError(1, 0.1) {
		t.Error("second error tick should calculate")
	}
	if !approx(c.Integral(), 0.2) {
		t.Errorf("error tick effective delta: got %v, want 0.2", c.Integral())
	}
}

func TestTickIfEnabled(t *testing.T) {
	c := NewTuned(0, 1, 0, -10, 10, 0)
	c.SetEnabled(false, false)

	if c.TickIfEnabled(1, 0, 0.1) || c.TickErrorIfEnabled(1, 0.1) {
		t.Error("disabled ticks must be no-ops")
	}
	if c.Integral() != 0 {
		t.Errorf("disabled tick mutated state: %v", c.Integral())
	}

	c.SetEnabled(true, true)
	if !c.TickIfEnabled(1, 0, 0.1) {
		t.Error("enabled tick in pass-through mode should calculate")
	}
}
