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

package plant

import (
	"math"
	"testing"

	"pidloop/internal/config"
	"pidloop/pkg/pid"
)

func testSim() config.SimConfig {
	return config.SimConfig{
		InitialTempC:       20,
		VolumeL:            1,
		DissipationCPerSec: 0.01,
		MaxPowerW:          2000,
	}
}

func TestWaterHeaterCools(t *testing.T) {
	w := NewWaterHeater(testSim())
	temp, err := w.Step(10)
	if err != nil {
		t.Fatal(err)
	}
	if temp >= 20 {
		t.Errorf("unpowered heater should cool: got %v", temp)
	}
}

func TestWaterHeaterDriveClamps(t *testing.T) {
	w := NewWaterHeater(testSim())
	if err := w.Drive(5); err != nil {
		t.Fatal(err)
	}
	// full power for one second: 2000/4186 - 0.01 ≈ 0.468°C
	temp, _ := w.Step(1)
	want := 20 + 2000.0/waterSpecificHeat - 0.01
	if math.Abs(temp-want) > 1e-9 {
		t.Errorf("heating rate: got %v, want %v", temp, want)
	}

	w2 := NewWaterHeater(testSim())
	w2.Drive(-5)
	temp2, _ := w2.Step(1)
	if temp2 >= 20 {
		t.Errorf("negative drive should clamp to zero power: got %v", temp2)
	}
}

func TestWaterHeaterTempBounds(t *testing.T) {
	w := NewWaterHeater(testSim())
	w.Drive(1)
	for i := 0; i < 5000; i++ {
		w.Step(1)
	}
	if w.TempC() > 100 {
		t.Errorf("temperature escaped physical range: %v", w.TempC())
	}
}

// A proportional-only loop settles at the setpoint minus the small
// steady-state offset needed to balance dissipation.
func TestClosedLoopConvergence(t *testing.T) {
	w := NewWaterHeater(testSim())
	c := pid.NewTuned(0.5, 0, 0, 0, 1, 0) // pass-through, calculate every frame

	const setpoint = 60.0
	const dt = 0.1

	temp := w.TempC()
	for i := 0; i < 10000; i++ {
		out := c.Calculate(setpoint, temp, dt)
		w.Drive(out)
		temp, _ = w.Step(dt)
	}

	if math.Abs(temp-setpoint) > 0.1 {
		t.Errorf("loop did not converge: temp=%v setpoint=%v", temp, setpoint)
	}
}

// With a 0.5s period over 0.1s frames, exactly one calculation in five
// frames runs.
func TestClosedLoopTickCadence(t *testing.T) {
	w := NewWaterHeater(testSim())
	c := pid.NewTuned(0.5, 0, 0, 0, 1, 0.5)

	calcs := 0
	temp := w.TempC()
	for i := 0; i < 100; i++ {
		if c.Tick(60, temp, 0.1) {
			calcs++
		}
		w.Drive(c.LastOutput())
		temp, _ = w.Step(0.1)
	}
	if calcs != 20 {
		t.Errorf("calculations over 100 frames: got %d, want 20", calcs)
	}
}
