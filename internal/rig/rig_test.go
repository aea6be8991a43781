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

package rig

import (
	"context"
	"math"
	"testing"

	"pidloop/internal/config"
	"pidloop/internal/events"
	"pidloop/internal/plant"
	"pidloop/pkg/eventbus"
)

func testService() *Service {
	conf := config.Default()
	conf.Loop.PeriodSeconds = 0 // calculate every frame
	conf.EventBus = eventbus.New()
	p := plant.NewWaterHeater(conf.Plant.Sim)
	return New(conf, p)
}

func TestStepPublishesSample(t *testing.T) {
	s := testService()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	samples, _ := s.bus.Subscribe(ctx, events.TopicSample, false)

	s.step(0.1)

	ev := <-samples
	sample, ok := ev.(events.Sample)
	if !ok {
		t.Fatalf("unexpected event type %T", ev)
	}
	if sample.Setpoint != 60 {
		t.Errorf("sample setpoint: got %v, want 60", sample.Setpoint)
	}
	if !sample.Calculated || !sample.Enabled {
		t.Errorf("sample flags: %+v", sample)
	}
	if math.Abs(sample.Measured-20) > 1 {
		t.Errorf("sample measurement: got %v, want near 20", sample.Measured)
	}
	// cold water, wide error: the correction should saturate high
	if sample.Output != 1 {
		t.Errorf("sample output: got %v, want saturated 1", sample.Output)
	}
}

func TestApplyCommands(t *testing.T) {
	s := testService()

	s.apply(Command{Command: "setpoint", Value: 42})
	if s.setpoint != 42 {
		t.Errorf("setpoint: got %v", s.setpoint)
	}

	s.apply(Command{Command: "p_gain", Value: 2})
	s.apply(Command{Command: "i_gain", Value: 3})
	s.apply(Command{Command: "d_gain", Value: 4})
	if s.ctrl.PGain != 2 || s.ctrl.IGain != 3 || s.ctrl.DGain != 4 {
		t.Errorf("gains: got %v/%v/%v", s.ctrl.PGain, s.ctrl.IGain, s.ctrl.DGain)
	}

	s.apply(Command{Command: "window", Value: 5})
	if s.ctrl.WindowSize() != 5 {
		t.Errorf("window: got %d", s.ctrl.WindowSize())
	}

	s.apply(Command{Command: "disable"})
	if s.ctrl.Enabled() {
		t.Error("controller still enabled after disable")
	}
	if s.ctrl.TickIfEnabled(42, 20, 0.1) {
		t.Error("disabled controller ticked")
	}
	s.apply(Command{Command: "enable", Clear: true})
	if !s.ctrl.Enabled() {
		t.Error("controller not enabled after enable")
	}
}

func TestApplyPeriodRescalesGains(t *testing.T) {
	conf := config.Default()
	conf.Loop.PeriodSeconds = 0.2
	conf.Loop.IGain = 2.0
	conf.Loop.DGain = 1.0
	conf.EventBus = eventbus.New()
	s := New(conf, plant.NewWaterHeater(conf.Plant.Sim))

	s.apply(Command{Command: "period", Value: 0.1})
	if math.Abs(s.ctrl.IGain-1.0) > 1e-9 || math.Abs(s.ctrl.DGain-2.0) > 1e-9 {
		t.Errorf("rescaled gains: got I=%v D=%v, want 1/2", s.ctrl.IGain, s.ctrl.DGain)
	}
}
