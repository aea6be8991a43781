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

// Package rig runs the closed control loop: a frame ticker samples the
// plant, feeds the controller, drives the plant with the correction, and
// publishes a sample per frame. The rig goroutine is the controller's
// single owner; web clients reach it only through the command queue.
package rig

import (
	"context"
	"net/http"
	"time"

	"pidloop/internal/config"
	"pidloop/internal/events"
	"pidloop/internal/plant"
	"pidloop/pkg/eventbus"
	"pidloop/pkg/logger"
	"pidloop/pkg/pid"
)

// Command is a live adjustment sent by a dashboard client.
type Command struct {
	Command string  `json:"command"`
	Value   float64 `json:"value,omitempty"`
	Clear   bool    `json:"clear,omitempty"` // enable: clear the integral accumulator
}

type Service struct {
	conf     *config.Config
	bus      *eventbus.Bus
	ctrl     *pid.Controller
	plant    plant.Plant
	frame    time.Duration
	setpoint float64

	cmdQueue chan Command
	clients  *clientSync
	handler  http.Handler

	log *logger.Logger
}

func New(conf *config.Config, p plant.Plant) *Service {
	lc := conf.Loop
	ctrl := pid.NewTuned(lc.PGain, lc.IGain, lc.DGain,
		lc.OutputMin, lc.OutputMax, lc.PeriodSeconds).
		WithWindow(lc.WindowSize)

	s := &Service{
		conf:     conf,
		bus:      conf.EventBus,
		ctrl:     ctrl,
		plant:    p,
		frame:    time.Duration(lc.FrameMillis) * time.Millisecond,
		setpoint: lc.Setpoint,
		cmdQueue: make(chan Command, 4),
		clients:  newClientSync(),
		log:      logger.New("Rig"),
	}
	s.handler = s.buildHTTPHandler()
	return s
}

// Run drives the loop until the context is canceled.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("running, frame=%v period=%.3fs setpoint=%.2f",
		s.frame, s.ctrl.Period, s.setpoint)
	defer s.log.Info("stopped")
	defer s.clients.closeAll()

	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case cmd := <-s.cmdQueue:
			s.apply(cmd)

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.step(dt)

		case <-ctx.Done():
			return
		}
	}
}

// step runs one frame: sample, tick the controller, drive the plant,
// publish.
func (s *Service) step(dt float64) {
	measured, err := s.plant.Step(dt)
	if err != nil {
		s.log.Error("plant read: %v", err)
		return
	}

	calculated := s.ctrl.TickIfEnabled(s.setpoint, measured, dt)

	out := s.ctrl.AverageOutput()
	if err := s.plant.Drive(out); err != nil {
		s.log.Error("plant drive: %v", err)
	}

	sample := events.Sample{
		Time:       time.Now(),
		Setpoint:   s.setpoint,
		Measured:   measured,
		Output:     s.ctrl.LastOutput(),
		Average:    out,
		Integral:   s.ctrl.Integral(),
		Calculated: calculated,
		Enabled:    s.ctrl.Enabled(),
	}
	s.bus.Publish(events.TopicSample, sample)
	s.broadcast(sample)
}

// apply executes a dashboard command on the controller.
func (s *Service) apply(cmd Command) {
	switch cmd.Command {
	case "setpoint":
		s.setpoint = cmd.Value
		s.log.Info("setpoint -> %.3f", cmd.Value)
	case "p_gain":
		s.ctrl.PGain = cmd.Value
		s.log.Info("p_gain -> %.4f", cmd.Value)
	case "i_gain":
		s.ctrl.IGain = cmd.Value
		s.log.Info("i_gain -> %.4f", cmd.Value)
	case "d_gain":
		s.ctrl.DGain = cmd.Value
		s.log.Info("d_gain -> %.4f", cmd.Value)
	case "period":
		s.ctrl.SetPeriod(cmd.Value)
		s.log.Info("period -> %.3fs (I=%.4f D=%.4f)", cmd.Value, s.ctrl.IGain, s.ctrl.DGain)
	case "window":
		s.ctrl.SetWindowSize(int(cmd.Value))
		s.log.Info("window -> %d", s.ctrl.WindowSize())
	case "enable":
		s.ctrl.SetEnabled(true, cmd.Clear)
		s.log.Info("enabled (clear integral: %v)", cmd.Clear)
	case "disable":
		s.ctrl.SetEnabled(false, false)
		s.log.Info("disabled")
	default:
		s.log.Error("unknown command %q", cmd.Command)
	}
}

// ServeHTTP exposes the dashboard and its websocket.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
