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

package events

import (
	"time"

	"pidloop/pkg/eventbus"
)

var (
	TopicSample eventbus.Topic = "loop.sample"
)

// Sample is one frame of the control loop.
type Sample struct {
	Time       time.Time `json:"time"`
	Setpoint   float64   `json:"setpoint"`
	Measured   float64   `json:"measured"`
	Output     float64   `json:"output"`
	Average    float64   `json:"average"`
	Integral   float64   `json:"integral"`
	Calculated bool      `json:"calculated"`
	Enabled    bool      `json:"enabled"`
}
