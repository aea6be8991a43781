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

// Package plant abstracts the process under control: something that can
// be sampled each frame and driven with the controller's output.
package plant

import (
	"context"
	"fmt"

	"pidloop/internal/config"
	"pidloop/pkg/modbus"
)

// Plant is the process the control loop acts on.
type Plant interface {
	// Step advances the plant by dt seconds and returns the measured
	// process value. Hardware-backed plants ignore dt and sample.
	Step(dt float64) (float64, error)

	// Drive applies a controller output to the plant.
	Drive(output float64) error
}

// New builds the configured plant.
func New(ctx context.Context, conf *config.Config) (Plant, error) {
	switch conf.Plant.Kind {
	case "sim":
		return NewWaterHeater(conf.Plant.Sim), nil

	case "modbus":
		mbConf, err := modbus.LoadConfig(conf.Plant.ModbusConfigPath)
		if err != nil {
			return nil, err
		}
		client, err := modbus.NewClient(ctx, mbConf)
		if err != nil {
			return nil, err
		}
		return NewModbusPlant(client, conf.Plant.MeasureRegister, conf.Plant.DriveRegister), nil

	default:
		return nil, fmt.Errorf("unknown plant kind %q", conf.Plant.Kind)
	}
}
