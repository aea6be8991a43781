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

package config

import (
	"encoding/json"
	"log"
	"os"

	"pidloop/pkg/eventbus"
)

// LoopConfig holds the controller tuning and the rig's frame cadence.
type LoopConfig struct {
	PGain         float64 `json:"p_gain"`
	IGain         float64 `json:"i_gain"`
	DGain         float64 `json:"d_gain"`
	OutputMin     float64 `json:"output_min"`
	OutputMax     float64 `json:"output_max"`
	PeriodSeconds float64 `json:"period_seconds"` // <= 0 calculates every frame
	WindowSize    int     `json:"window_size"`
	FrameMillis   int     `json:"frame_millis"`
	Setpoint      float64 `json:"setpoint"`
}

// SimConfig parameterizes the built-in water heater plant.
type SimConfig struct {
	InitialTempC       float64 `json:"initial_temp_c"`
	VolumeL            float64 `json:"volume_l"`
	DissipationCPerSec float64 `json:"dissipation_c_per_sec"`
	MaxPowerW          float64 `json:"max_power_w"`
}

// PlantConfig selects and parameterizes the controlled plant.
type PlantConfig struct {
	Kind string `json:"kind"` // "sim" or "modbus"

	Sim SimConfig `json:"sim"`

	// modbus plant: register map file plus the two register names
	ModbusConfigPath string `json:"modbus_config_path"`
	MeasureRegister  string `json:"measure_register"`
	DriveRegister    string `json:"drive_register"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type Config struct {
	Loop   LoopConfig   `json:"loop"`
	Plant  PlantConfig  `json:"plant"`
	Server ServerConfig `json:"server"`

	// not loaded from file; passed to all services alongside config
	EventBus *eventbus.Bus `json:"-"`
}

// Default returns a runnable configuration: a simulated water heater
// held at 60°C by a PI controller ticking at 5Hz over 20Hz frames.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			PGain:         0.5,
			IGain:         0.05,
			OutputMin:     0,
			OutputMax:     1,
			PeriodSeconds: 0.2,
			WindowSize:    1,
			FrameMillis:   50,
			Setpoint:      60,
		},
		Plant: PlantConfig{
			Kind: "sim",
			Sim: SimConfig{
				InitialTempC:       20,
				VolumeL:            1,
				DissipationCPerSec: 0.01,
				MaxPowerW:          2000,
			},
			MeasureRegister: "process_value",
			DriveRegister:   "drive",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoadFile reads a config file over the defaults. A missing file is not
// an error; the defaults run the simulated plant.
func LoadFile(path string) *Config {
	c := Default()

	f, err := os.Open(path)
	if err != nil {
		log.Printf("config: %v, using defaults", err)
		return c
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(c); err != nil {
		log.Fatalf("decode config %s: %v", path, err)
	}

	if c.Loop.FrameMillis <= 0 {
		c.Loop.FrameMillis = 50
	}
	if c.Plant.Kind == "" {
		c.Plant.Kind = "sim"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	return c
}
