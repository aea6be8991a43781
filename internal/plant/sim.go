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

import "pidloop/internal/config"

// specific heat of water, J/(kg·°C)
const waterSpecificHeat = 4186

// WaterHeater is a deterministic first-order thermal plant: an element
// heats a volume of water that continuously loses heat to the room.
// Controller output in [0,1] maps to element power.
type WaterHeater struct {
	tempC       float64
	volumeL     float64
	dissipation float64 // °C lost per second
	maxPowerW   float64
	powerW      float64
}

func NewWaterHeater(conf config.SimConfig) *WaterHeater {
	w := &WaterHeater{
		tempC:       conf.InitialTempC,
		volumeL:     conf.VolumeL,
		dissipation: conf.DissipationCPerSec,
		maxPowerW:   conf.MaxPowerW,
	}
	if w.volumeL <= 0 {
		w.volumeL = 1
	}
	if w.maxPowerW <= 0 {
		w.maxPowerW = 2000
	}
	return w
}

// Step advances the model by dt seconds and returns the water
// temperature, held to the physical range [0,100]°C.
func (w *WaterHeater) Step(dt float64) (float64, error) {
	w.tempC += (w.powerW/(waterSpecificHeat*w.volumeL) - w.dissipation) * dt
	if w.tempC < 0 {
		w.tempC = 0
	} else if w.tempC > 100 {
		w.tempC = 100
	}
	return w.tempC, nil
}

// Drive sets element power from a controller output in [0,1].
func (w *WaterHeater) Drive(output float64) error {
	if output < 0 {
		output = 0
	} else if output > 1 {
		output = 1
	}
	w.powerW = output * w.maxPowerW
	return nil
}

// TempC returns the current water temperature without advancing time.
func (w *WaterHeater) TempC() float64 {
	return w.tempC
}
