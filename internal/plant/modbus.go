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

import "pidloop/pkg/modbus"

// ModbusPlant drives a real process over Modbus TCP: the measurement is
// read from one named register, the controller output written to another.
type ModbusPlant struct {
	client     *modbus.Client
	measureReg string
	driveReg   string
}

func NewModbusPlant(client *modbus.Client, measureReg, driveReg string) *ModbusPlant {
	return &ModbusPlant{
		client:     client,
		measureReg: measureReg,
		driveReg:   driveReg,
	}
}

// Step samples the measurement register. Time advances on the device,
// so dt is ignored.
func (p *ModbusPlant) Step(_ float64) (float64, error) {
	return p.client.ReadFloat(p.measureReg)
}

// Drive writes the controller output to the drive register.
func (p *ModbusPlant) Drive(output float64) error {
	return p.client.WriteFloat(p.driveReg, output)
}
