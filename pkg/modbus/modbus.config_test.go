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

package modbus

import "testing"

const sampleConfig = `
modbus:
  host: 10.0.0.5
  slave_id: 1
registers:
  process_value:
    address: 100
    data_type: int16
    scale: 0.1
    description: measured temperature
  drive:
    address: 200
    data_type: uint16
    scale: 0.001
    writable: true
`

func TestParseConfig(t *testing.T) {
	conf, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if conf.Modbus.Host != "10.0.0.5" {
		t.Errorf("host: got %q", conf.Modbus.Host)
	}
	if conf.Modbus.Port != 502 {
		t.Errorf("default port: got %d, want 502", conf.Modbus.Port)
	}
	if conf.Modbus.Timeout != 5 {
		t.Errorf("default timeout: got %d, want 5", conf.Modbus.Timeout)
	}

	pv, ok := conf.Registers["process_value"]
	if !ok {
		t.Fatal("process_value register missing")
	}
	if pv.Address != 100 || pv.DataType != "int16" || pv.Scale != 0.1 || pv.Writable {
		t.Errorf("process_value parsed wrong: %+v", pv)
	}

	drv := conf.Registers["drive"]
	if !drv.Writable {
		t.Error("drive should be writable")
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`
registers:
  bad:
    address: 1
    data_type: uint64
`))
	if err == nil {
		t.Fatal("expected error for unsupported data type")
	}
}

func TestRegisterCount(t *testing.T) {
	if registerCount("float32") != 2 {
		t.Error("float32 spans two registers")
	}
	if registerCount("int16") != 1 || registerCount("uint16") != 1 {
		t.Error("16-bit types span one register")
	}
}
