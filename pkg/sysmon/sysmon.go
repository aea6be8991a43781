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

// Package sysmon reports process and system resource usage over HTTP.
package sysmon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"pidloop/pkg/logger"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type Service struct {
	log *logger.Logger
}

func New() *Service {
	return &Service{log: logger.New("SysMonitor")}
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cpuPercents, _ := cpu.Percent(0, false)
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vmem, _ := mem.VirtualMemory()
	totalDisk, freeDisk, usedDisk, _ := DiskUsage("/")

	var procRSS uint64
	var procCPU float64
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			procRSS = mi.RSS
		}
		if pc, err := p.CPUPercent(); err == nil {
			procCPU = pc
		}
	}

	metrics := map[string]any{
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"cpu": map[string]any{
			"system_percent":  cpuPercent,
			"process_percent": procCPU,
		},
		"memory": map[string]any{
			"system_total": vmem.Total,
			"system_used":  vmem.Used,
			"system_free":  vmem.Available,
			"process_rss":  procRSS,
		},
		"disk": map[string]any{
			"total": totalDisk,
			"used":  usedDisk,
			"free":  freeDisk,
		},
	}

	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metrics)
		return
	}

	const gb = 1024 * 1024 * 1024
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>System Monitor</title>
<style>
  body { font-family: sans-serif; margin: 2em; background: #f9f9f9; }
  table { border-collapse: collapse; margin-top: 1em; }
  th, td { border: 1px solid #ccc; padding: 0.6em 1em; text-align: left; }
  th { background: #eee; }
</style></head><body>
<h1>System Monitor</h1>
<p>Go %s, %d goroutines</p>
<table>
  <tr><th></th><th>System</th><th>Process</th></tr>
  <tr><td>CPU</td><td>%.2f%%</td><td>%.2f%%</td></tr>
  <tr><td>Memory</td><td>%.2f / %.2f GB</td><td>%.2f MB RSS</td></tr>
  <tr><td>Disk (/)</td><td>%.2f / %.2f GB</td><td></td></tr>
</table>
</body></html>`,
		runtime.Version(), runtime.NumGoroutine(),
		cpuPercent, procCPU,
		float64(vmem.Used)/gb, float64(vmem.Total)/gb,
		float64(procRSS)/(1024*1024),
		float64(usedDisk)/gb, float64(totalDisk)/gb,
	)
}
