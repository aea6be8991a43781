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

package main

import (
	"os"
	"path/filepath"

	"pidloop/internal/config"
	"pidloop/internal/plant"
	"pidloop/internal/rig"
	"pidloop/pkg/appctx"
	"pidloop/pkg/eventbus"
	"pidloop/pkg/logger"
	"pidloop/pkg/rootserv"
	"pidloop/pkg/service"
	"pidloop/pkg/sysmon"
)

func main() {

	rootdir := os.Getenv("PROJECT_ROOT")
	if rootdir == "" {
		rootdir = "."
	}

	log := logger.New("Main")
	if err := logger.Init(filepath.Join(rootdir, "var/logs/pidloop.log")); err != nil {
		// keep running on stdout only
		log.Error("log file unavailable: %v", err)
	}
	defer logger.Close()

	conf := config.LoadFile(filepath.Join(rootdir, "var/config/pidloop.json"))

	// use conf to pass eventbus to whoever needs it
	conf.EventBus = eventbus.New()

	ctx, ctxCancel := appctx.New()

	p, err := plant.New(ctx, conf)
	if err != nil {
		log.Error("plant init: %v", err)
		os.Exit(1)
	}

	// init services
	server := rootserv.New(conf.Server.Addr)
	sysMonitorService := sysmon.New()
	rigService := rig.New(conf, p)

	// attach web handler enabled services
	server.Attach("/logger", "Logger", logger.WebService())
	server.Attach("/monitor", "System Monitor", sysMonitorService)
	server.Attach("/loop", "Control Loop", rigService)

	// start runnable services
	exitCh := service.Start(ctx, ctxCancel, []service.Runnable{
		rigService,
		server,
	})

	// waits for all services to stop
	os.Exit(<-exitCh)
}
