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

// Package rootserv serves an index of attachable sub-handlers under one
// HTTP listener.
package rootserv

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"pidloop/pkg/logger"
)

type RootServer struct {
	log     *logger.Logger
	addr    string
	mux     *http.ServeMux
	entries map[string]string // path -> description
}

func New(addr string) *RootServer {
	return &RootServer{
		addr:    addr,
		mux:     http.NewServeMux(),
		entries: make(map[string]string),
		log:     logger.New("HTTPServer"),
	}
}

// Attach registers a sub-handler under path. The prefix is stripped so
// the handler sees clean URLs.
func (rs *RootServer) Attach(path, desc string, handler http.Handler) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimRight(path, "/")

	rs.log.Info("attach: %s", path)
	rs.entries[path] = desc
	rs.mux.Handle(path+"/", http.StripPrefix(path, handler))
	rs.mux.Handle(path, http.StripPrefix(path, handler))
}

func (rs *RootServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<!DOCTYPE html><html><head><title>pidloop</title></head><body>")
	fmt.Fprintln(w, "<h1>Services</h1><ul>")

	paths := make([]string, 0, len(rs.entries))
	for p := range rs.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(w, `<li><a href="%s">%s</a> - %s</li>`+"\n", p, p, rs.entries[p])
	}
	fmt.Fprintln(w, "</ul></body></html>")
}

// Run serves until the context is canceled, then shuts down gracefully.
func (rs *RootServer) Run(ctx context.Context) {
	rs.log.Info("listening on %s", rs.addr)
	rs.mux.HandleFunc("/", rs.handleIndex)

	srv := &http.Server{Addr: rs.addr, Handler: rs.mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		rs.log.Info("stopped")
	case err := <-errCh:
		rs.log.Error("stopped: %v", err)
	}
}
