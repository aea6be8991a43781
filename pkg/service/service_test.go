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

package service

import (
	"context"
	"testing"
	"time"
)

type runFunc func(ctx context.Context)

func (f runFunc) Run(ctx context.Context) { f(ctx) }

func waitExit(t *testing.T, exitCh <-chan int) int {
	t.Helper()
	select {
	case code := <-exitCh:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("services did not stop")
		return 0
	}
}

func TestStartCleanExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exitCh := Start(ctx, cancel, []Runnable{
		runFunc(func(ctx context.Context) {}),
		runFunc(func(ctx context.Context) { <-ctx.Done() }),
	})
	cancel()
	if code := waitExit(t, exitCh); code != 0 {
		t.Errorf("exit code: got %d, want 0", code)
	}
}

func TestStartPanicCancelsAndFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exitCh := Start(ctx, cancel, []Runnable{
		runFunc(func(ctx context.Context) { panic("boom") }),
		runFunc(func(ctx context.Context) { <-ctx.Done() }),
	})
	if code := waitExit(t, exitCh); code != -1 {
		t.Errorf("exit code: got %d, want -1", code)
	}
}

func TestStartConcurrentPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	services := make([]Runnable, 8)
	for i := range services {
		services[i] = runFunc(func(ctx context.Context) { panic("boom") })
	}
	if code := waitExit(t, Start(ctx, cancel, services)); code != -1 {
		t.Errorf("exit code: got %d, want -1", code)
	}
}
