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

package rig

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"pidloop/internal/events"

	"github.com/gorilla/websocket"
)

type clientSync struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newClientSync() *clientSync {
	return &clientSync{clients: make(map[*websocket.Conn]bool)}
}

func (c *clientSync) add(ws *websocket.Conn) {
	c.mu.Lock()
	c.clients[ws] = true
	c.mu.Unlock()
}

func (c *clientSync) remove(ws *websocket.Conn) {
	c.mu.Lock()
	delete(c.clients, ws)
	c.mu.Unlock()
}

func (c *clientSync) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ws := range c.clients {
		ws.Close()
		delete(c.clients, ws)
	}
}

func (c *clientSync) send(pm *websocket.PreparedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ws := range c.clients {
		if err := ws.WritePreparedMessage(pm); err != nil {
			ws.Close()
			delete(c.clients, ws)
		}
	}
}

// broadcast pushes a sample to every connected dashboard client.
func (s *Service) broadcast(sample events.Sample) {
	data, err := json.Marshal(sample)
	if err != nil {
		s.log.Error("marshal sample: %v", err)
		return
	}
	pm, err := websocket.NewPreparedMessage(websocket.TextMessage, data)
	if err != nil {
		s.log.Error("prepare message: %v", err)
		return
	}
	s.clients.send(pm)
}

func (s *Service) buildHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveDashboard)
	mux.HandleFunc("/ws", s.serveWebSockets)
	return mux
}

func (s *Service) serveWebSockets(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return false
			}
			if strings.Contains(origin, "localhost") {
				return true
			}
			return strings.Contains(origin, r.Host)
		},
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade: %v", err)
		return
	}
	s.clients.add(ws)
	defer func() {
		s.clients.remove(ws)
		ws.Close()
	}()

	var cmd Command
	for {
		if err := ws.ReadJSON(&cmd); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			s.log.Error("websocket read: %v", err)
			break
		}
		select {
		case s.cmdQueue <- cmd:
		default:
			s.log.Debug("command queue full, dropping %q", cmd.Command)
		}
	}
}

func (s *Service) serveDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>Control Loop</title>
<style>
  body { font-family: sans-serif; margin: 2em; background: #f9f9f9; }
  table { border-collapse: collapse; margin: 1em 0; }
  th, td { border: 1px solid #ccc; padding: 0.4em 1em; text-align: right; }
  th { background: #eee; }
  input { width: 6em; }
</style>
</head>
<body>
<h1>Control Loop</h1>
<table>
  <tr><th>Setpoint</th><th>Measured</th><th>Output</th><th>Average</th><th>Integral</th><th>Enabled</th></tr>
  <tr>
    <td id="setpoint">-</td><td id="measured">-</td><td id="output">-</td>
    <td id="average">-</td><td id="integral">-</td><td id="enabled">-</td>
  </tr>
</table>
<p>
  <input id="cmdValue" type="number" step="any" value="60">
  <button onclick="send('setpoint')">Setpoint</button>
  <button onclick="send('p_gain')">P</button>
  <button onclick="send('i_gain')">I</button>
  <button onclick="send('d_gain')">D</button>
  <button onclick="send('period')">Period</button>
  <button onclick="send('window')">Window</button>
</p>
<p>
  <button onclick="sendRaw({command:'enable'})">Enable</button>
  <button onclick="sendRaw({command:'enable', clear:true})">Enable (clear)</button>
  <button onclick="sendRaw({command:'disable'})">Disable</button>
</p>
<script>
const proto = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(proto + location.host + location.pathname.replace(/\/$/, "") + "/ws");
ws.onmessage = (ev) => {
  const s = JSON.parse(ev.data);
  for (const k of ["setpoint", "measured", "output", "average", "integral"]) {
    document.getElementById(k).textContent = s[k].toFixed(3);
  }
  document.getElementById("enabled").textContent = s.enabled ? "yes" : "no";
};
function sendRaw(obj) { ws.send(JSON.stringify(obj)); }
function send(cmd) {
  sendRaw({command: cmd, value: parseFloat(document.getElementById("cmdValue").value)});
}
</script>
</body>
</html>
`
