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

package logger

import (
	"bufio"
	"html/template"
	"net/http"
	"os"
	"strings"
)

// Service exposes the debug toggle and a tail of the log file over HTTP.
type Service struct{}

func WebService() *Service {
	return &Service{}
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/toggle":
		EnableDebug(!IsDebug())
		http.Redirect(w, r, "/logger", http.StatusSeeOther)
	default:
		s.renderPage(w)
	}
}

var pageTpl = template.Must(template.New("logger").Parse(`
<!DOCTYPE html>
<html>
<head><title>Logger</title>
<style>
  body { font-family: sans-serif; margin: 2em; background: #f9f9f9; }
  pre.log { background:#222; color:#eee; padding:1em; border-radius:6px; max-height:500px; overflow:auto; }
</style>
</head>
<body>
  <h1>Logger</h1>
  <p><b>Debug:</b> {{if .Debug}}ON{{else}}OFF{{end}}</p>
  <form method="POST" action="/logger/toggle"><button type="submit">Toggle Debug</button></form>
  <h2>Last {{.N}} log lines</h2>
  <pre class="log">{{.Log}}</pre>
</body>
</html>
`))

func (s *Service) renderPage(w http.ResponseWriter) {
	const n = 250
	logs, _ := tail(n)
	_ = pageTpl.Execute(w, map[string]any{
		"Debug": IsDebug(),
		"N":     n,
		"Log":   logs,
	})
}

// tail reads the last n lines of the log file.
func tail(n int) (string, error) {
	mu.RLock()
	name := ""
	if logFile != nil {
		name = logFile.Name()
	}
	mu.RUnlock()
	if name == "" {
		return "", nil
	}

	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), sc.Err()
}
