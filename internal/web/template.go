package web

import (
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/panel-stopwatch/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"since": func(then, now time.Time) string {
		return humanize.RelTime(then, now, "ago", "from now")
	},
	"comma": func(d time.Duration) string {
		return humanize.Comma(int64(d / time.Second))
	},
	"onoff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="1">
<title>Stopwatch</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.clock { font-size: 3em; margin: 0.3em 0; }
.days { color: #555; }
.running { color: green; font-weight: bold; }
.stopped { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
form { display: inline; }
</style>
</head>
<body>
<h1>Stopwatch</h1>

{{if .DaysVisible}}<div id="days" class="days">{{.DaysLabel}}</div>{{end}}
<div id="time" class="clock">{{.Time}}</div>

{{if .Controls}}<div id="controls">
<form method="post" action="/api/toggle"><button>{{if eq .State.String "RUNNING"}}Stop{{else}}Start{{end}}</button></form>
<form method="post" action="/api/reset"><button>Reset</button></form>
</div>{{end}}

<h2>State</h2>
<table>
<tr><th>Run state</th><td class="{{if eq .State.String "RUNNING"}}running{{else}}stopped{{end}}">{{.State}}</td></tr>
<tr><th>Elapsed</th><td>{{comma .Elapsed}}s</td></tr>
<tr><th>Controls</th><td>{{if .ControlsVisible}}visible{{else}}hidden{{end}}</td></tr>
<tr><th>Image</th><td>{{if .Image}}{{.Image}}{{else}}none{{end}}{{if .ImageError}} ({{.ImageError}}){{end}}</td></tr>
<tr><th>Buttons</th><td>{{onoff .InputsEnabled}}</td></tr>
</table>

<h2>Presses</h2>
<table>
<tr><th>Start/Stop</th><td>{{.Counts.StartStop}}</td></tr>
<tr><th>Reset</th><td>{{.Counts.Reset}}</td></tr>
<tr><th>Suppressed</th><td>{{.Counts.Suppressed}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Started</th><td>{{since .StartTime .Now}}</td></tr>
<tr><th>Session</th><td>{{.Session}}</td></tr>
<tr><th>Version</th><td>{{.Version}}</td></tr>
<tr><th>Input mode</th><td>{{.Config.InputMode}} ({{.Config.PollMs}}ms poll)</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Hide delay</th><td>{{.Config.HideDelayMs}}ms</td></tr>
<tr><th>Image rotation</th><td>{{.Config.RotateMs}}ms from {{.Config.ImageDir}}</td></tr>
<tr><th>Rollover</th><td>{{onoff .Config.Rollover}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, controls bool) {
	data := struct {
		status.Snapshot
		Controls bool
	}{
		Snapshot: snap,
		Controls: controls,
	}
	indexTmpl.Execute(w, data)
}
