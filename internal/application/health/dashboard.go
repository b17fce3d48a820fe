package health

import (
	"bytes"
	"html/template"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>FoodShare API · Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="30">
  <style>
    body { font-family: system-ui, sans-serif; background: #f6f8f5; color: #1f3d2b; margin: 0; padding: 40px; }
    h1 { margin: 0 0 8px; font-size: 40px; }
    h1.issue { color: #b91c1c; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 20px; margin-top: 24px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 30px rgba(0,0,0,0.05); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: #94a3b8; margin-bottom: 16px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-weight: 600; }
    .ok { color: #15803d; } .err { color: #b91c1c; }
    a { color: #15803d; font-weight: 700; }
  </style>
</head>
<body>
  {{if eq .Status "ok"}}<h1>All Systems Operational</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
  <div>Uptime {{.Runtime.UptimeSeconds}}s · {{.Runtime.Platform}} · {{.Runtime.GoVersion}}</div>
  <div class="grid">
    <div class="card">
      <div class="label">Traffic</div>
      <div class="row"><span>Requests</span><span>{{.Traffic.TotalRequests}}</span></div>
      <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
      <div class="row"><span>Failed</span><span class="err">{{.Traffic.FailedCount}}</span></div>
      <div class="row"><span>Success rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
      <div class="row"><span>Avg latency</span><span>{{.Traffic.AvgResponseTime}} ms</span></div>
    </div>
    <div class="card">
      <div class="label">Resources</div>
      <div class="row"><span>Allocated</span><span>{{.Runtime.Memory.AllocMB}} MB</span></div>
      <div class="row"><span>Heap in use</span><span>{{.Runtime.Memory.HeapInMB}} MB</span></div>
      <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
    </div>
    <div class="card">
      <div class="label">Dependencies</div>
      {{range $name := .Names}}{{with index $.Dependencies $name}}
      <div class="row"><span>{{$name}}</span><span class="{{if eq .Status "connected"}}ok{{else}}err{{end}}">{{.Status}}</span></div>
      {{end}}{{end}}
    </div>
  </div>
  <p><a href="/health/json">JSON</a> · <a href="/health/errors">Error log</a></p>
</body>
</html>`))

// RenderDashboardHTML renders the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, health); err != nil {
		return "<h1>" + template.HTMLEscapeString(health.Status) + "</h1>"
	}
	return buf.String()
}
