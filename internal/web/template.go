package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/flame-sensor/internal/mqtt"
	"github.com/sweeney/flame-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Flame Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.flame { color: red; font-weight: bold; }
.clear { color: green; }
.warn { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Flame Sensor{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Flame</h2>
<table>
<tr><th>Detected</th><td id="flame-state" class="{{if .Engine.FlameDetected}}flame{{else}}clear{{end}}">{{if .Engine.FlameDetected}}YES{{else}}NO{{end}}</td></tr>
<tr><th>Angle</th><td id="flame-angle">{{if .Engine.FlameDetected}}{{printf "%.1f" .Engine.Angle}}°{{else}}-{{end}}</td></tr>
<tr><th>Confidence</th><td id="flame-confidence">{{if .Engine.FlameDetected}}{{percent .Engine.Confidence}}{{else}}-{{end}}</td></tr>
<tr><th>Pattern</th><td>{{.Engine.Pattern}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
<tr><th>Calibration</th><td>{{if .Calibration.Phase}}{{.Calibration.Phase}}{{else}}IDLE{{end}}{{if .Calibration.Want}} ({{.Calibration.Taken}}/{{.Calibration.Want}}){{end}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th></th><th>Right</th><th>Left</th><th>Middle</th></tr>
<tr><th>Raw</th>{{range .Engine.Raw}}<td>{{.}}</td>{{end}}</tr>
<tr><th>Smoothed</th>{{range .Engine.Smoothed}}<td>{{.}}</td>{{end}}</tr>
<tr><th>Baseline</th>{{range .Engine.Baselines}}<td>{{.}}</td>{{end}}</tr>
<tr><th>Intensity</th>{{range .Engine.Intensity}}<td>{{printf "%.2f" .}}</td>{{end}}</tr>
<tr><th>Ambient</th>{{range .Engine.Ambient}}<td>{{printf "%.1f" .}}</td>{{end}}</tr>
</table>

<h2>Drift</h2>
<table>
<tr><th>State</th><td id="drift-state" class="{{if .Engine.DriftDetected}}warn{{end}}">{{if .Engine.DriftState}}{{.Engine.DriftState}}{{else}}STABLE{{end}}</td></tr>
<tr><th>Samples</th><td>{{.Engine.ValidSamples}}</td></tr>
</table>

<h2>Actuators</h2>
<table>
<tr><th>Servo</th><td>{{.Actuators.ServoAngle}}° (target {{.Actuators.TargetAngle}}°)</td></tr>
<tr><th>Pump</th><td>{{onOff .Actuators.PumpActive}}{{if .Actuators.PumpEnabled}} (aimed){{end}}</td></tr>
<tr><th>Status LED</th><td>{{onOff .Actuators.StatusLED}}</td></tr>
<tr><th>Siren</th><td>{{onOff .Actuators.SirenA}} / {{onOff .Actuators.SirenB}}</td></tr>
<tr><th>Buzzer</th><td>{{onOff .Actuators.Buzzer}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .MQTTQueued}}<tr><th>Queued</th><td class="warn">{{.MQTTQueued}} messages</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Flame detected</th><td>{{.Counts.FlameDetected}}</td></tr>
<tr><th>Flame cleared</th><td>{{.Counts.FlameCleared}}</td></tr>
<tr><th>Drift alerts</th><td>{{.Counts.DriftAlerts}}</td></tr>
<tr><th>Calibrations</th><td>{{.Counts.Calibrations}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Drift check</th><td>{{.Config.DriftCheckMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialPort}} {{.Config.SerialMode}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/debug.txt">debug</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Topic}}";
  var dot = document.getElementById("live-dot");
  var stateEl = document.getElementById("flame-state");
  var angleEl = document.getElementById("flame-angle");
  var confEl = document.getElementById("flame-confidence");
  var driftEl = document.getElementById("drift-state");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (!msg.flame) return;
      switch (msg.flame.event) {
      case "FLAME_DETECTED":
        stateEl.textContent = "YES";
        stateEl.className = "flame";
        angleEl.textContent = msg.flame.angle.toFixed(1) + "°";
        confEl.textContent = Math.round(msg.flame.confidence * 100) + "%";
        break;
      case "FLAME_CLEARED":
        stateEl.textContent = "NO";
        stateEl.className = "clear";
        angleEl.textContent = "-";
        confEl.textContent = "-";
        break;
      case "DRIFT_ALERT":
        driftEl.textContent = "ALERTED";
        driftEl.className = "warn";
        break;
      case "DRIFT_ACKNOWLEDGED":
      case "CALIBRATED":
        driftEl.textContent = "STABLE";
        driftEl.className = "";
        break;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Topic  string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Topic:    mqtt.Topic,
	}
	return indexTmpl.Execute(w, data)
}
