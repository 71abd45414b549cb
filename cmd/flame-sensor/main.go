// Command flame-sensor locates a flame with a three-sensor array, aims and
// pulses a suppressant nozzle at it, and publishes what it sees to MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/flame-sensor/internal/control"
	"github.com/sweeney/flame-sensor/internal/gpio"
	"github.com/sweeney/flame-sensor/internal/logic"
	"github.com/sweeney/flame-sensor/internal/mqtt"
	"github.com/sweeney/flame-sensor/internal/sensor"
	"github.com/sweeney/flame-sensor/internal/status"
	"github.com/sweeney/flame-sensor/internal/web"
)

// options holds every command-line setting.
type options struct {
	poll          time.Duration
	broker        string
	clientID      string
	heartbeat     time.Duration
	driftCheck    time.Duration
	debugInterval time.Duration
	serialPort    string
	serialTimeout time.Duration
	port          sensor.PortOptions
	gpioChip      string
	pins          gpio.Pins
	printState    bool
	httpAddr      string
	wsBroker      string
}

func main() {
	var o options
	pins := gpio.DefaultPins()

	rootCmd := &cobra.Command{
		Use:   "flame-sensor",
		Short: "Flame triangulation and suppression daemon",
		Long: `flame-sensor polls a three-sensor flame array over a serial ADC bridge,
estimates the flame bearing, aims and pulses a suppressant nozzle, and
publishes detections and ambient drift warnings to MQTT.

Press the calibration button (or send SIGUSR1 to acknowledge a drift
warning) while the daemon is running.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.pins = pins
			o.wsBroker = resolveWSBroker(o.wsBroker, o.broker)
			return run(o)
		},
	}

	f := rootCmd.Flags()
	f.DurationVar(&o.poll, "poll", 50*time.Millisecond, "Sensor polling interval")
	f.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	f.StringVar(&o.clientID, "client-id", "flame-sensor", "MQTT client id")
	f.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	f.DurationVar(&o.driftCheck, "drift-check", 5*time.Second, "Ambient drift check interval")
	f.DurationVar(&o.debugInterval, "debug-interval", 0, "Interval between diagnostic dumps to the log (0 to disable)")
	f.StringVar(&o.serialPort, "serial", "/dev/ttyUSB0", "Serial device of the sensor ADC bridge")
	f.DurationVar(&o.serialTimeout, "serial-timeout", sensor.DefaultTimeout, "Timeout for one sensor request")
	f.IntVar(&o.port.BaudRate, "baud", 9600, "Serial baud rate")
	f.IntVar(&o.port.DataBits, "data-bits", 8, "Serial data bits")
	f.IntVar(&o.port.StopBits, "stop-bits", 1, "Serial stop bits")
	f.StringVar(&o.port.Parity, "parity", "N", "Serial parity (N, E or O)")
	f.StringVar(&o.gpioChip, "gpio-chip", "gpiochip0", "GPIO character device")
	f.IntVar(&pins.Button, "pin-button", pins.Button, "BCM pin number for the calibration button")
	f.IntVar(&pins.Pump, "pin-pump", pins.Pump, "BCM pin number for the pump relay")
	f.IntVar(&pins.Status, "pin-status", pins.Status, "BCM pin number for the status LED")
	f.IntVar(&pins.SirenA, "pin-siren-a", pins.SirenA, "BCM pin number for siren LED A")
	f.IntVar(&pins.SirenB, "pin-siren-b", pins.SirenB, "BCM pin number for siren LED B")
	f.IntVar(&pins.Buzzer, "pin-buzzer", pins.Buzzer, "BCM pin number for the buzzer")
	f.BoolVar(&o.printState, "print-state", false, "Print one sensor sample and exit")
	f.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	f.StringVar(&o.wsBroker, "ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	port, err := o.port.Normalize()
	if err != nil {
		return fmt.Errorf("serial options: %w", err)
	}

	reader, err := sensor.Open(o.serialPort, port, o.serialTimeout)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if o.printState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Printf("Right: %d, Left: %d, Middle: %d\n", s[logic.Right], s[logic.Left], s[logic.Middle])
		return nil
	}

	button, err := gpio.NewRealButton(o.gpioChip, o.pins.Button)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer button.Close()

	outputs, err := gpio.NewRealOutputs(o.gpioChip, o.pins)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer outputs.Close()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(o.broker, o.clientID)
	defer publisher.Close()

	cfg := logic.DefaultConfig()
	cfg.DriftCheckMs = uint32(o.driftCheck.Milliseconds())

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:       o.poll.Milliseconds(),
		HeartbeatMs:  o.heartbeat.Milliseconds(),
		DriftCheckMs: o.driftCheck.Milliseconds(),
		Broker:       o.broker,
		HTTPPort:     o.httpAddr,
		WSBroker:     o.wsBroker,
		SerialPort:   o.serialPort,
		SerialMode:   port.String(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, cfg.MinDriftSamples)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: poll=%v serial=%s (%s) broker=%s heartbeat=%v drift-check=%v",
		o.poll, o.serialPort, port, o.broker, o.heartbeat, o.driftCheck)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	lo := loopOptions{
		engine:        cfg,
		aim:           control.DefaultAimConfig(),
		pump:          control.DefaultPumpConfig(),
		sirenMs:       300,
		heartbeat:     o.heartbeat,
		debugInterval: o.debugInterval,
		debugOut:      log.Writer(),
	}
	return runLoop(reader, button, outputs, publisher, publisher, tracker, lo, time.Now, ticker.C, sigCh)
}

// loopOptions configures runLoop.
type loopOptions struct {
	engine        logic.Config
	aim           control.AimConfig
	pump          control.PumpConfig
	sirenMs       uint32
	heartbeat     time.Duration
	debugInterval time.Duration // 0 disables
	debugOut      io.Writer
}

func runLoop(reader sensor.Reader, button gpio.Button, outputs gpio.Outputs, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, o loopOptions, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	monitor := logic.NewMonitor(o.engine, startTime)
	controller := control.NewController(o.aim, o.pump, o.sirenMs)
	controller.Cue(monitor.Clock(startTime), control.CueCalibrationStarted)
	log.Printf("calibrating: keep flame sources away from the sensors")

	var (
		buttonWasPressed bool
		lastDebug        = startTime
		act              control.State
	)

	publish := func(t time.Time, events []logic.Event) {
		for _, event := range events {
			logEvent(event)
			if err := publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}
		controller.Notify(monitor.Clock(t), events)
	}

	updateTracker := func() {
		if tracker == nil {
			return
		}
		phase, taken, want := monitor.Calibration()
		tracker.Update(monitor.IsReady(), monitor.Diagnostics(), act,
			status.Calibration{Phase: phase, Taken: taken, Want: want}, monitor.EventCounts())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
			tracker.SetMQTTQueued(mqttStatus.Buffered())
		}
	}

	for {
		select {
		case s := <-sig:
			if s == syscall.SIGUSR1 {
				t := now()
				if events := monitor.AcknowledgeDrift(t); events != nil {
					publish(t, events)
				} else {
					log.Printf("drift: nothing to acknowledge")
				}
				updateTracker()
				continue
			}

			log.Printf("received %v, shutting down", s)
			if err := outputs.Write(gpio.Levels{}); err != nil {
				log.Printf("outputs: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				act = control.State{ServoAngle: act.ServoAngle, TargetAngle: act.TargetAngle}
				updateTracker()
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()

			pressed, err := button.Pressed()
			if err != nil {
				log.Printf("button read error: %v", err)
			} else {
				if pressed && !buttonWasPressed {
					log.Printf("recalibration requested")
					publish(t, monitor.RequestCalibration(t))
				}
				buttonWasPressed = pressed
			}

			readings, err := reader.Read()
			if err != nil {
				log.Printf("sensor read error: %v", err)
				// Hold everything off until the sensor answers again.
				if err := outputs.Write(gpio.Levels{}); err != nil {
					log.Printf("outputs: %v", err)
				}
				act = control.State{ServoAngle: act.ServoAngle, TargetAngle: act.TargetAngle}
				updateTracker()
				continue
			}

			publish(t, monitor.Process(logic.Input{Readings: readings, Time: t}))

			act = controller.Update(monitor.Clock(t), monitor.Outputs())
			if err := outputs.Write(gpio.Levels{
				Pump:   act.PumpActive,
				Status: act.StatusLED,
				SirenA: act.SirenA,
				SirenB: act.SirenB,
				Buzzer: act.Buzzer,
			}); err != nil {
				log.Printf("outputs: %v", err)
			}

			if o.debugInterval > 0 && o.debugOut != nil && t.Sub(lastDebug) >= o.debugInterval {
				lastDebug = t
				if err := monitor.Diagnostics().WriteDebug(o.debugOut, o.engine.MinDriftSamples); err != nil {
					log.Printf("debug dump: %v", err)
				}
				fmt.Fprintf(o.debugOut, "Servo: %d (target %d), Pump: %s\n", act.ServoAngle, act.TargetAngle, onOff(act.PumpActive))
			}

			// Check for heartbeat
			if hbData := monitor.CheckHeartbeat(t, o.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v detected=%d cleared=%d drift_alerts=%d calibrations=%d",
					hbData.Uptime, hbData.Counts.FlameDetected, hbData.Counts.FlameCleared,
					hbData.Counts.DriftAlerts, hbData.Counts.Calibrations)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					updateTracker()
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			updateTracker()
		}
	}
}

func logEvent(e logic.Event) {
	switch e.Type {
	case logic.EventFlameDetected:
		log.Printf("event: %s angle=%.1f confidence=%.0f%% pattern=%s", e.Type, e.Angle, e.Confidence*100, e.Pattern)
	case logic.EventCalibrated:
		log.Printf("event: %s baselines=%v", e.Type, e.Baselines)
	case logic.EventDriftAlert:
		log.Printf("event: %s ambient=%.1f baselines=%v", e.Type, e.Ambient, e.Baselines)
	default:
		log.Printf("event: %s", e.Type)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
