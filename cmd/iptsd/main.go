// Command iptsd reads heatmap frames from an Intel Precise Touch & Stylus
// controller and drives a virtual multi-touch input device from them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iptsd/iptsd/internal/config"
	"github.com/iptsd/iptsd/internal/diagnostics"
	"github.com/iptsd/iptsd/internal/discovery"
	"github.com/iptsd/iptsd/internal/ipts"
	"github.com/iptsd/iptsd/internal/logging"
)

func main() {
	var device = pflag.StringP("device", "d", "", "hidraw device to read from. Auto-discovered if empty.")
	var replay = pflag.StringP("replay", "r", "", "capture file to replay instead of a live device.")
	var logLevel = pflag.StringP("log-level", "l", "", "log level: debug, info, warn, error. Overrides iptsd.yaml.")
	var captureDir = pflag.StringP("capture-dir", "c", "", "directory to mirror every raw frame into. Overrides iptsd.yaml.")
	var logSink = pflag.BoolP("log-sink", "n", false, "log emitted touch events instead of driving a virtual device (no /dev/uinput needed).")
	var diagAddr = pflag.StringP("diagnostics-addr", "g", "", "if set, serve a JSON frame-statistics stream on this address, e.g. ':8273'.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "iptsd - Intel Precise Touch & Stylus heatmap daemon.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: iptsd [options]\n\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	var cfg, cfgErr = config.Load()
	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "iptsd: %v\n", cfgErr)
		os.Exit(1)
	}

	if *device != "" {
		cfg.Device = *device
	}
	if *replay != "" {
		cfg.Replay = *replay
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *captureDir != "" {
		cfg.CaptureDir = *captureDir
	}
	if *diagAddr != "" {
		cfg.Diagnostics.Enabled = true
	}

	var log = logging.New(os.Stderr, cfg.LogLevel)

	if err := run(cfg, log, *logSink, *diagAddr); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logging.Logger, useLogSink bool, diagAddr string) error {
	var source ipts.FrameSource
	var err error

	switch {
	case cfg.Replay != "":
		source, err = ipts.OpenReplayFile(cfg.Replay)
	case cfg.Device != "":
		source, err = ipts.OpenCharDevice(cfg.Device)
	default:
		var ctx, cancel = context.WithCancel(context.Background())
		defer cancel()

		var path string
		path, err = discovery.FindHeatmapDevice(ctx, log)
		if err == nil {
			source, err = ipts.OpenCharDevice(path)
		}
	}

	if err != nil {
		return fmt.Errorf("opening frame source: %w", err)
	}
	defer source.Close()

	if cfg.CaptureDir != "" {
		var capture, captureErr = ipts.NewCaptureWriter(source, cfg.CaptureDir)
		if captureErr != nil {
			return fmt.Errorf("setting up frame capture: %w", captureErr)
		}
		capture.Log = log
		source = capture
	}

	var sink ipts.Sink
	if useLogSink {
		sink = ipts.LogSink{Log: log}
	} else {
		var uinput, uinputErr = ipts.OpenUinputSink()
		if uinputErr != nil {
			return fmt.Errorf("setting up virtual touch device: %w", uinputErr)
		}
		defer uinput.Close()
		sink = uinput
	}

	var pipeline = ipts.NewPipeline(source, sink)
	pipeline.Log = log

	if cfg.Diagnostics.Enabled {
		var server = diagnostics.NewServer(log)
		pipeline.Observer = server.Publish

		var addr = fmt.Sprintf(":%d", cfg.Diagnostics.Port)
		if diagAddr != "" {
			addr = diagAddr
		}

		go func() {
			if serveErr := server.Serve(addr); serveErr != nil {
				log.Warnf("diagnostics server stopped: %v", serveErr)
			}
		}()
		defer server.Close()

		if cfg.Diagnostics.ServiceName != "" {
			go func() {
				if announceErr := diagnostics.Announce(log, cfg.Diagnostics.Port, cfg.Diagnostics.ServiceName); announceErr != nil {
					log.Warnf("dns-sd announce stopped: %v", announceErr)
				}
			}()
		}
	}

	var sigCh = make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var done = make(chan error, 1)
	go func() {
		for {
			select {
			case <-sigCh:
				done <- nil
				return
			default:
			}

			var stepErr = pipeline.Step()
			if stepErr == nil {
				continue
			}

			if errors.Is(stepErr, ipts.ErrShortRead) {
				log.Warnf("short read, retrying: %v", stepErr)
				continue
			}

			if errors.Is(stepErr, ipts.ErrSinkWrite) {
				// Already logged by Pipeline.Step via Log; keep running.
				continue
			}

			done <- stepErr
			return
		}
	}()

	return <-done
}
