package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"rangefinder/host/monitor"
	"rangefinder/host/serial"

	"github.com/spf13/cobra"
)

var (
	flagDevice string
	flagBaud   int
	flagFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rangefinder-monitor",
		Short: "Follow the rangefinder firmware log",
		Long: `Reads the rangefinder's debug UART and prints one coloured line per
measurement cycle. A summary is printed on exit.

Use --file to replay a captured log instead of opening a serial port.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagDevice, "device", "/dev/ttyUSB0", "Serial device path")
	rootCmd.Flags().IntVar(&flagBaud, "baud", serial.DefaultBaud, "Baud rate")
	rootCmd.Flags().StringVar(&flagFile, "file", "", "Replay a captured log file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	src, follow, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	out := cmd.OutOrStdout()
	r := monitor.NewRenderer()
	var stats monitor.Stats

	err = monitor.Tail(ctx, src, follow, func(rec monitor.Record) {
		if rd, err := rec.Reading(); err == nil {
			stats.Add(rd)
		}
		fmt.Fprintln(out, r.Render(rec))
	})
	fmt.Fprintln(out, stats.String())

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openSource() (io.ReadCloser, bool, error) {
	if flagFile != "" {
		f, err := os.Open(flagFile)
		return f, false, err
	}
	cfg := serial.DefaultConfig(flagDevice)
	cfg.Baud = flagBaud
	port, err := serial.Open(cfg)
	return port, true, err
}
