//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rangefinder/core"

	"github.com/spf13/cobra"
)

var (
	flagLogLevel      string
	flagEchoTimeoutUS uint32
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rangefinder",
		Short: "Ultrasonic rangefinder with LCD readout and proximity alarm",
		Long: `Drives an HC-SR04 ranger, a 16x2 HD44780 display in 4-bit mode,
an LED bank and a buzzer from Raspberry Pi GPIO.

Needs access to /dev/gpiomem. Build with -tags periph to use periph.io
instead of go-rpio.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Uint32Var(&flagEchoTimeoutUS, "echo-timeout", 0,
		fmt.Sprintf("Bound each echo wait in microseconds (%d matches the sensor's no-target pulse); 0 waits forever", core.SensorMaxEchoUS))

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := core.NewLogger(os.Stderr, level)

	gpio, closeGPIO, err := openGPIO()
	if err != nil {
		return err
	}
	defer closeGPIO()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := core.NewController(gpio, core.NewSystemCounter(), boardConfig(flagEchoTimeoutUS), log)
	err = ctrl.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.LogAttrs(ctx, slog.LevelInfo, "stopped", slog.Uint64("cycles", uint64(ctrl.Cycles())))
		return nil
	}
	return err
}
