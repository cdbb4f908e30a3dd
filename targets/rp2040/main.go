//go:build rp2040

package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"rangefinder/core"
	"rangefinder/targets/pio"
)

// Delay before restarting the loop after a failure
const restartDelay = time.Second

func main() {
	// Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitDebugUART()
	log := core.NewLogger(core.DebugWriter(DebugPrintln), slog.LevelInfo)
	ctx := context.Background()

	counter := hardwareCounter{}
	ctrl := core.NewController(NewRPGPIODriver(), counter, boardConfig(), log)

	// PIO owns the trigger line so the pulse width is exact
	trigger := pio.NewTrigger(pinTrigger, triggerSM, core.NewTimeBase(counter))
	ctrl.Ranger().SetPulser(trigger)

	log.LogAttrs(ctx, slog.LevelInfo, "boot",
		slog.String("mcu", "rp2040"),
		slog.Uint64("uptime_us", uptime()),
	)

	for {
		// Recover from panics so a fault restarts the loop instead of the firmware
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.LogAttrs(ctx, slog.LevelError, "panic", slog.Any("recovered", r))
					ctrl.TimingRing().Dump(ctx, log, slog.LevelError)
				}
			}()

			if err := ctrl.Run(ctx); err != nil {
				log.LogAttrs(ctx, slog.LevelError, "stopped", slog.Any("err", err))
			}
		}()

		time.Sleep(restartDelay)
	}
}
