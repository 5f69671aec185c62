//go:build linux

package main

import (
	"fmt"

	"periph.io/x/host/v3/bcm283x"

	"iolinke.dev/pl"
	plserial "iolinke.dev/pl/serial"
)

// wakeupPin is the GPIO line wired to the Master's wake-up pulse output,
// the same bcm283x direct-pin addressing input.Open uses for the display
// HAT's buttons.
var wakeupPin = bcm283x.GPIO17

func openPhysicalLayer(device string) (pl.PhysicalLayer, error) {
	p, err := plserial.Open(plserial.Config{Device: device, WakeupPin: wakeupPin})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return p, nil
}
