//go:build !linux

package main

import (
	"fmt"

	"iolinke.dev/pl"
	plserial "iolinke.dev/pl/serial"
)

// openPhysicalLayer on non-Linux hosts opens the serial port without a
// GPIO wake-up pin (periph.io's host drivers only cover Linux boards);
// WakeUpPulse then always reports false, matching a bench setup where the
// Master's wake-up line isn't wired up.
func openPhysicalLayer(device string) (pl.PhysicalLayer, error) {
	p, err := plserial.Open(plserial.Config{Device: device})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return p, nil
}
