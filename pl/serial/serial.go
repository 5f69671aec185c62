// Package serial implements pl.PhysicalLayer over a host UART
// (github.com/tarm/serial) and an optional periph.io GPIO wake-up pin.
// Grounded on driver/tmc2209.Device, which layers its register protocol
// over an io.ReadWriter Bus supplied by the host; here the Bus is the
// IO-Link C/Q line itself, reopened at the Master's detected baud rate
// whenever SetMode changes the electrical mode.
package serial

import (
	"sync"
	"time"

	"github.com/tarm/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"

	"iolinke.dev/ioerr"
	"iolinke.dev/pl"
)

// pollReadTimeout bounds how long a PollReceived call may block waiting
// for bytes on the underlying port, so the cooperative Poll loop never
// stalls on an idle line.
const pollReadTimeout = time.Millisecond

// Config selects the host resources a PhysicalLayer opens.
type Config struct {
	// Device is the serial device path (e.g. "/dev/ttyAMA0").
	Device string
	// WakeupPin is the GPIO line carrying the Master's wake-up pulse. Nil
	// disables wake-up detection (WakeUpPulse always reports false).
	WakeupPin gpio.PinIO
}

// PhysicalLayer implements pl.PhysicalLayer over a host serial port.
type PhysicalLayer struct {
	device string
	wakeup gpio.PinIO

	mu   sync.Mutex
	port *serial.Port
	mode pl.Mode

	timers [3]time.Time // deadline per pl.TimerName; zero value means disarmed
}

var _ pl.PhysicalLayer = (*PhysicalLayer)(nil)

// Open initializes the host periph.io runtime, configures the wake-up pin
// if given, and opens the port in ModeCOM2 (the startup baud rate per
// spec.md §4.3).
func Open(cfg Config) (*PhysicalLayer, error) {
	if _, err := host.Init(); err != nil {
		return nil, ioerr.New("pl/serial: Open", ioerr.HardwareError, err)
	}
	p := &PhysicalLayer{device: cfg.Device, wakeup: cfg.WakeupPin}
	if p.wakeup != nil {
		if err := p.wakeup.In(gpio.PullDown, gpio.RisingEdge); err != nil {
			return nil, ioerr.New("pl/serial: Open: configure wake-up pin", ioerr.HardwareError, err)
		}
	}
	if err := p.reopen(pl.ModeCOM2); err != nil {
		return nil, err
	}
	return p, nil
}

// Close releases the underlying port.
func (p *PhysicalLayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

func (p *PhysicalLayer) reopen(m pl.Mode) error {
	if p.port != nil {
		p.port.Close()
		p.port = nil
	}
	p.mode = m
	baud := m.BaudRate()
	if baud == 0 {
		// ModeSIO: the line carries no UART traffic.
		return nil
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        p.device,
		Baud:        baud,
		ReadTimeout: pollReadTimeout,
	})
	if err != nil {
		return ioerr.New("pl/serial: open port", ioerr.HardwareError, err)
	}
	p.port = port
	return nil
}

// SetMode reopens the port at the baud rate m implies, a stand-in for the
// transceiver's electrical mode switch a dedicated C/Q line driver chip
// would perform in hardware.
func (p *PhysicalLayer) SetMode(m pl.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m == p.mode {
		return nil
	}
	return p.reopen(m)
}

// Transmit writes buf to the currently open port.
func (p *PhysicalLayer) Transmit(buf []byte) error {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()
	if port == nil {
		return ioerr.New("pl/serial: Transmit", ioerr.HardwareError, nil)
	}
	if _, err := port.Write(buf); err != nil {
		return ioerr.New("pl/serial: Transmit", ioerr.HardwareError, err)
	}
	return nil
}

// PollReceived reads whatever bytes are currently available, returning an
// empty slice rather than blocking when the port is idle or not yet open.
func (p *PhysicalLayer) PollReceived() ([]byte, error) {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()
	if port == nil {
		return nil, nil
	}
	buf := make([]byte, 64)
	n, err := port.Read(buf)
	if err != nil {
		return nil, ioerr.New("pl/serial: PollReceived", ioerr.HardwareError, err)
	}
	return buf[:n], nil
}

// WakeUpPulse drains any rising edges observed on the wake-up pin since
// the last call, reporting whether at least one occurred.
func (p *PhysicalLayer) WakeUpPulse() (bool, error) {
	if p.wakeup == nil {
		return false, nil
	}
	woke := false
	for p.wakeup.WaitForEdge(0) {
		woke = true
	}
	return woke, nil
}

// ArmTimer records a deadline for name, (re)arming it.
func (p *PhysicalLayer) ArmTimer(name pl.TimerName, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timers[name] = time.Now().Add(d)
	return nil
}

// DisarmTimer clears the deadline for name.
func (p *PhysicalLayer) DisarmTimer(name pl.TimerName) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timers[name] = time.Time{}
	return nil
}

// TimerElapsed reports whether name's deadline has passed, without
// clearing it.
func (p *PhysicalLayer) TimerElapsed(name pl.TimerName) (bool, error) {
	p.mu.Lock()
	deadline := p.timers[name]
	p.mu.Unlock()
	return !deadline.IsZero() && !time.Now().Before(deadline), nil
}
