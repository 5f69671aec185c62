// Package pl defines the Physical Layer capability contract the IO-Link
// device core consumes (spec.md §4.1, §6.1). The physical UART/GPIO driver,
// wall-clock timer hardware, and wake-up pulse generation are external
// collaborators; this package only describes the capability surface, the
// way periph.io/x/conn describes a Resource without implementing any driver
// itself, and the way nfc/poller.Device describes the capability a protocol
// layer needs from its host transport.
package pl

import "time"

// Mode is the electrical mode of the C/Q line.
type Mode int

const (
	ModeSIO Mode = iota
	ModeCOM1
	ModeCOM2
	ModeCOM3
)

// BaudRate returns the standard baud rate for m, or 0 for ModeSIO.
func (m Mode) BaudRate() int {
	switch m {
	case ModeCOM1:
		return 4800
	case ModeCOM2:
		return 38400
	case ModeCOM3:
		return 230400
	default:
		return 0
	}
}

// TimerName identifies one of the named timers the core arms and observes,
// per spec.md §4.1.
type TimerName int

const (
	TimerTdsio TimerName = iota
	TimerMaxCycleTime
	TimerMaxUARTFrameTime
)

// PhysicalLayer is the non-blocking capability set the core requires from
// its host. Every method must return promptly; HardwareError/Timeout are the
// only error kinds a PhysicalLayer implementation may return (spec.md §4.1).
type PhysicalLayer interface {
	// SetMode switches the electrical mode of the C/Q line.
	SetMode(m Mode) error

	// Transmit sends buf on the C/Q line. Transmission may still be in
	// flight when Transmit returns; completion is not observable except by
	// its effect on the Master's next frame.
	Transmit(buf []byte) error

	// PollReceived returns bytes received since the last call, or an empty
	// slice if none are available. The returned slice must not be retained
	// by the caller past the next call to PollReceived.
	PollReceived() ([]byte, error)

	// WakeUpPulse reports whether a wake-up pulse has been observed on C/Q
	// since the last call (PL_WakeUpInd, spec.md §4.3), clearing the
	// indication.
	WakeUpPulse() (bool, error)

	// ArmTimer (re)arms the named timer to expire after d.
	ArmTimer(name TimerName, d time.Duration) error

	// DisarmTimer cancels the named timer if armed.
	DisarmTimer(name TimerName) error

	// TimerElapsed reports whether the named timer has expired since it was
	// last armed, without clearing the indication (the mode handler clears
	// state by re-arming or disarming).
	TimerElapsed(name TimerName) (bool, error)
}
