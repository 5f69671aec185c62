package serial

import (
	"testing"
	"time"

	"iolinke.dev/pl"
)

// TestTimers exercises the deadline bookkeeping independent of any real
// port or GPIO pin, constructing a bare PhysicalLayer the way the public
// API never does (Open always dials real hardware).
func TestTimers(t *testing.T) {
	p := &PhysicalLayer{}

	elapsed, err := p.TimerElapsed(pl.TimerTdsio)
	if err != nil {
		t.Fatalf("TimerElapsed: %v", err)
	}
	if elapsed {
		t.Fatal("TimerElapsed() = true before ArmTimer")
	}

	if err := p.ArmTimer(pl.TimerTdsio, time.Millisecond); err != nil {
		t.Fatalf("ArmTimer: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	elapsed, err = p.TimerElapsed(pl.TimerTdsio)
	if err != nil {
		t.Fatalf("TimerElapsed: %v", err)
	}
	if !elapsed {
		t.Fatal("TimerElapsed() = false after deadline passed")
	}

	if err := p.DisarmTimer(pl.TimerTdsio); err != nil {
		t.Fatalf("DisarmTimer: %v", err)
	}
	elapsed, err = p.TimerElapsed(pl.TimerTdsio)
	if err != nil {
		t.Fatalf("TimerElapsed: %v", err)
	}
	if elapsed {
		t.Fatal("TimerElapsed() = true after DisarmTimer")
	}

	// Timers are independent of one another.
	if err := p.ArmTimer(pl.TimerMaxCycleTime, time.Hour); err != nil {
		t.Fatalf("ArmTimer: %v", err)
	}
	if elapsed, err := p.TimerElapsed(pl.TimerMaxUARTFrameTime); err != nil || elapsed {
		t.Fatalf("TimerElapsed(unrelated timer) = %v, %v", elapsed, err)
	}
}

func TestWakeUpPulseNilPin(t *testing.T) {
	p := &PhysicalLayer{}
	woke, err := p.WakeUpPulse()
	if err != nil {
		t.Fatalf("WakeUpPulse: %v", err)
	}
	if woke {
		t.Fatal("WakeUpPulse() = true with no wake-up pin configured")
	}
}

func TestTransmitWithoutOpenPort(t *testing.T) {
	p := &PhysicalLayer{}
	if err := p.Transmit([]byte{0x00}); err == nil {
		t.Fatal("Transmit succeeded with no open port")
	}
}

func TestPollReceivedWithoutOpenPort(t *testing.T) {
	p := &PhysicalLayer{}
	buf, err := p.PollReceived()
	if err != nil {
		t.Fatalf("PollReceived: %v", err)
	}
	if len(buf) != 0 {
		t.Fatalf("PollReceived() = %v, want empty", buf)
	}
}
