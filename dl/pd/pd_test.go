package pd

import (
	"bytes"
	"testing"

	"iolinke.dev/ioerr"
)

type fakeListener struct {
	output []byte
	cycles int
}

func (f *fakeListener) AlNewOutputInd(data []byte) {
	f.output = append([]byte(nil), data...)
}

func (f *fakeListener) AlPdCycleInd() {
	f.cycles++
}

func TestInputLastWriteWins(t *testing.T) {
	l := &fakeListener{}
	h := NewHandler(2, 2, l)
	h.SetEnabled(true)

	if err := h.AlSetInputReq([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("AlSetInputReq: %v", err)
	}
	if err := h.AlSetInputReq([]byte{0x03, 0x04}); err != nil {
		t.Fatalf("AlSetInputReq: %v", err)
	}
	data, valid := h.PdCycleInd()
	if !valid || !bytes.Equal(data, []byte{0x03, 0x04}) {
		t.Fatalf("data=%v valid=%v, want [3 4] true", data, valid)
	}
	if l.cycles != 1 {
		t.Fatalf("cycles = %d, want 1", l.cycles)
	}
}

func TestWrongLengthInputRejected(t *testing.T) {
	h := NewHandler(2, 2, nil)
	h.SetEnabled(true)
	if err := h.AlSetInputReq([]byte{0x01}); !ioerr.Is(err, ioerr.InvalidLength) {
		t.Fatalf("expected InvalidLength, got %v", err)
	}
}

func TestOutputForwardedToListener(t *testing.T) {
	l := &fakeListener{}
	h := NewHandler(1, 2, l)
	h.SetEnabled(true)
	if err := h.OnReceivePD([]byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("OnReceivePD: %v", err)
	}
	if !bytes.Equal(l.output, []byte{0xAA, 0xBB}) {
		t.Fatalf("output = %v, want [0xAA 0xBB]", l.output)
	}
}

func TestDisabledRejectsOutputAndInvalidatesInput(t *testing.T) {
	h := NewHandler(1, 1, nil)
	h.SetEnabled(true)
	h.AlSetInputReq([]byte{0x01})
	h.SetEnabled(false)

	_, valid := h.PdCycleInd()
	if valid {
		t.Fatal("expected invalid PD after disable")
	}
	if err := h.OnReceivePD([]byte{0x01}); !ioerr.Is(err, ioerr.NotReady) {
		t.Fatalf("expected NotReady, got %v", err)
	}
}
