package dpp

import (
	"bytes"
	"testing"

	"iolinke.dev/ioerr"
)

func newTestPage() *Page {
	return NewPage(Init{
		MinCycleTimeEncoded:  0x0A,
		MSeqCapability:       0x03,
		RevisionID:           0x11,
		ProcessDataInLength:  0x01,
		ProcessDataOutLength: 0x01,
		VendorID:             [2]byte{0x01, 0x02},
		DeviceID:             [3]byte{0x03, 0x04, 0x05},
		FunctionID:           [2]byte{0x06, 0x07},
	})
}

func TestReadMinCycleTime(t *testing.T) {
	p := newTestPage()
	got, err := p.Read(AddrMinCycleTime, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0x0A}) {
		t.Fatalf("got %v", got)
	}
}

func TestReadWriteOnlyRejected(t *testing.T) {
	p := newTestPage()
	if _, err := p.Read(AddrMasterCommand, 1); !ioerr.Is(err, ioerr.ReadOnlyError) {
		t.Fatalf("expected ReadOnlyError, got %v", err)
	}
}

func TestReadReservedRejected(t *testing.T) {
	p := newTestPage()
	if _, err := p.Read(AddrReserved, 1); !ioerr.Is(err, ioerr.InvalidAddress) {
		t.Fatalf("expected InvalidAddress, got %v", err)
	}
	if _, err := p.Read(0x10, 1); !ioerr.Is(err, ioerr.InvalidAddress) {
		t.Fatalf("expected InvalidAddress for unpopulated DPP2, got %v", err)
	}
}

func TestWriteReadOnlyRejected(t *testing.T) {
	p := newTestPage()
	if err := p.Write(AddrRevisionID, []byte{0xFF}); !ioerr.Is(err, ioerr.ReadOnlyError) {
		t.Fatalf("expected ReadOnlyError, got %v", err)
	}
}

func TestWriteOutOfRange(t *testing.T) {
	p := newTestPage()
	if err := p.Write(AddrSystemCommand, []byte{0x00, 0x00}); !ioerr.Is(err, ioerr.InvalidLength) {
		t.Fatalf("expected InvalidLength, got %v", err)
	}
}

func TestMasterCommandLatch(t *testing.T) {
	p := newTestPage()
	if _, ok := p.PendingMasterCommand(); ok {
		t.Fatal("expected no pending command initially")
	}
	if err := p.Write(AddrMasterCommand, []byte{0x9A}); err != nil {
		t.Fatal(err)
	}
	cmd, ok := p.PendingMasterCommand()
	if !ok || cmd != 0x9A {
		t.Fatalf("got (%#x, %v), want (0x9a, true)", cmd, ok)
	}
	if _, ok := p.PendingMasterCommand(); ok {
		t.Fatal("expected latch cleared after consumption")
	}
	if _, err := p.Read(AddrMasterCommand, 1); !ioerr.Is(err, ioerr.ReadOnlyError) {
		t.Fatal("MasterCommand must never be readable")
	}
}

func TestMasterCycleTimeIsReadWrite(t *testing.T) {
	p := newTestPage()
	if err := p.Write(AddrMasterCycleTime, []byte{0x20}); err != nil {
		t.Fatal(err)
	}
	got, err := p.Read(AddrMasterCycleTime, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x20 {
		t.Fatalf("got %#x, want 0x20", got[0])
	}
}

func TestVendorAddressOptIn(t *testing.T) {
	p := newTestPage()
	if err := p.SetVendorAddress(0x10, 0x42); err != nil {
		t.Fatal(err)
	}
	got, err := p.Read(0x10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x42 {
		t.Fatalf("got %#x, want 0x42", got[0])
	}
}
