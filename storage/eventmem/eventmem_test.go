package eventmem

import (
	"testing"

	"iolinke.dev/ioerr"
)

func TestQualifierEncodeDecodeRoundTrip(t *testing.T) {
	q := Qualifier{Instance: InstanceApplication, Source: SourceMaster, Type: TypeError, Mode: ModeAppears}
	got := DecodeQualifier(q.Encode())
	if got != q {
		t.Fatalf("got %+v, want %+v", got, q)
	}
}

func TestAddUntilFull(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries; i++ {
		if err := m.Add(Entry{Code: uint16(i)}); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if err := m.Add(Entry{Code: 99}); !ioerr.Is(err, ioerr.EventMemoryFull) {
		t.Fatalf("expected EventMemoryFull, got %v", err)
	}
}

func TestReadoutLatchRejectsAdd(t *testing.T) {
	m := New()
	m.BeginReadout()
	if err := m.Add(Entry{Code: 1}); !ioerr.Is(err, ioerr.StateConflict) {
		t.Fatalf("expected StateConflict, got %v", err)
	}
	if !m.InReadout() {
		t.Fatal("InReadout() = false, want true")
	}
	m.EndReadout()
	if m.InReadout() {
		t.Fatal("InReadout() = true after EndReadout")
	}
	if m.HasPending() {
		t.Fatal("HasPending() = true after EndReadout, want empty queue")
	}
}

func TestPackLayout(t *testing.T) {
	m := New()
	e := Entry{Qualifier: Qualifier{Instance: InstanceSystem, Type: TypeWarning, Mode: ModeSingleShot}, Code: 0x1234}
	if err := m.Add(e); err != nil {
		t.Fatalf("Add: %v", err)
	}
	packed := m.Pack()
	if len(packed) != 4 {
		t.Fatalf("len(packed) = %d, want 4", len(packed))
	}
	if packed[0] != 1 {
		t.Fatalf("packed[0] = %d, want 1 (entry count)", packed[0])
	}
	if packed[1] != e.Qualifier.Encode() {
		t.Fatalf("packed[1] = %#x, want %#x", packed[1], e.Qualifier.Encode())
	}
	if packed[2] != 0x12 || packed[3] != 0x34 {
		t.Fatalf("packed code bytes = %#x %#x, want 0x12 0x34", packed[2], packed[3])
	}
}
