package message

import (
	"testing"
	"time"

	"iolinke.dev/dl/mode"
	"iolinke.dev/dl/mseq"
	"iolinke.dev/pl"
)

type fakePL struct {
	rx    [][]byte
	tx    [][]byte
	armed map[pl.TimerName]time.Duration
}

func newFakePL() *fakePL {
	return &fakePL{armed: make(map[pl.TimerName]time.Duration)}
}

func (f *fakePL) SetMode(m pl.Mode) error { return nil }
func (f *fakePL) Transmit(buf []byte) error {
	f.tx = append(f.tx, append([]byte(nil), buf...))
	return nil
}
func (f *fakePL) PollReceived() ([]byte, error) {
	if len(f.rx) == 0 {
		return nil, nil
	}
	next := f.rx[0]
	f.rx = f.rx[1:]
	return next, nil
}
func (f *fakePL) WakeUpPulse() (bool, error) { return false, nil }
func (f *fakePL) ArmTimer(name pl.TimerName, d time.Duration) error {
	f.armed[name] = d
	return nil
}
func (f *fakePL) DisarmTimer(name pl.TimerName) error {
	delete(f.armed, name)
	return nil
}
func (f *fakePL) TimerElapsed(name pl.TimerName) (bool, error) { return false, nil }

type fakePage struct {
	readData []byte
	readErr  error
	wrote    []byte
	wroteAt  byte
}

func (p *fakePage) Read(addr byte, length int) ([]byte, error) { return p.readData, p.readErr }
func (p *fakePage) Write(addr byte, data []byte) error {
	p.wroteAt = addr
	p.wrote = append([]byte(nil), data...)
	return nil
}

type fakeProcess struct {
	received []byte
	out      []byte
	valid    bool
}

func (p *fakeProcess) OnReceivePD(data []byte) error {
	p.received = append([]byte(nil), data...)
	return nil
}
func (p *fakeProcess) PdCycleInd() ([]byte, bool) { return p.out, p.valid }

type fakeDiag struct {
	data       []byte
	err        error
	readoutEnd int
	flagSet    bool
}

func (d *fakeDiag) OnReadDiagnosis() ([]byte, error) { return d.data, d.err }
func (d *fakeDiag) OnReadoutComplete()               { d.readoutEnd++ }
func (d *fakeDiag) EventFlagSet() bool               { return d.flagSet }

type fakeISDU struct {
	received []byte
	resp     []byte
	hasResp  bool
}

func (i *fakeISDU) OnReceiveOD(chunk []byte) error {
	i.received = append(i.received, chunk...)
	return nil
}
func (i *fakeISDU) NextOD() ([]byte, bool) { return i.resp, i.hasResp }

type fakeModeSignal struct {
	mhInfo    []mode.MHInfo
	cycleDone int
}

func (m *fakeModeSignal) OnMHInfo(info mode.MHInfo) { m.mhInfo = append(m.mhInfo, info) }
func (m *fakeModeSignal) OnMaxCycleTimeExpired()    { m.cycleDone++ }

func TestDispatchPageRead(t *testing.T) {
	phys := newFakePL()
	page := &fakePage{readData: []byte{0x2A}}
	process := &fakeProcess{}
	diag := &fakeDiag{flagSet: false}
	isdu := &fakeISDU{}
	ms := &fakeModeSignal{}

	h := NewHandler(phys, ms, page, process, diag, isdu, 5*time.Millisecond)
	h.SetFrameShape(mseq.Type0, mseq.Lengths{OD: 1, PD: 0})

	req := mseq.Build(mseq.Frame{
		Type: mseq.Type0,
		MC:   mseq.MC{Direction: mseq.DirectionRead, Channel: mseq.ChannelPage, Address: 0x02},
		OD:   []byte{0x00},
	})
	phys.rx = append(phys.rx, req)

	if err := h.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(phys.tx) != 1 {
		t.Fatalf("tx count = %d, want 1", len(phys.tx))
	}
	resp, err := mseq.Parse(phys.tx[0], mseq.Lengths{OD: 1, PD: 0})
	if err != nil {
		t.Fatalf("Parse response: %v", err)
	}
	if len(resp.OD) != 1 || resp.OD[0] != 0x2A {
		t.Fatalf("resp.OD = %v, want [0x2A]", resp.OD)
	}
	if len(ms.mhInfo) != 0 {
		t.Fatalf("unexpected MHInfo signals: %v", ms.mhInfo)
	}
}

func TestChecksumMismatchSignalsMHInfo(t *testing.T) {
	phys := newFakePL()
	page := &fakePage{}
	process := &fakeProcess{}
	diag := &fakeDiag{}
	isdu := &fakeISDU{}
	ms := &fakeModeSignal{}

	h := NewHandler(phys, ms, page, process, diag, isdu, 5*time.Millisecond)
	h.SetFrameShape(mseq.Type0, mseq.Lengths{OD: 1, PD: 0})

	req := mseq.Build(mseq.Frame{
		Type: mseq.Type0,
		MC:   mseq.MC{Direction: mseq.DirectionRead, Channel: mseq.ChannelPage, Address: 0x02},
		OD:   []byte{0x00},
	})
	req[len(req)-1] ^= 0xFF
	phys.rx = append(phys.rx, req)

	if err := h.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(ms.mhInfo) != 1 || ms.mhInfo[0] != mode.MHInfoChecksumMismatch {
		t.Fatalf("mhInfo = %v, want [ChecksumMismatch]", ms.mhInfo)
	}
	if len(phys.tx) != 0 {
		t.Fatalf("tx count = %d, want 0 on bad frame", len(phys.tx))
	}
}

func TestProcessChannelRoundTrip(t *testing.T) {
	phys := newFakePL()
	page := &fakePage{}
	process := &fakeProcess{out: []byte{0x01, 0x02}, valid: true}
	diag := &fakeDiag{}
	isdu := &fakeISDU{}
	ms := &fakeModeSignal{}

	h := NewHandler(phys, ms, page, process, diag, isdu, 5*time.Millisecond)
	h.SetFrameShape(mseq.Type1_1, mseq.Lengths{OD: 1, PD: 2})

	req := mseq.Build(mseq.Frame{
		Type: mseq.Type1_1,
		MC:   mseq.MC{Direction: mseq.DirectionWrite, Channel: mseq.ChannelProcess},
		OD:   []byte{0x00},
		PD:   []byte{0xAA, 0xBB},
	})
	phys.rx = append(phys.rx, req)

	if err := h.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !bytesEqual(process.received, []byte{0xAA, 0xBB}) {
		t.Fatalf("received = %v, want [0xAA 0xBB]", process.received)
	}
	resp, err := mseq.Parse(phys.tx[0], mseq.Lengths{OD: 1, PD: 2})
	if err != nil {
		t.Fatalf("Parse response: %v", err)
	}
	if !resp.PDValid || !bytesEqual(resp.PD, []byte{0x01, 0x02}) {
		t.Fatalf("resp = %+v, want PD [0x01 0x02] valid", resp)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
