// Package dpp implements the Direct Parameter Page engine (spec.md §3, §4.9):
// the 32-octet DPP1/DPP2 address space, its per-address RO/WO/Reserved
// classification, and the MinCycleTime codec (§4.10).
//
// The engine only enforces access classification and bounds; it does not
// itself dispatch MasterCommand/SystemCommand writes to the Command Handler
// (spec.md §4.8) — callers read back pending command writes with
// PendingMasterCommand/PendingSystemCommand, mirroring how nfc/type4's Tag
// separates frame-level ack/nak from command execution.
package dpp

import "iolinke.dev/ioerr"

// Address constants for DPP1, per spec.md §3.
const (
	AddrMasterCommand   = 0x00
	AddrMasterCycleTime = 0x01
	AddrMinCycleTime    = 0x02
	AddrMSeqCapability  = 0x03
	AddrRevisionID      = 0x04
	AddrProcessDataIn   = 0x05
	AddrProcessDataOut  = 0x06
	AddrVendorID1       = 0x07
	AddrVendorID2       = 0x08
	AddrDeviceID1       = 0x09
	AddrDeviceID2       = 0x0A
	AddrDeviceID3       = 0x0B
	AddrFunctionID1     = 0x0C
	AddrFunctionID2     = 0x0D
	AddrReserved        = 0x0E
	AddrSystemCommand   = 0x0F

	pageSize            = 0x20 // DPP1 + DPP2, addresses 0x00-0x1F
	writeBoundExclusive = 0x10 // writes must satisfy addr+length <= 0x10
	readBoundExclusive  = 0x20 // reads must satisfy addr+length <= 0x20
)

type class int

const (
	classRO class = iota
	classWO
	classRW
	classReserved
)

// Init describes the compile-time-initialized contents of DPP1, derived
// from config.Config at device construction.
type Init struct {
	MinCycleTimeEncoded  byte
	MSeqCapability       byte
	RevisionID           byte
	ProcessDataInLength  byte
	ProcessDataOutLength byte
	VendorID             [2]byte
	DeviceID             [3]byte
	FunctionID           [2]byte
}

// Page is the 32-octet Direct Parameter Page address space.
type Page struct {
	data          [pageSize]byte
	vendorPopul   [pageSize]bool

	pendingMasterCmd bool
	masterCmd        byte
	pendingSystemCmd bool
	systemCmd        byte
}

// NewPage builds a Page with DPP1's read-only fields populated from init.
// DPP2 (0x10-0x1F) starts out entirely reserved; vendors opt addresses in
// with SetVendorAddress.
func NewPage(init Init) *Page {
	p := &Page{}
	p.data[AddrMinCycleTime] = init.MinCycleTimeEncoded
	p.data[AddrMSeqCapability] = init.MSeqCapability
	p.data[AddrRevisionID] = init.RevisionID
	p.data[AddrProcessDataIn] = init.ProcessDataInLength
	p.data[AddrProcessDataOut] = init.ProcessDataOutLength
	p.data[AddrVendorID1] = init.VendorID[0]
	p.data[AddrVendorID2] = init.VendorID[1]
	p.data[AddrDeviceID1] = init.DeviceID[0]
	p.data[AddrDeviceID2] = init.DeviceID[1]
	p.data[AddrDeviceID3] = init.DeviceID[2]
	p.data[AddrFunctionID1] = init.FunctionID[0]
	p.data[AddrFunctionID2] = init.FunctionID[1]
	return p
}

func (p *Page) addressClass(addr byte) class {
	switch addr {
	case AddrMasterCommand, AddrSystemCommand:
		return classWO
	case AddrMasterCycleTime:
		return classRW
	case AddrReserved:
		return classReserved
	default:
		if addr >= 0x10 {
			if p.vendorPopul[addr] {
				return classRO
			}
			return classReserved
		}
		return classRO
	}
}

// Read returns length octets starting at addr, honoring access
// classification and the 0x1F inclusive upper bound (spec.md §4.9).
func (p *Page) Read(addr byte, length int) ([]byte, error) {
	if length < 0 || int(addr)+length > readBoundExclusive {
		return nil, ioerr.New("dpp.Read", ioerr.InvalidLength, nil)
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		a := addr + byte(i)
		switch p.addressClass(a) {
		case classWO:
			return nil, ioerr.New("dpp.Read", ioerr.ReadOnlyError, nil)
		case classReserved:
			return nil, ioerr.New("dpp.Read", ioerr.InvalidAddress, nil)
		}
		out[i] = p.data[a]
	}
	return out, nil
}

// Write stores data starting at addr, honoring access classification and
// the 0x0F inclusive upper bound for writes (spec.md §4.9). Writes to
// MasterCommand/SystemCommand are latched for PendingMasterCommand/
// PendingSystemCommand rather than stored back into the readable page, since
// both addresses are write-only.
func (p *Page) Write(addr byte, data []byte) error {
	if int(addr)+len(data) > writeBoundExclusive {
		return ioerr.New("dpp.Write", ioerr.InvalidLength, nil)
	}
	for i := range data {
		a := addr + byte(i)
		switch p.addressClass(a) {
		case classReserved, classRO:
			return ioerr.New("dpp.Write", ioerr.ReadOnlyError, nil)
		}
	}
	for i, b := range data {
		a := addr + byte(i)
		switch a {
		case AddrMasterCommand:
			p.masterCmd = b
			p.pendingMasterCmd = true
		case AddrSystemCommand:
			p.systemCmd = b
			p.pendingSystemCmd = true
		default:
			p.data[a] = b
		}
	}
	return nil
}

// PendingMasterCommand returns the last-written MasterCommand byte and
// clears the pending flag, or ok=false if none is pending.
func (p *Page) PendingMasterCommand() (cmd byte, ok bool) {
	if !p.pendingMasterCmd {
		return 0, false
	}
	p.pendingMasterCmd = false
	return p.masterCmd, true
}

// PendingSystemCommand returns the last-written SystemCommand byte and
// clears the pending flag, or ok=false if none is pending.
func (p *Page) PendingSystemCommand() (cmd byte, ok bool) {
	if !p.pendingSystemCmd {
		return 0, false
	}
	p.pendingSystemCmd = false
	return p.systemCmd, true
}

// MinCycleTime returns the raw encoded MinCycleTime octet (address 0x02).
func (p *Page) MinCycleTime() byte {
	return p.data[AddrMinCycleTime]
}

// SetVendorAddress opts a DPP2 address (0x10-0x1F) into the readable address
// space with a fixed value, for vendors mirroring a parameter-memory index
// into DPP2 (SPEC_FULL.md §3).
func (p *Page) SetVendorAddress(addr byte, value byte) error {
	if addr < 0x10 || addr > 0x1F {
		return ioerr.New("dpp.SetVendorAddress", ioerr.InvalidAddress, nil)
	}
	p.data[addr] = value
	p.vendorPopul[addr] = true
	return nil
}
