// Package config holds the build-time configuration of an IO-Link device
// core: OD/PD lengths, cycle timing, and the vendor identification block.
// Values are literal-initialized by the integrating application (ingestion
// from a config file is an external collaborator per spec.md §1) and
// validated once, fail-fast, by New.
package config

import "fmt"

// PDLengthUnit selects whether a process data length is expressed in bits
// or whole octets, per spec.md §6.3.
type PDLengthUnit int

const (
	Bit PDLengthUnit = iota
	Octet
)

// PDLength is a process data length in either unit.
type PDLength struct {
	Unit PDLengthUnit
	N    int
}

// Bytes returns the number of octets PDLength occupies on the wire.
func (l PDLength) Bytes() int {
	switch l.Unit {
	case Bit:
		return (l.N + 7) / 8
	default:
		return l.N
	}
}

func (l PDLength) validate(op string) error {
	switch l.Unit {
	case Bit:
		if l.N < 0 || l.N > 16 {
			return fmt.Errorf("config: %s: bit length %d out of range [0,16]", op, l.N)
		}
	case Octet:
		if l.N < 0 || l.N > 32 {
			return fmt.Errorf("config: %s: octet length %d out of range [0,32]", op, l.N)
		}
	default:
		return fmt.Errorf("config: %s: unknown length unit", op)
	}
	return nil
}

// StartupPhase carries the OD length applicable while the device is not
// yet in Operate.
type StartupPhase struct {
	ODLength int // one of {1, 2, 8, 32}
}

func (p StartupPhase) validate(op string) error {
	switch p.ODLength {
	case 1, 2, 8, 32:
		return nil
	default:
		return fmt.Errorf("config: %s: od_length %d not one of {1,2,8,32}", op, p.ODLength)
	}
}

// OperatePhase carries the OD and PD lengths used once Operate is reached.
type OperatePhase struct {
	ODLength    int
	PDInLength  PDLength
	PDOutLength PDLength
}

func (p OperatePhase) validate() error {
	switch p.ODLength {
	case 1, 2, 8, 32:
	default:
		return fmt.Errorf("config: operate: od_length %d not one of {1,2,8,32}", p.ODLength)
	}
	if err := p.PDInLength.validate("operate.pd_in_length"); err != nil {
		return err
	}
	if err := p.PDOutLength.validate("operate.pd_out_length"); err != nil {
		return err
	}
	return nil
}

// Timing carries cycle-time configuration.
type Timing struct {
	MinCycleTimeMs float64
}

// Vendor carries the device identification block written into DPP1 and
// readable back through ISDU (index 0x10 VendorName, 0x12 ProductName per
// original_source's DataStorage layout).
type Vendor struct {
	MajorRev    byte
	MinorRev    byte
	VendorID    [2]byte
	DeviceID    [3]byte
	FunctionID  [2]byte
	VendorName  string
	ProductName string
}

// Config is the complete build-time configuration of one device instance.
type Config struct {
	PreOperate StartupPhase
	Operate    OperatePhase
	Timing     Timing
	Vendor     Vendor

	// Warn receives non-fatal configuration advisories (spec.md §9 Open
	// Question (b): PREOPERATE OD length of 1 is discouraged but accepted).
	// Nil is safe and discards advisories.
	Warn func(format string, args ...any)
}

// New validates cfg and returns it, or a descriptive error if an OD/PD
// length is out of its valid range or a vendor name is empty.
// Timing.MinCycleTimeMs is not checked here; device.New rejects an
// out-of-range value when it encodes it. This mirrors the teacher's fail-fast validation in
// driver/tmc2209.Device.Configure (rejecting a zero Sense before arming the
// motor) rather than deferring validation to first use.
func New(cfg Config) (*Config, error) {
	if err := cfg.PreOperate.validate("pre_operate"); err != nil {
		return nil, err
	}
	if err := cfg.Operate.validate(); err != nil {
		return nil, err
	}
	if cfg.Vendor.VendorName == "" {
		return nil, fmt.Errorf("config: vendor: vendor_name must not be empty")
	}
	if cfg.Vendor.ProductName == "" {
		return nil, fmt.Errorf("config: vendor: product_name must not be empty")
	}
	c := cfg
	if cfg.PreOperate.ODLength == 1 {
		warn(c.Warn, "config: pre_operate.od_length = 1 (TYPE_0) is discouraged by the IO-Link specification")
	}
	return &c, nil
}

func warn(fn func(string, ...any), format string, args ...any) {
	if fn == nil {
		return
	}
	fn(format, args...)
}
