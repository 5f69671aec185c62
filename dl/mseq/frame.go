// Package mseq implements the M-sequence frame codec (spec.md §3, §4.2):
// the MC/CKT/OD/PD/CKS octet layout, the 6-bit checksum, and M-sequence type
// selection. It has no dependency on any other package in this module —
// the teacher corpus has no library for this exact wire format, so it is
// implemented directly against the standard library (see DESIGN.md).
package mseq

import "fmt"

// Channel is the 2-bit communication channel selector carried in MC.
type Channel byte

const (
	ChannelProcess Channel = iota
	ChannelPage
	ChannelDiagnosis
	ChannelISDU
)

func (c Channel) String() string {
	switch c {
	case ChannelProcess:
		return "Process"
	case ChannelPage:
		return "Page"
	case ChannelDiagnosis:
		return "Diagnosis"
	case ChannelISDU:
		return "ISDU"
	default:
		return "Unknown"
	}
}

// Direction is the R/W bit of MC: whether the Master is reading from or
// writing to the addressed channel.
type Direction byte

const (
	DirectionRead Direction = iota
	DirectionWrite
)

// MC is the decoded Master Command octet: direction, channel, 5-bit address.
type MC struct {
	Direction Direction
	Channel   Channel
	Address   byte // 0..31
}

// Encode packs an MC into its wire octet.
func (mc MC) Encode() byte {
	b := byte(mc.Direction) << 7
	b |= byte(mc.Channel&0b11) << 5
	b |= mc.Address & 0b0001_1111
	return b
}

// DecodeMC unpacks a wire octet into an MC.
func DecodeMC(b byte) MC {
	return MC{
		Direction: Direction(b >> 7 & 0b1),
		Channel:   Channel(b >> 5 & 0b11),
		Address:   b & 0b0001_1111,
	}
}

// Type is the M-sequence type selector, spec.md §3 / Tables A.8, A.10.
type Type int

const (
	Type0 Type = iota
	Type1_1
	Type1_2
	Type1V
	Type2_1
	Type2_2
	Type2_3
	Type2_4
	Type2_5
	Type2V
)

func (t Type) String() string {
	switch t {
	case Type0:
		return "TYPE_0"
	case Type1_1:
		return "TYPE_1_1"
	case Type1_2:
		return "TYPE_1_2"
	case Type1V:
		return "TYPE_1_V"
	case Type2_1:
		return "TYPE_2_1"
	case Type2_2:
		return "TYPE_2_2"
	case Type2_3:
		return "TYPE_2_3"
	case Type2_4:
		return "TYPE_2_4"
	case Type2_5:
		return "TYPE_2_5"
	case Type2V:
		return "TYPE_2_V"
	default:
		return "UNKNOWN"
	}
}

// typeCategory is the 2-bit TYPE field occupying CKT bits 6-7.
func (t Type) typeCategory() byte {
	switch t {
	case Type0:
		return 0
	case Type1_1, Type1_2, Type1V:
		return 1
	default:
		return 2
	}
}

// Lengths describes the fixed OD/PD octet counts a Type implies. A variable
// (*_V) type's actual lengths are not carried in the frame; the Message
// Handler is configured with them through SetFrameShape.
type Lengths struct {
	OD int
	PD int
}

// LengthsFor returns the (OD, PD) octet counts for t, given the variable
// length odLen/pdLen to use when t is one of the *_V types.
func LengthsFor(t Type, odLen, pdLen int) Lengths {
	switch t {
	case Type0:
		return Lengths{OD: 1, PD: 0}
	case Type1_1:
		return Lengths{OD: 1, PD: 2}
	case Type1_2:
		return Lengths{OD: 2, PD: 2}
	case Type1V:
		return Lengths{OD: odLen, PD: pdLen}
	case Type2_1:
		return Lengths{OD: 0, PD: 2}
	case Type2_2:
		return Lengths{OD: 0, PD: 8}
	case Type2_3:
		return Lengths{OD: 0, PD: 32}
	case Type2_4:
		return Lengths{OD: 0, PD: 1}
	case Type2_5:
		return Lengths{OD: 0, PD: 4}
	case Type2V:
		return Lengths{OD: 0, PD: pdLen}
	default:
		return Lengths{}
	}
}

// EncodeCKT packs a Type and 6-bit address-control field into the wire CKT
// octet.
func EncodeCKT(t Type, addrCtrl byte) byte {
	return t.typeCategory()<<6 | addrCtrl&0b0011_1111
}

// DecodeCKT splits a CKT octet into its type category and address-control
// field. Because TYPE_0/1/2 alone don't disambiguate every sub-variant
// (e.g. TYPE_1_1 vs TYPE_1_2), the caller resolves the exact Type from the
// currently configured mode/channel/OD-PD lengths per spec.md §4.2, passing
// it to LengthsFor; DecodeCKT only recovers what is actually on the wire.
func DecodeCKT(b byte) (category byte, addrCtrl byte) {
	return b >> 6 & 0b11, b & 0b0011_1111
}

// checksumSeed is CKS's initial low-6-bit value before folding in the frame
// octets, per spec.md §3.
const checksumSeed = 0x52 & 0b0011_1111

// Checksum computes the 6-bit XOR-fold checksum over frameBytes (every octet
// of the frame except CKS itself).
func Checksum(frameBytes []byte) byte {
	cks := byte(checksumSeed)
	for _, b := range frameBytes {
		cks ^= b
		// Fold the high two bits into the low six, since CKS only has
		// six checksum bits to work with.
		cks = (cks ^ (cks >> 6)) & 0b0011_1111
	}
	return cks & 0b0011_1111
}

// CKS is the decoded status/checksum octet.
type CKS struct {
	Event   bool
	PDValid bool
	Check   byte // low 6 bits
}

// Encode packs a CKS into its wire octet, given the already-computed check
// value.
func (c CKS) Encode() byte {
	b := c.Check & 0b0011_1111
	if c.Event {
		b |= 0b1 << 7
	}
	if c.PDValid {
		b |= 0b1 << 6
	}
	return b
}

// DecodeCKS unpacks a wire octet into a CKS.
func DecodeCKS(b byte) CKS {
	return CKS{
		Event:   b&(0b1<<7) != 0,
		PDValid: b&(0b1<<6) != 0,
		Check:   b & 0b0011_1111,
	}
}

// Frame is a fully decoded M-sequence frame.
type Frame struct {
	Type     Type
	MC       MC
	AddrCtrl byte
	OD       []byte
	PD       []byte
	Event    bool
	PDValid  bool
}

// Build assembles the wire octets for f, computing CKS over the preceding
// bytes.
func Build(f Frame) []byte {
	out := make([]byte, 0, 2+len(f.OD)+len(f.PD)+1)
	out = append(out, f.MC.Encode())
	out = append(out, EncodeCKT(f.Type, f.AddrCtrl))
	out = append(out, f.OD...)
	out = append(out, f.PD...)
	check := Checksum(out)
	cks := CKS{Event: f.Event, PDValid: f.PDValid, Check: check}
	out = append(out, cks.Encode())
	return out
}

// Parse decodes raw into a Frame, given the (OD, PD) lengths the caller has
// deduced from the current mode/channel per spec.md §4.2. Parse verifies CKS
// before returning any decoded content, per invariant 4 (spec.md §3).
func Parse(raw []byte, lengths Lengths) (Frame, error) {
	want := 2 + lengths.OD + lengths.PD + 1
	if len(raw) != want {
		return Frame{}, fmt.Errorf("mseq: parse: frame length %d, want %d", len(raw), want)
	}
	body, cksByte := raw[:len(raw)-1], raw[len(raw)-1]
	if got := Checksum(body); got != cksByte&0b0011_1111 {
		return Frame{}, fmt.Errorf("mseq: parse: invalid checksum (got %#x want %#x)", cksByte&0b0011_1111, got)
	}
	mc := DecodeMC(raw[0])
	category, addrCtrl := DecodeCKT(raw[1])
	cks := DecodeCKS(cksByte)
	od := append([]byte(nil), raw[2:2+lengths.OD]...)
	pd := append([]byte(nil), raw[2+lengths.OD:2+lengths.OD+lengths.PD]...)
	return Frame{
		Type:     categoryToType(category, lengths),
		MC:       mc,
		AddrCtrl: addrCtrl,
		OD:       od,
		PD:       pd,
		Event:    cks.Event,
		PDValid:  cks.PDValid,
	}, nil
}

// categoryToType resolves the 2-bit wire category back to the specific Type
// whose Lengths match, defaulting to the *_V variant of the category when no
// fixed-length Type matches (spec.md §4.2).
func categoryToType(category byte, lengths Lengths) Type {
	candidates := map[byte][]Type{
		0: {Type0},
		1: {Type1_1, Type1_2, Type1V},
		2: {Type2_1, Type2_2, Type2_3, Type2_4, Type2_5, Type2V},
	}
	for _, t := range candidates[category] {
		l := LengthsFor(t, lengths.OD, lengths.PD)
		if l.OD == lengths.OD && l.PD == lengths.PD {
			return t
		}
	}
	switch category {
	case 0:
		return Type0
	case 1:
		return Type1V
	default:
		return Type2V
	}
}
