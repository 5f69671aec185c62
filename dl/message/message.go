// Package message implements the Message Handler (spec.md §4.2): byte-level
// framing over PhysicalLayer, M-sequence selection, CKS verification, and
// dispatch to the channel handlers. Grounded on driver/tmc2209's UART
// half-duplex accumulate-then-decode receive loop, adapted from a fixed
// register-read reply to spec.md's per-mode variable frame shape.
package message

import (
	"time"

	"iolinke.dev/dl/mode"
	"iolinke.dev/dl/mseq"
	"iolinke.dev/pl"
)

// defaultFrameTimeout bounds how long the handler waits for a frame to
// complete once its first byte arrives (spec.md §4.2's MaxUARTFrameTime).
const defaultFrameTimeout = 2 * time.Millisecond

// PageChannel serves Page-channel direct parameter reads/writes.
type PageChannel interface {
	Read(addr byte, length int) ([]byte, error)
	Write(addr byte, data []byte) error
}

// ProcessChannel serves the Process-data channel.
type ProcessChannel interface {
	OnReceivePD(data []byte) error
	PdCycleInd() (data []byte, valid bool)
}

// DiagnosisChannel serves event read-out over the Diagnosis channel.
type DiagnosisChannel interface {
	OnReadDiagnosis() ([]byte, error)
	OnReadoutComplete()
	EventFlagSet() bool
}

// ISDUChannel serves the ISDU channel's segmented request/response traffic.
type ISDUChannel interface {
	OnReceiveOD(chunk []byte) error
	NextOD() ([]byte, bool)
}

// ModeSignal receives the upward MHInfo/MaxCycleTime signals the Mode
// Handler reacts to.
type ModeSignal interface {
	OnMHInfo(info mode.MHInfo)
	OnMaxCycleTimeExpired()
}

// Handler is the Message Handler: byte framing plus channel dispatch.
type Handler struct {
	pl         pl.PhysicalLayer
	modeSignal ModeSignal
	page       PageChannel
	process    ProcessChannel
	diag       DiagnosisChannel
	isdu       ISDUChannel

	mseqType    mseq.Type
	lengths     mseq.Lengths
	frameTimeout time.Duration
	maxCycleTime time.Duration

	rxBuf      []byte
	frameArmed bool
}

// NewHandler builds a Handler. maxCycleTime is the currently configured
// MaxCycleTime duration (spec.md §4.3); it is re-armed after every
// successfully dispatched frame.
func NewHandler(phys pl.PhysicalLayer, modeSignal ModeSignal, page PageChannel, process ProcessChannel, diag DiagnosisChannel, isdu ISDUChannel, maxCycleTime time.Duration) *Handler {
	return &Handler{
		pl:           phys,
		modeSignal:   modeSignal,
		page:         page,
		process:      process,
		diag:         diag,
		isdu:         isdu,
		frameTimeout: defaultFrameTimeout,
		maxCycleTime: maxCycleTime,
	}
}

// SetFrameShape reconfigures the M-sequence type and OD/PD lengths the
// receive path expects, following a mode or configuration change (spec.md
// §4.2's "M-sequence selection").
func (h *Handler) SetFrameShape(t mseq.Type, lengths mseq.Lengths) {
	h.mseqType = t
	h.lengths = lengths
	h.rxBuf = nil
	h.frameArmed = false
	h.pl.DisarmTimer(pl.TimerMaxUARTFrameTime)
}

func (h *Handler) frameLen() int {
	return 2 + h.lengths.OD + h.lengths.PD + 1
}

// Poll advances the Message Handler by one cooperative scheduling step: it
// ingests newly received bytes, completes and dispatches a frame once one
// has fully arrived, and transmits the resulting response (spec.md §5's
// two-phase ingress).
func (h *Handler) Poll() error {
	buf, err := h.pl.PollReceived()
	if err != nil {
		return err
	}
	if len(buf) > 0 {
		if !h.frameArmed {
			if err := h.pl.ArmTimer(pl.TimerMaxUARTFrameTime, h.frameTimeout); err != nil {
				return err
			}
			h.frameArmed = true
		}
		h.rxBuf = append(h.rxBuf, buf...)
	}

	want := h.frameLen()
	if h.frameArmed && len(h.rxBuf) < want {
		elapsed, err := h.pl.TimerElapsed(pl.TimerMaxUARTFrameTime)
		if err != nil {
			return err
		}
		if elapsed {
			h.rxBuf = nil
			h.frameArmed = false
			h.pl.DisarmTimer(pl.TimerMaxUARTFrameTime)
			h.modeSignal.OnMHInfo(mode.MHInfoIllegalMessagetype)
		}
		return nil
	}
	if len(h.rxBuf) < want {
		return nil
	}

	frameBytes := h.rxBuf[:want]
	h.rxBuf = h.rxBuf[want:]
	if len(h.rxBuf) == 0 {
		h.frameArmed = false
		h.pl.DisarmTimer(pl.TimerMaxUARTFrameTime)
	}

	frame, err := mseq.Parse(frameBytes, h.lengths)
	if err != nil {
		h.modeSignal.OnMHInfo(mode.MHInfoChecksumMismatch)
		return nil
	}

	if err := h.pl.ArmTimer(pl.TimerMaxCycleTime, h.maxCycleTime); err != nil {
		return err
	}

	resp := h.dispatch(frame)
	return h.pl.Transmit(mseq.Build(resp))
}

// CheckCycleTimeout checks whether MaxCycleTime has expired without a new
// Master frame arriving, signaling the Mode Handler if so (spec.md §4.3).
func (h *Handler) CheckCycleTimeout() error {
	elapsed, err := h.pl.TimerElapsed(pl.TimerMaxCycleTime)
	if err != nil {
		return err
	}
	if elapsed {
		h.modeSignal.OnMaxCycleTimeExpired()
	}
	return nil
}

// dispatch routes a decoded frame to its channel handler and assembles the
// response frame, including the Event flag (spec.md §4.4-4.7).
func (h *Handler) dispatch(frame mseq.Frame) mseq.Frame {
	resp := mseq.Frame{Type: frame.Type, MC: frame.MC, AddrCtrl: frame.AddrCtrl}
	// Every response keeps the request's OD/PD width, win or lose: the
	// M-sequence is symmetric, so a write ack or a failed read still has
	// to fill the octets the Master expects on the wire.
	resp.OD = make([]byte, h.lengths.OD)
	resp.PD = make([]byte, h.lengths.PD)

	switch frame.MC.Channel {
	case mseq.ChannelProcess:
		if len(frame.PD) > 0 {
			h.process.OnReceivePD(frame.PD)
		}
		data, valid := h.process.PdCycleInd()
		copy(resp.PD, data)
		resp.PDValid = valid

	case mseq.ChannelPage:
		if frame.MC.Direction == mseq.DirectionWrite {
			// A Page write carries one parameter octet in the first OD
			// octet; the rest of the OD width is fill.
			if len(frame.OD) > 0 {
				h.page.Write(frame.MC.Address, frame.OD[:1])
			}
		} else if data, err := h.page.Read(frame.MC.Address, len(frame.OD)); err == nil {
			copy(resp.OD, data)
		}

	case mseq.ChannelDiagnosis:
		if data, err := h.diag.OnReadDiagnosis(); err == nil {
			copy(resp.OD, data)
			h.diag.OnReadoutComplete()
		}

	case mseq.ChannelISDU:
		if len(frame.OD) > 0 {
			h.isdu.OnReceiveOD(frame.OD)
		}
		if data, ok := h.isdu.NextOD(); ok {
			copy(resp.OD, data)
		}
	}

	resp.Event = h.diag.EventFlagSet()
	return resp
}
