// Package pd implements the DL-side PD Handler (spec.md §4.6): fixed-length
// input/output process data buffers, last-write-wins input, and the PD
// valid bit. Grounded on stepper.knotBuffer's fixed-capacity buffer pattern.
package pd

import "iolinke.dev/ioerr"

// Listener receives the AL-facing indications the DL PD Handler raises.
type Listener interface {
	// AlNewOutputInd delivers PD bytes received from the Master.
	AlNewOutputInd(data []byte)
	// AlPdCycleInd notifies AL that one PD cycle has elapsed, for cycle
	// accounting.
	AlPdCycleInd()
}

// Handler is the DL-side PD Handler. Input/output lengths are fixed at
// construction from compile-time configuration (PD_INPUT_LENGTH,
// PD_OUTPUT_LENGTH per spec.md §4.6).
type Handler struct {
	enabled bool

	inLen, outLen int
	in            []byte
	inValid       bool

	listener Listener
}

// NewHandler builds a Handler with the given fixed buffer lengths.
func NewHandler(inLen, outLen int, listener Listener) *Handler {
	return &Handler{
		inLen:    inLen,
		outLen:   outLen,
		in:       make([]byte, inLen),
		listener: listener,
	}
}

// SetEnabled implements sm.Capability.
func (h *Handler) SetEnabled(enabled bool) {
	h.enabled = enabled
	if !enabled {
		h.inValid = false
	}
}

// AlSetInputReq buffers the latest AL input PD value (last-write-wins,
// spec.md §4.6).
func (h *Handler) AlSetInputReq(data []byte) error {
	if len(data) != h.inLen {
		return ioerr.New("pd.AlSetInputReq", ioerr.InvalidLength, nil)
	}
	copy(h.in, data)
	h.inValid = true
	return nil
}

// SetInputInvalid lets AL explicitly mark the input PD invalid.
func (h *Handler) SetInputInvalid() {
	h.inValid = false
}

// PdCycleInd is invoked once per M-sequence cycle. It returns the buffered
// input PD bytes and whether they are currently valid, and notifies AL of
// the cycle boundary.
func (h *Handler) PdCycleInd() (data []byte, valid bool) {
	if h.listener != nil {
		h.listener.AlPdCycleInd()
	}
	if !h.enabled {
		return make([]byte, h.inLen), false
	}
	out := make([]byte, h.inLen)
	copy(out, h.in)
	return out, h.inValid
}

// OnReceivePD is called by the Message Handler with the PD bytes extracted
// from a received frame (spec.md §4.6's output path).
func (h *Handler) OnReceivePD(data []byte) error {
	if len(data) != h.outLen {
		return ioerr.New("pd.OnReceivePD", ioerr.InvalidLength, nil)
	}
	if !h.enabled {
		return ioerr.New("pd.OnReceivePD", ioerr.NotReady, nil)
	}
	if h.listener != nil {
		h.listener.AlNewOutputInd(data)
	}
	return nil
}

// InputLength and OutputLength report the configured buffer sizes.
func (h *Handler) InputLength() int  { return h.inLen }
func (h *Handler) OutputLength() int { return h.outLen }
