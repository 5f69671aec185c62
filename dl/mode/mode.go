// Package mode implements the DL Mode Handler (spec.md §4.3): the
// Inactive/EstablishCom/Startup/PreOperate/Operate/ComLost state machine
// driving the rest of the Data Link layer. Grounded on nfc/type4.Tag's
// protoState enum-plus-transition pattern and stepper.Driver.Run's
// mode-dispatch idiom.
package mode

import (
	"iolinke.dev/dl/command"
	"iolinke.dev/pl"
)

// Mode is one of the six DL Mode Handler states (spec.md §4.3).
type Mode int

const (
	Inactive Mode = iota
	EstablishCom
	Startup
	PreOperate
	Operate
	ComLost
)

func (m Mode) String() string {
	switch m {
	case Inactive:
		return "Inactive"
	case EstablishCom:
		return "EstablishCom"
	case Startup:
		return "Startup"
	case PreOperate:
		return "PreOperate"
	case Operate:
		return "Operate"
	case ComLost:
		return "ComLost"
	default:
		return "Unknown"
	}
}

// Listener receives DlModeInd(new_mode) fan-out, per spec.md §4.3. System
// Management implements Listener and further fans out capability signals to
// the OD/PD/ISDU/Event sub-handlers.
type Listener interface {
	DlModeInd(m Mode)
}

// Handler is the DL Mode Handler state machine.
type Handler struct {
	current Mode
	// masterIdentAccepted tracks whether AL has accepted a MasterIdent
	// service before allowing Operate (spec.md §4.3's "after MasterIdent
	// accepted").
	masterIdentAccepted bool

	listeners []Listener
}

// NewHandler builds a Handler starting in Inactive (spec.md §3 Lifecycle).
func NewHandler(listeners ...Listener) *Handler {
	return &Handler{current: Inactive, listeners: listeners}
}

// Current returns the active mode.
func (h *Handler) Current() Mode {
	return h.current
}

func (h *Handler) transition(to Mode) {
	if h.current == to {
		return
	}
	h.current = to
	for _, l := range h.listeners {
		l.DlModeInd(to)
	}
}

// OnWakeUp handles PL_WakeUpInd: Inactive -> EstablishCom.
func (h *Handler) OnWakeUp() {
	if h.current == Inactive {
		h.transition(EstablishCom)
	}
}

// OnBaudDetected handles a Master baud rate detection following a valid
// first MasterCommand frame: EstablishCom -> Startup.
func (h *Handler) OnBaudDetected(rate pl.Mode) {
	if h.current == EstablishCom {
		h.transition(Startup)
	}
}

// OnMasterIdentAccepted records that AL has accepted a MasterIdent service,
// a precondition for entering Operate (spec.md §4.3).
func (h *Handler) OnMasterIdentAccepted() {
	h.masterIdentAccepted = true
}

// DlControlInd implements command.Listener: MasterCommand/SystemCommand
// writes drive Startup->PreOperate->Operate and Operate->PreOperate.
func (h *Handler) DlControlInd(code command.DlControlCode) {
	switch code {
	case command.DevicePreOperate:
		if h.current == Startup || h.current == Operate {
			h.transition(PreOperate)
		}
	case command.DeviceOperate:
		if h.current == PreOperate && h.masterIdentAccepted {
			h.transition(Operate)
		}
	case command.Fallback:
		if h.current != Inactive {
			h.transition(ComLost)
		}
	}
}

// MHInfo is the upward signal from the Message Handler (spec.md §4.2).
type MHInfo int

const (
	MHInfoNone MHInfo = iota
	MHInfoChecksumMismatch
	MHInfoCOMlost
	MHInfoIllegalMessagetype
)

// OnMHInfo handles Message Handler signals. ChecksumMismatch and
// IllegalMessagetype are recovered locally (no mode transition, spec.md
// §7); COMlost forces a transition to ComLost from any active mode.
func (h *Handler) OnMHInfo(info MHInfo) {
	switch info {
	case MHInfoCOMlost:
		if h.current != Inactive && h.current != ComLost {
			h.transition(ComLost)
		}
	}
}

// OnMaxCycleTimeExpired handles the MaxCycleTime timer expiring with no
// Master frame received: any active mode -> ComLost.
func (h *Handler) OnMaxCycleTimeExpired() {
	if h.current != Inactive && h.current != ComLost {
		h.transition(ComLost)
	}
}

// OnTdsioExpired handles the Tdsio timer expiring while ComLost:
// ComLost -> Inactive.
func (h *Handler) OnTdsioExpired() {
	if h.current == ComLost {
		h.masterIdentAccepted = false
		h.transition(Inactive)
	}
}
