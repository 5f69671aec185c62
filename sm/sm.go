// Package sm implements System Management (spec.md §4.3): it receives
// DlModeInd from the DL Mode Handler and fans out enable/disable capability
// signals to the OD/PD/ISDU/Event sub-handlers, per the teacher's pattern of
// a single orchestrator dispatching to several sub-state-machines
// (nfc/poller.Poller dispatching to type2/type4/type5 readers by detected
// protocol).
package sm

import "iolinke.dev/dl/mode"

// Capability is implemented by every DL sub-handler System Management can
// enable or disable as the device moves between modes.
type Capability interface {
	SetEnabled(enabled bool)
}

// Handler fans DlModeInd out to the registered sub-handler capabilities.
type Handler struct {
	OD    Capability
	PD    Capability
	ISDU  Capability
	Event Capability
}

// DlModeInd implements mode.Listener.
func (h *Handler) DlModeInd(m mode.Mode) {
	od, pd, isdu, event := enabledIn(m)
	h.setIfPresent(h.OD, od)
	h.setIfPresent(h.PD, pd)
	h.setIfPresent(h.ISDU, isdu)
	h.setIfPresent(h.Event, event)
}

func (h *Handler) setIfPresent(c Capability, enabled bool) {
	if c == nil {
		return
	}
	c.SetEnabled(enabled)
}

// enabledIn returns which sub-handlers are active in mode m, per
// spec.md Figures 47/52: Startup carries only OD/Command traffic;
// PreOperate adds ISDU and Event; Operate adds PD.
func enabledIn(m mode.Mode) (od, pd, isdu, event bool) {
	switch m {
	case mode.Startup:
		return true, false, false, false
	case mode.PreOperate:
		return true, false, true, true
	case mode.Operate:
		return true, true, true, true
	default: // Inactive, EstablishCom, ComLost
		return false, false, false, false
	}
}

var _ mode.Listener = (*Handler)(nil)
