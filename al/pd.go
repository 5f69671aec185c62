// Package al implements the Application Layer's three sub-handlers
// (spec.md §4.6, §4.7, §4.4's AL half): PD push/pull, the Event
// trigger/confirm state machine, and parameter read/write glue over ISDU,
// plus the command listener that reports MasterIdent to the Mode Handler.
// Page-channel DPP access is served by dl/od, not here. One file per
// sub-handler, grounded on the same DL-side files they sit above.
package al

import "iolinke.dev/dl/pd"

// PDHandler is the AL PD Handler: it receives output PD from the Master via
// DL and lets the host application push input PD back down (spec.md §4.6).
type PDHandler struct {
	onOutput func(data []byte)
	cycles   int
}

// NewPDHandler builds a PDHandler. onOutput is invoked with each newly
// received output PD value; it may be nil if the host doesn't consume PD.
func NewPDHandler(onOutput func(data []byte)) *PDHandler {
	return &PDHandler{onOutput: onOutput}
}

var _ pd.Listener = (*PDHandler)(nil)

// AlNewOutputInd implements pd.Listener.
func (h *PDHandler) AlNewOutputInd(data []byte) {
	if h.onOutput != nil {
		h.onOutput(data)
	}
}

// AlPdCycleInd implements pd.Listener.
func (h *PDHandler) AlPdCycleInd() {
	h.cycles++
}

// Cycles returns the number of PD cycles observed, for cycle accounting
// (spec.md §4.6).
func (h *PDHandler) Cycles() int {
	return h.cycles
}
