package al

import (
	"iolinke.dev/dl/command"
	"iolinke.dev/dl/mode"
)

// CommandHandler is AL's command.Listener: it accepts MasterIdent on AL's
// behalf, unblocking the Mode Handler's Operate transition (spec.md §4.3,
// §4.8's "dispatching ... through DlControlInd to AL and to the Mode
// Handler").
type CommandHandler struct {
	mode *mode.Handler
}

// NewCommandHandler builds a CommandHandler reporting MasterIdent
// acceptance to mode.
func NewCommandHandler(mode *mode.Handler) *CommandHandler {
	return &CommandHandler{mode: mode}
}

var _ command.Listener = (*CommandHandler)(nil)

// DlControlInd implements command.Listener.
func (h *CommandHandler) DlControlInd(code command.DlControlCode) {
	if code == command.MasterIdent {
		h.mode.OnMasterIdentAccepted()
	}
}
