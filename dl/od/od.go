// Package od implements the OD Handler (spec.md §4.4): Page-channel direct
// parameter access through the Direct Parameter Page engine, dispatching
// MasterCommand/SystemCommand writes to the Command Handler. Grounded on
// nfc/type4.Tag.read/write's offset/length windowed file access, adapted to
// DPP addressing.
package od

import (
	"iolinke.dev/dl/command"
	"iolinke.dev/storage/dpp"
)

// Handler is the OD Handler for the Page channel.
type Handler struct {
	enabled bool
	page    *dpp.Page
	cmd     *command.Handler
}

// NewHandler builds a Handler backed by page, dispatching command writes
// through cmd.
func NewHandler(page *dpp.Page, cmd *command.Handler) *Handler {
	return &Handler{page: page, cmd: cmd}
}

// SetEnabled implements sm.Capability. The OD Handler is active from
// Startup onward (spec.md Figure 47).
func (h *Handler) SetEnabled(enabled bool) {
	h.enabled = enabled
}

// Read serves a Page-channel read request, validating address/length
// against the DPP access classification (spec.md §4.9).
func (h *Handler) Read(addr byte, length int) ([]byte, error) {
	return h.page.Read(addr, length)
}

// Write serves a Page-channel write request. A successful write to
// MasterCommand (0x00) or SystemCommand (0x0F) is immediately dispatched to
// the Command Handler, which fans DlControlInd out to the Mode Handler and
// AL (spec.md §4.8).
func (h *Handler) Write(addr byte, data []byte) error {
	if err := h.page.Write(addr, data); err != nil {
		return err
	}
	if cmd, ok := h.page.PendingMasterCommand(); ok {
		if err := h.cmd.HandleRaw(cmd); err != nil {
			return err
		}
	}
	if cmd, ok := h.page.PendingSystemCommand(); ok {
		if err := h.cmd.HandleRaw(cmd); err != nil {
			return err
		}
	}
	return nil
}
