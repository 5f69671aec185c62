// Package event implements the DL side of the Event Handler (spec.md §4.7):
// queuing triggered events into event memory, driving the CKS Event flag,
// and serving Master read-out over the Diagnosis channel. Grounded on
// nfc/type4's read-only-during-transaction latch idiom, reusing it for
// event memory's read-out lock instead of a tag's NDEF file lock.
package event

import (
	"iolinke.dev/ioerr"
	"iolinke.dev/storage/eventmem"
)

// Listener receives DlEventTriggerConf once a triggered event has been
// latched into event memory (spec.md §4.7's AL state machine transition
// AwaitEventResponse -> Idle).
type Listener interface {
	DlEventTriggerConf()
}

// Handler is the DL Event Handler: the event memory queue plus the
// Diagnosis-channel read-out protocol.
type Handler struct {
	enabled  bool
	mem      *eventmem.Memory
	listener Listener
}

// NewHandler builds a Handler with a fresh event memory, notifying listener
// on trigger confirmation.
func NewHandler(listener Listener) *Handler {
	return &Handler{mem: eventmem.New(), listener: listener}
}

// SetEnabled implements sm.Capability. The Event Handler is active from
// PreOperate onward (spec.md Figure 47).
func (h *Handler) SetEnabled(enabled bool) {
	h.enabled = enabled
}

// DlEventTrigger enqueues e into event memory (AL_EventReq, spec.md §4.7). A
// full queue maps to ioerr.EventMemoryFull; a read-out in progress maps to
// ioerr.StateConflict. On success, DlEventTriggerConf fires immediately:
// event memory itself is the durable record, so there is nothing further
// for the Handler to wait on before confirming to AL.
func (h *Handler) DlEventTrigger(e eventmem.Entry) error {
	if !h.enabled {
		return ioerr.New("event.DlEventTrigger", ioerr.NotReady, nil)
	}
	if err := h.mem.Add(e); err != nil {
		return err
	}
	if h.listener != nil {
		h.listener.DlEventTriggerConf()
	}
	return nil
}

// EventFlagSet reports whether the CKS Event flag should be asserted on the
// next outbound frame (spec.md §4.7).
func (h *Handler) EventFlagSet() bool {
	return h.enabled && h.mem.HasPending()
}

// OnReadDiagnosis serves a Master read of the Diagnosis channel: it marks
// event memory read-only for the duration of the read-out and returns the
// packed entries (spec.md §4.7).
func (h *Handler) OnReadDiagnosis() ([]byte, error) {
	if !h.enabled {
		return nil, ioerr.New("event.OnReadDiagnosis", ioerr.NotReady, nil)
	}
	h.mem.BeginReadout()
	return h.mem.Pack(), nil
}

// OnReadoutComplete ends the read-out: event memory's read-only latch is
// cleared and its entries discarded (spec.md §4.7's "on read-completion,
// memory is cleared").
func (h *Handler) OnReadoutComplete() {
	h.mem.EndReadout()
}
