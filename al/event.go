package al

import (
	"iolinke.dev/dl/event"
	"iolinke.dev/ioerr"
	"iolinke.dev/storage/eventmem"
)

// EventState is one of the AL Event Handler states (spec.md §4.7, Table 77).
type EventState int

const (
	EventInactive EventState = iota
	EventIdle
	AwaitEventResponse
)

func (s EventState) String() string {
	switch s {
	case EventInactive:
		return "EventInactive"
	case EventIdle:
		return "EventIdle"
	case AwaitEventResponse:
		return "AwaitEventResponse"
	default:
		return "Unknown"
	}
}

// EventHandler is the AL Event Handler: AlEventReq triggers a DL event and
// waits for DlEventTriggerConf before accepting another (spec.md §4.7).
type EventHandler struct {
	state EventState
	dl    *event.Handler
	onCnf func()
}

// NewEventHandler builds an EventHandler. onCnf, if non-nil, is invoked on
// every AL_EventCnf. Bind must be called once the owning event.Handler
// exists, since the two are mutually referential.
func NewEventHandler(onCnf func()) *EventHandler {
	return &EventHandler{state: EventInactive, onCnf: onCnf}
}

// Bind attaches the DL Event Handler this EventHandler triggers events
// through.
func (h *EventHandler) Bind(dl *event.Handler) {
	h.dl = dl
}

// Activate implements the Activate -> Idle transition (spec.md §4.7).
func (h *EventHandler) Activate() {
	if h.state == EventInactive {
		h.state = EventIdle
	}
}

// Deactivate implements the Deactivate -> Inactive transition from any
// state.
func (h *EventHandler) Deactivate() {
	h.state = EventInactive
}

// State returns the current AL Event Handler state.
func (h *EventHandler) State() EventState {
	return h.state
}

// AlEventReq triggers a new event. It is only accepted from EventIdle;
// otherwise it fails with StateConflict since a prior request hasn't been
// confirmed yet (spec.md §4.7).
func (h *EventHandler) AlEventReq(e eventmem.Entry) error {
	if h.state != EventIdle {
		return ioerr.New("al.AlEventReq", ioerr.StateConflict, nil)
	}
	// Set AwaitEventResponse before triggering: DlEventTrigger below may
	// call DlEventTriggerConf synchronously, which only accepts the
	// confirmation from this state.
	h.state = AwaitEventResponse
	if err := h.dl.DlEventTrigger(e); err != nil {
		h.state = EventIdle
		return err
	}
	return nil
}

// DlEventTriggerConf implements event.Listener: AwaitEventResponse -> Idle,
// emitting AL_EventCnf upward.
func (h *EventHandler) DlEventTriggerConf() {
	if h.state != AwaitEventResponse {
		return
	}
	h.state = EventIdle
	if h.onCnf != nil {
		h.onCnf()
	}
}

var _ event.Listener = (*EventHandler)(nil)
