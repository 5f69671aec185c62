// Package device implements the aggregate root (spec.md §2): it wires every
// DL/AL/System-Management handler into one Device and exposes the single
// Poll entry point the host calls on its cooperative-scheduling cadence
// (spec.md §5). Grounded on the teacher's stepper.Driver, which owns every
// sub-state-machine a motor driver needs and exposes one Run per tick; here
// the sub-machines are the IO-Link handlers instead of motion-control ones.
package device

import (
	"time"

	"iolinke.dev/al"
	"iolinke.dev/config"
	"iolinke.dev/dl/command"
	"iolinke.dev/dl/event"
	"iolinke.dev/dl/isdu"
	"iolinke.dev/dl/message"
	"iolinke.dev/dl/mode"
	"iolinke.dev/dl/mseq"
	"iolinke.dev/dl/od"
	"iolinke.dev/dl/pd"
	"iolinke.dev/pl"
	"iolinke.dev/sm"
	"iolinke.dev/storage/dpp"
	"iolinke.dev/storage/eventmem"
	"iolinke.dev/storage/isdumem"
	"iolinke.dev/storage/parammem"
)

// Parameter memory indices for the compile-time vendor identification block
// (config.Vendor), per original_source's DataStorage layout.
const (
	vendorNameIndex  uint16 = 0x10
	productNameIndex uint16 = 0x12
)

// DataStorage index (sub-index 0) and maximum length of the vendor's
// IndexList payload
// (spec.md §8 scenario 4, SPEC_FULL.md §3). IO-Link reserves this index for
// DataStorage; it is not vendor-assignable.
const (
	dataStorageIndex    uint16 = 0x17
	dataStorageMaxBytes        = 32
)

// tdsioDuration is the fixed fallback dwell time the Device waits in
// ComLost before returning to Inactive (spec.md §4.3's Tdsio timer). The
// IO-Link specification leaves the exact value to the device vendor; this
// implementation fixes it rather than exposing another config knob.
const tdsioDuration = 500 * time.Millisecond

// cycleTimeoutFactor derives MaxCycleTime from the configured MinCycleTime
// (spec.md §9's "Config bound"): a Master is expected to poll faster than
// MinCycleTime, so a multiple of it is a safe margin before declaring
// COMlost. The specification does not fix the multiple; a real device would
// instead learn MaxCycleTime from the Master's MasterCycleTime write to DPP
// address 0x01 (spec.md §3) — not modeled here, so the derived value never
// changes after startup.
const cycleTimeoutFactor = 4

// Device is the IO-Link device core: every handler from spec.md §4 wired
// together behind one Poll entry point.
type Device struct {
	cfg *config.Config
	pl  pl.PhysicalLayer
	log func(format string, args ...any)

	page     *dpp.Page
	paramMem *parammem.Memory
	isduMem  *isdumem.Memory

	mode    *mode.Handler
	command *command.Handler
	sm      *sm.Handler

	od      *od.Handler
	pdH     *pd.Handler
	eventH  *event.Handler
	isduH   *isdu.Handler
	message *message.Handler

	alPD      *al.PDHandler
	alEvent   *al.EventHandler
	alOD      *al.ODHandler
	alCommand *al.CommandHandler
}

// New builds a fully wired Device. phys is the host's PhysicalLayer
// capability; onOutputPD is invoked with each Master-written output PD
// value (may be nil); onEventConfirmed is invoked once a triggered event
// has been latched into event memory (may be nil); log is a nil-safe
// diagnostic sink (spec.md §1's logging boundary — the core never logs on
// its own initiative, only through this hook).
func New(cfg *config.Config, phys pl.PhysicalLayer, onOutputPD func(data []byte), onEventConfirmed func(), log func(format string, args ...any)) (*Device, error) {
	if log == nil {
		log = func(string, ...any) {}
	}

	minCycleEncoded, err := dpp.EncodeCycleTime(cfg.Timing.MinCycleTimeMs)
	if err != nil {
		return nil, err
	}
	page := dpp.NewPage(dpp.Init{
		MinCycleTimeEncoded:  minCycleEncoded,
		MSeqCapability:       byte(cfg.Operate.ODLength),
		RevisionID:           cfg.Vendor.MajorRev<<4 | cfg.Vendor.MinorRev&0x0F,
		ProcessDataInLength:  byte(cfg.Operate.PDInLength.Bytes()),
		ProcessDataOutLength: byte(cfg.Operate.PDOutLength.Bytes()),
		VendorID:             cfg.Vendor.VendorID,
		DeviceID:             cfg.Vendor.DeviceID,
		FunctionID:           cfg.Vendor.FunctionID,
	})

	paramMem := parammem.New()
	if err := paramMem.Define(vendorNameIndex, []byte(cfg.Vendor.VendorName), true, false); err != nil {
		return nil, err
	}
	if err := paramMem.Define(productNameIndex, []byte(cfg.Vendor.ProductName), true, false); err != nil {
		return nil, err
	}

	isduMem := isdumem.New()
	if err := isduMem.Register(isdumem.NonVolatile, isdumem.Key{Index: dataStorageIndex}, dataStorageMaxBytes, false, nil); err != nil {
		return nil, err
	}

	d := &Device{cfg: cfg, pl: phys, log: log, page: page, paramMem: paramMem, isduMem: isduMem}

	smHandler := &sm.Handler{}
	modeHandler := mode.NewHandler(smHandler, d)
	alCommand := al.NewCommandHandler(modeHandler)
	commandHandler := command.NewHandler(modeHandler, alCommand)

	odHandler := od.NewHandler(page, commandHandler)

	alPD := al.NewPDHandler(onOutputPD)
	pdHandler := pd.NewHandler(cfg.Operate.PDInLength.Bytes(), cfg.Operate.PDOutLength.Bytes(), alPD)

	alEvent := al.NewEventHandler(onEventConfirmed)
	eventHandler := event.NewHandler(alEvent)
	alEvent.Bind(eventHandler)

	alOD := al.NewODHandler(paramMem, isduMem)
	isduHandler := isdu.NewHandler(alOD, cfg.PreOperate.ODLength)
	alOD.Bind(isduHandler)

	smHandler.OD = odHandler
	smHandler.PD = pdHandler
	smHandler.ISDU = isduHandler
	smHandler.Event = eventHandler

	maxCycleTime := time.Duration(cfg.Timing.MinCycleTimeMs*cycleTimeoutFactor*float64(time.Millisecond))
	messageHandler := message.NewHandler(phys, modeHandler, odHandler, pdHandler, eventHandler, isduHandler, maxCycleTime)
	messageHandler.SetFrameShape(mseq.Type0, mseq.Lengths{OD: 1, PD: 0})

	d.mode = modeHandler
	d.command = commandHandler
	d.sm = smHandler
	d.od = odHandler
	d.pdH = pdHandler
	d.eventH = eventHandler
	d.isduH = isduHandler
	d.message = messageHandler
	d.alPD = alPD
	d.alEvent = alEvent
	d.alOD = alOD
	d.alCommand = alCommand

	return d, nil
}

var _ mode.Listener = (*Device)(nil)

// DlModeInd implements mode.Listener: it reconfigures the Message Handler's
// expected frame shape and the ISDU Handler's segmentation width for the
// newly entered mode (spec.md §4.2's "M-sequence selection" following a
// mode change), arms Tdsio on entering ComLost, and activates/deactivates
// the AL Event Handler in step with the DL Event Handler's own enable
// window (spec.md Figure 47).
func (d *Device) DlModeInd(m mode.Mode) {
	d.log("device: mode -> %s", m)

	switch m {
	case mode.Startup, mode.PreOperate:
		d.message.SetFrameShape(mseq.Type1V, mseq.Lengths{OD: d.cfg.PreOperate.ODLength, PD: 0})
		d.isduH.SetChunkSize(d.cfg.PreOperate.ODLength)
	case mode.Operate:
		pdLen := maxInt(d.cfg.Operate.PDInLength.Bytes(), d.cfg.Operate.PDOutLength.Bytes())
		d.message.SetFrameShape(mseq.Type1V, mseq.Lengths{OD: d.cfg.Operate.ODLength, PD: pdLen})
		d.isduH.SetChunkSize(d.cfg.Operate.ODLength)
	default: // Inactive, EstablishCom, ComLost
		d.message.SetFrameShape(mseq.Type0, mseq.Lengths{OD: 1, PD: 0})
		d.isduH.SetChunkSize(1)
	}

	if m == mode.PreOperate || m == mode.Operate {
		d.alEvent.Activate()
	} else {
		d.alEvent.Deactivate()
	}

	if m == mode.ComLost {
		if err := d.pl.ArmTimer(pl.TimerTdsio, tdsioDuration); err != nil {
			d.log("device: arm Tdsio: %v", err)
		}
	}
}

// Poll advances the Device by one cooperative scheduling step (spec.md §5):
// wake-up detection and the Mode Handler's fallback timers run first,
// followed by the Message Handler, which in turn drives every channel
// handler (Page/OD, Process/PD, Diagnosis/Event, ISDU) and, through them,
// AL — matching the bottom-up ordering Command -> DL Mode -> Event ->
// Message -> PD -> OD -> ISDU -> AL, collapsed here to the handlers that
// actually have independent per-tick work: Command, Event, PD, OD and ISDU
// only ever act synchronously as Message dispatches a frame to them.
func (d *Device) Poll() error {
	woke, err := d.pl.WakeUpPulse()
	if err != nil {
		return err
	}
	if woke {
		d.mode.OnWakeUp()
	}

	// Autobaud detection is collapsed into the wake-up step: the real
	// Physical Layer resolves the Master's baud rate while decoding the
	// first frame, which this model does not simulate at the bit level.
	if d.mode.Current() == mode.EstablishCom {
		d.mode.OnBaudDetected(pl.ModeCOM2)
	}

	if d.mode.Current() == mode.ComLost {
		elapsed, err := d.pl.TimerElapsed(pl.TimerTdsio)
		if err != nil {
			return err
		}
		if elapsed {
			d.mode.OnTdsioExpired()
		}
	}

	if err := d.message.CheckCycleTimeout(); err != nil {
		return err
	}
	return d.message.Poll()
}

// Mode reports the Device's current DL mode.
func (d *Device) Mode() mode.Mode {
	return d.mode.Current()
}

// SetInputPD pushes a new input PD value down for delivery to the Master on
// the next Process-channel cycle (spec.md §4.6's AL_SetInputReq).
func (d *Device) SetInputPD(data []byte) error {
	return d.pdH.AlSetInputReq(data)
}

// PDCycles reports how many PD cycles AL has observed, for host-side cycle
// accounting.
func (d *Device) PDCycles() int {
	return d.alPD.Cycles()
}

// TriggerEvent raises a device event (spec.md §4.7's AL_EventReq), queuing
// it into event memory for the Master to read out over the Diagnosis
// channel.
func (d *Device) TriggerEvent(e eventmem.Entry) error {
	return d.alEvent.AlEventReq(e)
}

// EventPending reports whether a previously triggered event is still
// queued for Master read-out — the same condition the CKS Event flag on
// the wire reflects.
func (d *Device) EventPending() bool {
	return d.eventH.EventFlagSet()
}

// Snapshot returns a deterministic encoding of every persistent parameter,
// suitable for handing to an external Parameter Storage backend (spec.md
// §1, §6).
func (d *Device) Snapshot() ([]byte, error) {
	return d.paramMem.Snapshot()
}

// Restore loads a snapshot produced by Snapshot, overwriting the matching
// persistent parameters before the Device starts polling.
func (d *Device) Restore(blob []byte) error {
	return d.paramMem.Restore(blob)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
