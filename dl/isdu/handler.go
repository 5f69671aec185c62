package isdu

import "iolinke.dev/ioerr"

// State is one of the ISDU Handler states, spec.md §4.5 (Figure 52).
type State int

const (
	Inactive State = iota
	Idle
	AwaitAppResp
	TransmitResp
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "Inactive"
	case Idle:
		return "Idle"
	case AwaitAppResp:
		return "AwaitAppResp"
	case TransmitResp:
		return "TransmitResp"
	default:
		return "Unknown"
	}
}

// AL is the upper-half callback the DL ISDU Handler forwards completed
// requests to, and receives responses from.
type AL interface {
	// IsduTransportInd forwards a completely reassembled request. AL must
	// eventually call Handler.SubmitResponse with the result; it may do so
	// synchronously from within this call.
	IsduTransportInd(req Message)
}

// Handler is the DL-side ISDU Handler state machine: accumulates a request
// across cycles, forwards it to AL, then segments AL's response back across
// cycles.
type Handler struct {
	state State
	al    AL

	chunkSize int

	// in-flight request reassembly.
	reqBuf []byte

	// in-flight response segmentation.
	respChunks [][]byte
	respIdx    int
}

// NewHandler builds a Handler. chunkSize is the current OD channel length in
// octets per cycle.
func NewHandler(al AL, chunkSize int) *Handler {
	return &Handler{state: Inactive, al: al, chunkSize: chunkSize}
}

// SetEnabled implements sm.Capability.
func (h *Handler) SetEnabled(enabled bool) {
	if enabled {
		if h.state == Inactive {
			h.state = Idle
		}
		return
	}
	h.reset()
	h.state = Inactive
}

// SetChunkSize updates the OD channel length used for segmentation, e.g.
// when the device moves from PreOperate to Operate with a different
// configured OD length.
func (h *Handler) SetChunkSize(n int) {
	h.chunkSize = n
}

// State returns the current handler state.
func (h *Handler) State() State {
	return h.state
}

func (h *Handler) reset() {
	h.reqBuf = nil
	h.respChunks = nil
	h.respIdx = 0
}

// OnReceiveOD feeds chunk octets received on the ISDU channel this cycle. It
// accumulates into the request buffer and, once a complete frame is
// decodable, forwards it to AL. While not Idle, a new request chunk
// indicates channel overlap and is rejected with StateConflict (spec.md
// §4.5's "Overlap" behavior, wire code 0x8235 via ioerr.AnnexC).
func (h *Handler) OnReceiveOD(chunk []byte) error {
	switch h.state {
	case Inactive:
		return ioerr.New("isdu.OnReceiveOD", ioerr.NotReady, nil)
	case AwaitAppResp, TransmitResp:
		if looksLikeNewRequest(chunk) {
			return ioerr.New("isdu.OnReceiveOD", ioerr.StateConflict, nil)
		}
		return nil
	}
	h.reqBuf = append(h.reqBuf, chunk...)
	msg, complete, err := tryDecode(h.reqBuf)
	if err != nil {
		h.reset()
		return err
	}
	if !complete {
		return nil
	}
	h.state = AwaitAppResp
	if h.al != nil {
		h.al.IsduTransportInd(msg)
	}
	return nil
}

// looksLikeNewRequest is a best-effort heuristic: a non-empty chunk whose
// first octet decodes to a request service code signals a new, overlapping
// transaction rather than a stray idle-channel fill byte.
func looksLikeNewRequest(chunk []byte) bool {
	if len(chunk) == 0 {
		return false
	}
	return ServiceCode(chunk[0]>>4).IsRequest()
}

// tryDecode attempts to decode buf as a complete ISDU stream, reporting
// whether more bytes are needed (complete=false, err=nil) or the stream is
// malformed.
func tryDecode(buf []byte) (msg Message, complete bool, err error) {
	if len(buf) < 2 {
		return Message{}, false, nil
	}
	lengthEncoded := buf[0] & 0x0F
	rest := buf[1:]
	var bodyLen int
	if lengthEncoded == extendedLengthMarker {
		if len(rest) < 1 {
			return Message{}, false, nil
		}
		bodyLen = int(rest[0])
		rest = rest[1:]
	} else {
		bodyLen = int(lengthEncoded)
	}
	want := (len(buf) - len(rest)) + bodyLen + 1 // header(+extlen) + body + checksum
	if len(buf) < want {
		return Message{}, false, nil
	}
	m, err := Decode(buf[:want])
	if err != nil {
		return Message{}, false, err
	}
	return m, true, nil
}

// SubmitResponse is called by AL with the result of a forwarded request:
// either a success payload, or a failure kind to report via Annex C. It
// segments the encoded response across OD-sized chunks and transitions to
// TransmitResp.
func (h *Handler) SubmitResponse(req Message, ok bool, payload []byte, failKind ioerr.Kind) {
	if h.state != AwaitAppResp {
		return
	}
	var resp Message
	switch {
	case ok && req.Service.IsWrite():
		resp = Message{Service: ServiceWriteSuccess}
	case ok && req.Service.IsRead():
		resp = Message{Service: ServiceReadSuccess, Payload: payload}
	case req.Service.IsWrite():
		code := ioerr.CodeFor(failKind)
		resp = Message{Service: ServiceWriteFailure, Payload: []byte{code.Err, code.AdditionalErr}}
	default:
		code := ioerr.CodeFor(failKind)
		resp = Message{Service: ServiceReadFailure, Payload: []byte{code.Err, code.AdditionalErr}}
	}
	stream := Encode(resp)
	h.respChunks = Segment(stream, h.chunkSize)
	h.respIdx = 0
	h.state = TransmitResp
}

// NextOD returns the next OD-sized chunk of the in-flight response, or
// nil, false once exhausted (at which point the handler returns to Idle,
// ready for the next transaction).
func (h *Handler) NextOD() ([]byte, bool) {
	if h.state != TransmitResp {
		return nil, false
	}
	if h.respIdx >= len(h.respChunks) {
		h.reset()
		h.state = Idle
		return nil, false
	}
	chunk := h.respChunks[h.respIdx]
	h.respIdx++
	if h.respIdx >= len(h.respChunks) {
		h.reset()
		h.state = Idle
	}
	// Pad the final chunk to the channel width; the Master ignores
	// trailing bytes past the response's own encoded length.
	out := make([]byte, h.chunkSize)
	copy(out, chunk)
	return out, true
}

// Abort flushes the in-flight transaction (DL_IsduAbort, spec.md §4.5). The
// handler returns to Idle on the next poll.
func (h *Handler) Abort() {
	h.reset()
	if h.state != Inactive {
		h.state = Idle
	}
}
