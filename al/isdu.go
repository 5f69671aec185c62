package al

import (
	"iolinke.dev/dl/isdu"
	"iolinke.dev/ioerr"
	"iolinke.dev/storage/isdumem"
	"iolinke.dev/storage/parammem"
)

// ODHandler is the AL OD Handler's ISDU half: it answers reassembled ISDU
// requests by routing through parameter memory first (vendor/product name,
// any other indexed parameter), falling back to general ISDU memory (such as
// the DataStorage entry) for everything else (spec.md §4.5, §4.4).
type ODHandler struct {
	dl     *isdu.Handler
	params *parammem.Memory
	mem    *isdumem.Memory
}

// NewODHandler builds an ODHandler. Bind must be called once the owning
// isdu.Handler exists, since the two are mutually referential.
func NewODHandler(params *parammem.Memory, mem *isdumem.Memory) *ODHandler {
	return &ODHandler{params: params, mem: mem}
}

// Bind attaches the DL ISDU Handler this ODHandler submits responses
// through, resolving the construction-order cycle between them.
func (h *ODHandler) Bind(dl *isdu.Handler) {
	h.dl = dl
}

var _ isdu.AL = (*ODHandler)(nil)

// IsduTransportInd implements isdu.AL.
func (h *ODHandler) IsduTransportInd(req isdu.Message) {
	switch {
	case req.Service.IsRead():
		data, err := h.read(req)
		if err != nil {
			h.dl.SubmitResponse(req, false, nil, ioerr.KindOf(err))
			return
		}
		h.dl.SubmitResponse(req, true, data, 0)
	case req.Service.IsWrite():
		if err := h.write(req); err != nil {
			h.dl.SubmitResponse(req, false, nil, ioerr.KindOf(err))
			return
		}
		h.dl.SubmitResponse(req, true, nil, 0)
	default:
		h.dl.SubmitResponse(req, false, nil, ioerr.InvalidIndex)
	}
}

// read resolves a request index against parameter memory first, falling
// back to ISDU memory when the index isn't a defined parameter.
func (h *ODHandler) read(req isdu.Message) ([]byte, error) {
	data, err := h.params.Get(req.Index)
	if err == nil {
		return data, nil
	}
	if !ioerr.Is(err, ioerr.InvalidIndex) {
		return nil, err
	}
	return h.mem.Read(isdumem.Key{Index: req.Index, SubIndex: req.SubIndex})
}

func (h *ODHandler) write(req isdu.Message) error {
	err := h.params.Set(req.Index, req.Payload)
	if err == nil {
		return nil
	}
	if !ioerr.Is(err, ioerr.InvalidIndex) {
		return err
	}
	return h.mem.Write(isdumem.Key{Index: req.Index, SubIndex: req.SubIndex}, req.Payload)
}
