package ioerr

// AnnexCCode is a two-byte (err, additional_err) pair as placed on the wire
// in an ISDU write-failure (0x4) or read-failure (0xC) response, per the
// IO-Link specification's Annex C error code table.
type AnnexCCode struct {
	Err           byte
	AdditionalErr byte
}

// AnnexC maps the subset of Kind values that can surface on the ISDU wire to
// their Annex C code. Kinds not present here never escape to the wire (they
// are recovered locally per spec.md §7's propagation policy).
var AnnexC = map[Kind]AnnexCCode{
	NotReady:       {Err: 0x80, AdditionalErr: 0x10}, // ServiceTemporarilyUnavailable
	InvalidIndex:   {Err: 0x80, AdditionalErr: 0x11}, // IndexNotExisting
	InvalidAddress: {Err: 0x80, AdditionalErr: 0x12}, // SubindexNotExisting
	InvalidLength:  {Err: 0x80, AdditionalErr: 0x23}, // ValueOutOfRange / length mismatch
	ReadOnlyError:  {Err: 0x80, AdditionalErr: 0x22}, // FunctionNotAvailable (write to RO)
	StateConflict:  {Err: 0x82, AdditionalErr: 0x35}, // state conflict (ISDU overlap, spec.md §4.5)
	NotEnoughMemory: {
		Err:           0x80,
		AdditionalErr: 0x30, // InsufficientResources
	},
}

// CodeFor returns the Annex C wire code for kind, falling back to a generic
// ApplicationError code if kind has no specific entry.
func CodeFor(kind Kind) AnnexCCode {
	if c, ok := AnnexC[kind]; ok {
		return c
	}
	return AnnexCCode{Err: 0x80, AdditionalErr: 0x00}
}
