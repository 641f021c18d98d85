package machine

import "github.com/boolingb/pc8088vm/hypervisor"

// codeSegmentAttr/dataSegmentAttr/ldtrAttr/trAttr are the access-rights
// bytes spec.md §6 specifies for the initial register bank, packed into
// the Segment.Attributes bitfield hypervisor.Segment expects.
const (
	codeSegmentAttr = 0x9B
	dataSegmentAttr = 0x93
	ldtrAttr        = 0x82
	trAttr          = 0x83
)

// InitialRegisterBank builds the power-on register snapshot spec.md §6
// describes: CS:IP = F000:FFF0 (the reset vector), SS:SP = 0000:FFF0, CR0
// bit 4 set, flags = 0x02, general registers otherwise zero, plus the
// segment, debug and FPU state spec.md §6 calls out explicitly. The general
// registers are zeroed explicitly, since a host may power a vCPU on with a
// non-zero RDX; any register not named here is left at its host-side
// power-on value.
func InitialRegisterBank() ([]hypervisor.RegisterName, []hypervisor.RegisterValue) {
	seg := func(base uint64, limit uint32, selector uint16, attr uint16) hypervisor.RegisterValue {
		return hypervisor.RegisterValue{Segment: hypervisor.Segment{
			Base: base, Limit: limit, Selector: selector, Attributes: attr,
		}}
	}
	reg := func(v uint64) hypervisor.RegisterValue { return hypervisor.RegisterValue{Reg64: v} }

	names := []hypervisor.RegisterName{
		hypervisor.RegRAX, hypervisor.RegRBX, hypervisor.RegRCX, hypervisor.RegRDX,
		hypervisor.RegRSI, hypervisor.RegRDI,
		hypervisor.RegRSP, hypervisor.RegRBP, hypervisor.RegRIP, hypervisor.RegRFLAGS,
		hypervisor.RegCS, hypervisor.RegDS, hypervisor.RegES, hypervisor.RegFS,
		hypervisor.RegGS, hypervisor.RegSS, hypervisor.RegLDTR, hypervisor.RegTR,
		hypervisor.RegCR0, hypervisor.RegDR6, hypervisor.RegDR7, hypervisor.RegXCR0,
		hypervisor.RegFPControl, hypervisor.RegFPTag,
	}
	values := []hypervisor.RegisterValue{
		reg(0), reg(0), reg(0), reg(0),
		reg(0), reg(0),
		reg(0xFFF0), reg(0), reg(0xFFF0), reg(0x02),
		seg(0xF0000, 0xFFFF, 0xF000, codeSegmentAttr),
		seg(0, 0xFFFF, 0, dataSegmentAttr),
		seg(0, 0xFFFF, 0, dataSegmentAttr),
		seg(0, 0xFFFF, 0, dataSegmentAttr),
		seg(0, 0xFFFF, 0, dataSegmentAttr),
		seg(0, 0xFFFF, 0, dataSegmentAttr),
		seg(0, 0, 0, ldtrAttr),
		seg(0, 0, 0, trAttr),
		reg(0x10),
		reg(0xFFFF0FF0), reg(0x400), reg(1),
		reg(0x40), reg(0x55),
	}
	return names, values
}
