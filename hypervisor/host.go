// Package hypervisor abstracts the host hardware-virtualization service that
// backs a single real-mode vCPU: partition/VM creation, guest memory
// mapping, running the vCPU until it exits, and the register access the
// instruction emulator needs to service a trapped access.
//
// spec.md §1 treats the host service as an external collaborator reachable
// only through this five-call contract (run,
// get-registers, set-registers, translate-gva, map-memory); Host is that
// contract's transport side. machine.Emulator is the capability-object side
// that the port dispatcher actually calls.
package hypervisor

import "fmt"

// RegisterName identifies one vCPU register for Get/SetRegisters.
type RegisterName int

const (
	RegRAX RegisterName = iota
	RegRBX
	RegRCX
	RegRDX
	RegRSI
	RegRDI
	RegRSP
	RegRBP
	RegRIP
	RegRFLAGS
	RegCS
	RegDS
	RegES
	RegFS
	RegGS
	RegSS
	RegLDTR
	RegTR
	RegCR0
	RegDR6
	RegDR7
	RegXCR0
	RegFPControl
	RegFPTag
)

// Segment mirrors the WHV_X64_SEGMENT_REGISTER / KVM sregs segment shape
// closely enough to carry a real-mode segment descriptor: base, limit,
// selector and the access-rights byte the register bank (spec.md §6)
// specifies per segment.
type Segment struct {
	Base       uint64
	Limit      uint32
	Selector   uint16
	Attributes uint16
}

// RegisterValue is a tagged union wide enough for a GPR, RIP/RFLAGS, a
// control/debug register, or a segment register.
type RegisterValue struct {
	Reg64   uint64
	Segment Segment
}

// ExitReason classifies why RunVirtualProcessor returned control.
type ExitReason int

const (
	ExitUnknown ExitReason = iota
	ExitIOPortAccess
	ExitHalt
	ExitShutdown
	ExitFailEntry
)

// IODirection matches spec.md §4.3's {direction: IN|OUT}.
type IODirection int

const (
	IODirectionIn IODirection = iota
	IODirectionOut
)

// IOPortAccess is the decoded form of a trapped IN/OUT instruction, the
// shape the port dispatcher (§4.3) consumes.
type IOPortAccess struct {
	Direction  IODirection
	Port       uint16
	AccessSize uint8 // 1, 2 or 4
	Data       uint32
}

// ExitContext is what RunVirtualProcessor hands back per iteration.
type ExitContext struct {
	Reason            ExitReason
	IO                IOPortAccess
	InstructionLength uint64
	HardwareReason    uint64
}

// TranslateResult mirrors WHV_TRANSLATE_GVA_RESULT_CODE closely enough for
// the GVA-translate callback contract (§4.6) to propagate a real result
// code to its caller.
type TranslateResult int

const (
	TranslateSuccess TranslateResult = iota
	TranslatePageNotPresent
	TranslateAccessDenied
	TranslateGpaUnmapped
)

// MapFlags are the permissions a guest memory range is mapped with.
type MapFlags int

const (
	MapRead MapFlags = 1 << iota
	MapWrite
	MapExecute
)

// Host is the abstract hardware-virtualization service: create a partition
// with one vCPU, map host memory as guest physical memory, run the vCPU
// until it exits, and answer register/translation queries. spec.md §4.1
// and §4.6 name every method here.
type Host interface {
	CreatePartition() error
	SetProcessorCount(n int) error
	SetupPartition() error
	CreateVirtualProcessor(id int) error

	MapGuestMemory(hostMemory []byte, guestPhysAddr uint64, flags MapFlags) error

	SetRegisters(id int, names []RegisterName, values []RegisterValue) error
	GetRegisters(id int, names []RegisterName) ([]RegisterValue, error)

	RunVirtualProcessor(id int) (ExitContext, error)
	TranslateGVA(id int, gva uint64) (gpa uint64, result TranslateResult, err error)

	// CompleteIO writes the result of a serviced IN access back into the
	// vCPU's pending exit before the next RunVirtualProcessor call resumes
	// it. It is a no-op for OUT accesses and for Hosts where RunVirtualProcessor
	// already resumed in place.
	CompleteIO(id int, data uint32) error

	DeletePartition() error
}

// ErrUnclassifiedExit describes an exit reason the vCPU driver doesn't
// recognize; machine.VCPU.Run builds it from the ExitContext, logs it and
// ends the loop, matching spec.md §4.2's "any other reason: log and
// terminate the loop".
type ErrUnclassifiedExit struct {
	Reason         ExitReason
	HardwareReason uint64
}

func (e *ErrUnclassifiedExit) Error() string {
	return fmt.Sprintf("unclassified vCPU exit reason %d (hw=0x%x)", e.Reason, e.HardwareReason)
}
