//go:build linux

package hypervisor

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// KVM ioctl numbers, taken from the kernel's <linux/kvm.h> _IO/_IOR/_IOW
// encodings. These match what a real /dev/kvm exposes.
const (
	kvmGetAPIVersion       = 0xAE00
	kvmCreateVM            = 0xAE01
	kvmCreateVCPU          = 0xAE41
	kvmGetVCPUMMapSize     = 0xAE04
	kvmRun                 = 0xAE80
	kvmGetRegs             = 0x8090AE81
	kvmSetRegs             = 0x4090AE82
	kvmGetSregs            = 0x8138AE83
	kvmSetSregs            = 0x4138AE84
	kvmSetUserMemoryRegion = 0x4020AE46
	kvmTranslate           = 0xC018AE85

	kvmExitUnknown   = 0
	kvmExitIO        = 2
	kvmExitHlt       = 5
	kvmExitMMIO      = 6
	kvmExitShutdown  = 8
	kvmExitFailEntry = 9

	kvmExitIOIn  = 0
	kvmExitIOOut = 1
)

type kvmSegment struct {
	Base     uint64
	Limit    uint32
	Selector uint16
	Type     uint8
	Present  uint8
	DPL      uint8
	DB       uint8
	S        uint8
	L        uint8
	G        uint8
	AVL      uint8
	Unusable uint8
	_        uint8
}

type kvmDTable struct {
	Base  uint64
	Limit uint16
	_     [3]uint16
}

type kvmRegs struct {
	RAX, RBX, RCX, RDX    uint64
	RSI, RDI, RSP, RBP    uint64
	R8, R9, R10, R11      uint64
	R12, R13, R14, R15    uint64
	RIP, RFLAGS           uint64
}

type kvmSregs struct {
	CS, DS, ES, FS, GS, SS kvmSegment
	TR, LDT                kvmSegment
	GDT, IDT               kvmDTable
	CR0, CR2, CR3, CR4     uint64
	CR8                    uint64
	EFER                   uint64
	ApicBase               uint64
	InterruptBitmap        [(256 + 63) / 64]uint64
}

type kvmUserspaceMemoryRegion struct {
	Slot          uint32
	Flags         uint32
	GuestPhysAddr uint64
	MemorySize    uint64
	UserspaceAddr uint64
}

// kvmRunData mirrors struct kvm_run's common header plus the padded union
// region; the union is decoded by hand below rather than via cgo.
type kvmRunData struct {
	RequestInterruptWindow     uint8
	_                          [7]uint8
	ExitReason                 uint32
	ReadyForInterruptInjection uint8
	IfFlag                     uint8
	_                          [2]uint8
	CR8                        uint64
	ApicBase                   uint64
	Data                       [32]uint64
}

// io decodes the KVM_EXIT_IO union the same way gokvm's RunData.IO does:
// direction/size/port/count packed into Data[0], data buffer offset in
// Data[1] (relative to the start of the kvm_run page).
func (r *kvmRunData) io() (direction, size, port, count, offset uint64) {
	direction = r.Data[0] & 0xFF
	size = (r.Data[0] >> 8) & 0xFF
	port = (r.Data[0] >> 16) & 0xFFFF
	count = (r.Data[0] >> 32) & 0xFFFFFFFF
	offset = r.Data[1]
	return
}

type kvmTranslation struct {
	LinearAddress  uint64
	PhysicalAddress uint64
	Valid          uint8
	Writeable      uint8
	Usermode       uint8
	_              [5]uint8
}

func ioctl(fd int, op uintptr, arg uintptr) (uintptr, error) {
	res, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), op, arg)
	if errno != 0 {
		return 0, errno
	}
	return res, nil
}

type kvmVCPU struct {
	fd      int
	mmap    []byte
	runData *kvmRunData
}

// KVMHost implements Host against Linux's /dev/kvm, the concrete shape of
// the "host-provided hardware-virtualization service" spec.md treats
// abstractly. Grounded on bobuhiro11-gokvm/kvm/kvm.go for the ioctl numbers
// and kvm_run union decoding.
type KVMHost struct {
	kvmFD      int
	vmFD       int
	mmapSize   int
	vcpus      map[int]*kvmVCPU
	nextSlot   uint32
}

// NewKVMHost opens /dev/kvm. The partition itself is created by
// CreatePartition, matching the Host interface's staged setup.
func NewKVMHost() (*KVMHost, error) {
	fd, err := unix.Open("/dev/kvm", unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/kvm: %w", err)
	}
	return &KVMHost{kvmFD: fd, vcpus: make(map[int]*kvmVCPU)}, nil
}

func (h *KVMHost) CreatePartition() error {
	fd, err := ioctl(h.kvmFD, kvmCreateVM, 0)
	if err != nil {
		return fmt.Errorf("KVM_CREATE_VM: %w", err)
	}
	h.vmFD = int(fd)
	size, err := ioctl(h.kvmFD, kvmGetVCPUMMapSize, 0)
	if err != nil {
		return fmt.Errorf("KVM_GET_VCPU_MMAP_SIZE: %w", err)
	}
	h.mmapSize = int(size)
	return nil
}

// SetProcessorCount is a no-op under KVM: vCPU count is implied by how many
// times CreateVirtualProcessor is called. Kept to satisfy the Host
// interface's partition-setup staging (spec.md §4.1 calls this out as a
// distinct step for the WHP-shaped host).
func (h *KVMHost) SetProcessorCount(n int) error {
	if n != 1 {
		return fmt.Errorf("KVMHost: only a single vCPU is supported (got %d)", n)
	}
	return nil
}

// SetupPartition is likewise a no-op under KVM; WHvSetupPartition has no
// direct KVM equivalent once KVM_CREATE_VM has run.
func (h *KVMHost) SetupPartition() error { return nil }

func (h *KVMHost) CreateVirtualProcessor(id int) error {
	fd, err := ioctl(h.vmFD, kvmCreateVCPU, uintptr(id))
	if err != nil {
		return fmt.Errorf("KVM_CREATE_VCPU: %w", err)
	}
	data, err := unix.Mmap(int(fd), 0, h.mmapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(int(fd))
		return fmt.Errorf("mmap kvm_run: %w", err)
	}
	h.vcpus[id] = &kvmVCPU{
		fd:      int(fd),
		mmap:    data,
		runData: (*kvmRunData)(unsafe.Pointer(&data[0])),
	}
	return nil
}

func (h *KVMHost) MapGuestMemory(hostMemory []byte, guestPhysAddr uint64, flags MapFlags) error {
	region := kvmUserspaceMemoryRegion{
		Slot:          h.nextSlot,
		GuestPhysAddr: guestPhysAddr,
		MemorySize:    uint64(len(hostMemory)),
		UserspaceAddr: uint64(uintptr(unsafe.Pointer(&hostMemory[0]))),
	}
	h.nextSlot++
	_, err := ioctl(h.vmFD, kvmSetUserMemoryRegion, uintptr(unsafe.Pointer(&region)))
	if err != nil {
		return fmt.Errorf("KVM_SET_USER_MEMORY_REGION at 0x%x: %w", guestPhysAddr, err)
	}
	return nil
}

func (h *KVMHost) SetRegisters(id int, names []RegisterName, values []RegisterValue) error {
	v, ok := h.vcpus[id]
	if !ok {
		return fmt.Errorf("KVMHost: no such vCPU %d", id)
	}
	regs, err := h.rawGetRegs(v)
	if err != nil {
		return err
	}
	sregs, err := h.rawGetSregs(v)
	if err != nil {
		return err
	}
	for i, n := range names {
		applyRegister(&regs, &sregs, n, values[i])
	}
	if err := h.rawSetRegs(v, regs); err != nil {
		return err
	}
	return h.rawSetSregs(v, sregs)
}

func (h *KVMHost) GetRegisters(id int, names []RegisterName) ([]RegisterValue, error) {
	v, ok := h.vcpus[id]
	if !ok {
		return nil, fmt.Errorf("KVMHost: no such vCPU %d", id)
	}
	regs, err := h.rawGetRegs(v)
	if err != nil {
		return nil, err
	}
	sregs, err := h.rawGetSregs(v)
	if err != nil {
		return nil, err
	}
	out := make([]RegisterValue, len(names))
	for i, n := range names {
		out[i] = readRegister(&regs, &sregs, n)
	}
	return out, nil
}

func (h *KVMHost) rawGetRegs(v *kvmVCPU) (kvmRegs, error) {
	var r kvmRegs
	_, err := ioctl(v.fd, kvmGetRegs, uintptr(unsafe.Pointer(&r)))
	if err != nil {
		return r, fmt.Errorf("KVM_GET_REGS: %w", err)
	}
	return r, nil
}

func (h *KVMHost) rawSetRegs(v *kvmVCPU, r kvmRegs) error {
	_, err := ioctl(v.fd, kvmSetRegs, uintptr(unsafe.Pointer(&r)))
	if err != nil {
		return fmt.Errorf("KVM_SET_REGS: %w", err)
	}
	return nil
}

func (h *KVMHost) rawGetSregs(v *kvmVCPU) (kvmSregs, error) {
	var s kvmSregs
	_, err := ioctl(v.fd, kvmGetSregs, uintptr(unsafe.Pointer(&s)))
	if err != nil {
		return s, fmt.Errorf("KVM_GET_SREGS: %w", err)
	}
	return s, nil
}

func (h *KVMHost) rawSetSregs(v *kvmVCPU, s kvmSregs) error {
	_, err := ioctl(v.fd, kvmSetSregs, uintptr(unsafe.Pointer(&s)))
	if err != nil {
		return fmt.Errorf("KVM_SET_SREGS: %w", err)
	}
	return nil
}

func applyRegister(regs *kvmRegs, sregs *kvmSregs, name RegisterName, v RegisterValue) {
	switch name {
	case RegRAX:
		regs.RAX = v.Reg64
	case RegRBX:
		regs.RBX = v.Reg64
	case RegRCX:
		regs.RCX = v.Reg64
	case RegRDX:
		regs.RDX = v.Reg64
	case RegRSI:
		regs.RSI = v.Reg64
	case RegRDI:
		regs.RDI = v.Reg64
	case RegRSP:
		regs.RSP = v.Reg64
	case RegRBP:
		regs.RBP = v.Reg64
	case RegRIP:
		regs.RIP = v.Reg64
	case RegRFLAGS:
		regs.RFLAGS = v.Reg64
	case RegCS:
		sregs.CS = toKvmSegment(v.Segment)
	case RegDS:
		sregs.DS = toKvmSegment(v.Segment)
	case RegES:
		sregs.ES = toKvmSegment(v.Segment)
	case RegFS:
		sregs.FS = toKvmSegment(v.Segment)
	case RegGS:
		sregs.GS = toKvmSegment(v.Segment)
	case RegSS:
		sregs.SS = toKvmSegment(v.Segment)
	case RegLDTR:
		sregs.LDT = toKvmSegment(v.Segment)
	case RegTR:
		sregs.TR = toKvmSegment(v.Segment)
	case RegCR0:
		sregs.CR0 = v.Reg64
	case RegDR6, RegDR7, RegXCR0, RegFPControl, RegFPTag:
		// Accepted into the register-bank API (spec.md §6 lists initial
		// values for all of these) but not forwarded to KVM: debug
		// registers, the extended-control register and FPU control/tag
		// words each live behind their own ioctl (KVM_SET_DEBUGREGS,
		// KVM_SET_XCRS, KVM_SET_FPU) that this backend doesn't issue,
		// since nothing in scope here depends on FPU or hardware
		// breakpoint state.
	}
}

func readRegister(regs *kvmRegs, sregs *kvmSregs, name RegisterName) RegisterValue {
	switch name {
	case RegRAX:
		return RegisterValue{Reg64: regs.RAX}
	case RegRBX:
		return RegisterValue{Reg64: regs.RBX}
	case RegRCX:
		return RegisterValue{Reg64: regs.RCX}
	case RegRDX:
		return RegisterValue{Reg64: regs.RDX}
	case RegRSI:
		return RegisterValue{Reg64: regs.RSI}
	case RegRDI:
		return RegisterValue{Reg64: regs.RDI}
	case RegRSP:
		return RegisterValue{Reg64: regs.RSP}
	case RegRBP:
		return RegisterValue{Reg64: regs.RBP}
	case RegRIP:
		return RegisterValue{Reg64: regs.RIP}
	case RegRFLAGS:
		return RegisterValue{Reg64: regs.RFLAGS}
	case RegCS:
		return RegisterValue{Segment: fromKvmSegment(sregs.CS)}
	case RegDS:
		return RegisterValue{Segment: fromKvmSegment(sregs.DS)}
	case RegES:
		return RegisterValue{Segment: fromKvmSegment(sregs.ES)}
	case RegFS:
		return RegisterValue{Segment: fromKvmSegment(sregs.FS)}
	case RegGS:
		return RegisterValue{Segment: fromKvmSegment(sregs.GS)}
	case RegSS:
		return RegisterValue{Segment: fromKvmSegment(sregs.SS)}
	case RegLDTR:
		return RegisterValue{Segment: fromKvmSegment(sregs.LDT)}
	case RegTR:
		return RegisterValue{Segment: fromKvmSegment(sregs.TR)}
	case RegCR0:
		return RegisterValue{Reg64: sregs.CR0}
	}
	return RegisterValue{}
}

func toKvmSegment(s Segment) kvmSegment {
	return kvmSegment{
		Base:     s.Base,
		Limit:    s.Limit,
		Selector: s.Selector,
		Type:     uint8(s.Attributes & 0xF),
		Present:  uint8((s.Attributes >> 7) & 1),
		DPL:      uint8((s.Attributes >> 5) & 3),
		S:        uint8((s.Attributes >> 4) & 1),
		DB:       uint8((s.Attributes >> 14) & 1),
		G:        uint8((s.Attributes >> 15) & 1),
	}
}

func fromKvmSegment(s kvmSegment) Segment {
	attrs := uint16(s.Type&0xF) |
		uint16(s.S&1)<<4 |
		uint16(s.DPL&3)<<5 |
		uint16(s.Present&1)<<7 |
		uint16(s.DB&1)<<14 |
		uint16(s.G&1)<<15
	return Segment{Base: s.Base, Limit: s.Limit, Selector: s.Selector, Attributes: attrs}
}

func (h *KVMHost) RunVirtualProcessor(id int) (ExitContext, error) {
	v, ok := h.vcpus[id]
	if !ok {
		return ExitContext{}, fmt.Errorf("KVMHost: no such vCPU %d", id)
	}
	_, err := ioctl(v.fd, kvmRun, 0)
	if err != nil && err != unix.EINTR {
		return ExitContext{}, fmt.Errorf("KVM_RUN: %w", err)
	}

	switch v.runData.ExitReason {
	case kvmExitIO:
		direction, size, port, _, offset := v.runData.io()
		data := v.mmap[offset : offset+size]
		var d uint32
		for i := uint64(0); i < size; i++ {
			d |= uint32(data[i]) << (8 * i)
		}
		dir := IODirectionIn
		if direction == kvmExitIOOut {
			dir = IODirectionOut
		}
		return ExitContext{
			Reason: ExitIOPortAccess,
			IO: IOPortAccess{
				Direction:  dir,
				Port:       uint16(port),
				AccessSize: uint8(size),
				Data:       d,
			},
		}, nil
	case kvmExitHlt:
		return ExitContext{Reason: ExitHalt, InstructionLength: 1}, nil
	case kvmExitShutdown:
		return ExitContext{Reason: ExitShutdown}, nil
	case kvmExitFailEntry:
		return ExitContext{Reason: ExitFailEntry, HardwareReason: v.runData.ApicBase}, nil
	default:
		return ExitContext{Reason: ExitUnknown, HardwareReason: uint64(v.runData.ExitReason)}, nil
	}
}

// CompleteIO writes an IN result back into the kvm_run data buffer so the
// guest sees it on resume. KVM's IO exit is a request/response pair within
// the same RunVirtualProcessor call boundary: the dispatcher must call this
// before the next RunVirtualProcessor call following an IN access.
func (h *KVMHost) CompleteIO(id int, data uint32) error {
	v, ok := h.vcpus[id]
	if !ok {
		return fmt.Errorf("KVMHost: no such vCPU %d", id)
	}
	_, size, _, _, offset := v.runData.io()
	buf := v.mmap[offset : offset+size]
	for i := uint64(0); i < size; i++ {
		buf[i] = byte(data >> (8 * i))
	}
	return nil
}

func (h *KVMHost) TranslateGVA(id int, gva uint64) (uint64, TranslateResult, error) {
	v, ok := h.vcpus[id]
	if !ok {
		return 0, TranslateGpaUnmapped, fmt.Errorf("KVMHost: no such vCPU %d", id)
	}
	t := kvmTranslation{LinearAddress: gva}
	_, err := ioctl(v.fd, kvmTranslate, uintptr(unsafe.Pointer(&t)))
	if err != nil {
		return 0, TranslateGpaUnmapped, fmt.Errorf("KVM_TRANSLATE: %w", err)
	}
	if t.Valid == 0 {
		return 0, TranslatePageNotPresent, nil
	}
	return t.PhysicalAddress, TranslateSuccess, nil
}

func (h *KVMHost) DeletePartition() error {
	for _, v := range h.vcpus {
		if v.mmap != nil {
			unix.Munmap(v.mmap)
		}
		if v.fd != 0 {
			unix.Close(v.fd)
		}
	}
	if h.vmFD != 0 {
		unix.Close(h.vmFD)
	}
	if h.kvmFD != 0 {
		unix.Close(h.kvmFD)
	}
	return nil
}
