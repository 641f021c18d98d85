package machine

import "github.com/boolingb/pc8088vm/hypervisor"

// Emulator is the capability object the host instruction emulator calls
// back into (spec.md §4.6): one method per named callback, each running
// synchronously on the vCPU thread.
type Emulator struct {
	host   hypervisor.Host
	vcpuID int
	memory *GuestMemory
	ports  *Dispatcher
}

func NewEmulator(host hypervisor.Host, vcpuID int, memory *GuestMemory, ports *Dispatcher) *Emulator {
	return &Emulator{host: host, vcpuID: vcpuID, memory: memory, ports: ports}
}

// IOPort services a trapped IN/OUT, completing an IN by writing the result
// back through the host before the next run (spec.md §4.3, §4.6).
func (e *Emulator) IOPort(access hypervisor.IOPortAccess) error {
	if access.Direction == hypervisor.IODirectionIn {
		val, err := e.ports.In(access.Port, access.AccessSize)
		if err != nil {
			return err
		}
		return e.host.CompleteIO(e.vcpuID, val)
	}
	return e.ports.Out(access.Port, access.AccessSize, access.Data)
}

// Memory services an MMIO access of length len(buf) at guest physical gpa,
// respecting the high-memory mirror (spec.md §4.6: "taking gpa % memory_size").
func (e *Emulator) Memory(gpa uint64, buf []byte, write bool) error {
	if write {
		e.memory.WriteAt(gpa, buf)
	} else {
		e.memory.ReadAt(gpa, buf)
	}
	return nil
}

// GetRegisters forwards to the host (spec.md §4.6: "Get vCPU registers:
// forward to host").
func (e *Emulator) GetRegisters(names []hypervisor.RegisterName) ([]hypervisor.RegisterValue, error) {
	return e.host.GetRegisters(e.vcpuID, names)
}

// SetRegisters forwards to the host.
func (e *Emulator) SetRegisters(names []hypervisor.RegisterName, values []hypervisor.RegisterValue) error {
	return e.host.SetRegisters(e.vcpuID, names, values)
}

// TranslateGVA forwards to the host.
func (e *Emulator) TranslateGVA(gva uint64) (uint64, hypervisor.TranslateResult, error) {
	return e.host.TranslateGVA(e.vcpuID, gva)
}
