package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/hypervisor"
	"github.com/boolingb/pc8088vm/machine"
)

func TestInitialRegisterBankMatchesResetVectorInvariant(t *testing.T) {
	names, values := machine.InitialRegisterBank()
	require.Equal(t, len(names), len(values))

	byName := make(map[hypervisor.RegisterName]hypervisor.RegisterValue)
	for i, n := range names {
		byName[n] = values[i]
	}

	require.Equal(t, uint64(0xFFF0), byName[hypervisor.RegRIP].Reg64)
	require.Equal(t, uint64(0xFFF0), byName[hypervisor.RegRSP].Reg64)
	require.Equal(t, uint64(0x02), byName[hypervisor.RegRFLAGS].Reg64)
	require.Equal(t, uint64(0x10), byName[hypervisor.RegCR0].Reg64)

	cs := byName[hypervisor.RegCS].Segment
	require.Equal(t, uint64(0xF0000), cs.Base)
	require.Equal(t, uint32(0xFFFF), cs.Limit)
	require.Equal(t, uint16(0xF000), cs.Selector)

	ds := byName[hypervisor.RegDS].Segment
	require.Equal(t, uint64(0), ds.Base)
	require.Equal(t, uint32(0xFFFF), ds.Limit)
}
