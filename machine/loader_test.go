package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boolingb/pc8088vm/machine"
)

func TestResolveArgsZeroArgsUsesDefaults(t *testing.T) {
	program, firmware := machine.ResolveArgs(nil)
	require.Equal(t, machine.DefaultProgram, program)
	require.Equal(t, machine.DefaultFirmware, firmware)
}

func TestResolveArgsSingleBinArgIsFirmwareOnly(t *testing.T) {
	program, firmware := machine.ResolveArgs([]string{"custom.bin"})
	require.Equal(t, "", program)
	require.Equal(t, "custom.bin", firmware)
}

func TestResolveArgsSingleFwArgIsFirmwareOnly(t *testing.T) {
	program, firmware := machine.ResolveArgs([]string{"stub.fw"})
	require.Equal(t, "", program)
	require.Equal(t, "stub.fw", firmware)
}

func TestResolveArgsSingleOtherArgIsProgramWithDefaultFirmware(t *testing.T) {
	program, firmware := machine.ResolveArgs([]string{"game.com"})
	require.Equal(t, "game.com", program)
	require.Equal(t, machine.DefaultFirmware, firmware)
}

func TestResolveArgsTwoArgsAreProgramThenFirmware(t *testing.T) {
	program, firmware := machine.ResolveArgs([]string{"game.com", "custom.bin"})
	require.Equal(t, "game.com", program)
	require.Equal(t, "custom.bin", firmware)
}
