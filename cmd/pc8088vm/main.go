// Command pc8088vm boots an 8088/PC-compatible real-mode virtual machine
// on top of the host's KVM-backed hardware-virtualization service and
// runs it to completion (spec.md §6 External Interfaces).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/boolingb/pc8088vm/audio"
	"github.com/boolingb/pc8088vm/display"
	"github.com/boolingb/pc8088vm/hypervisor"
	"github.com/boolingb/pc8088vm/machine"
	"github.com/boolingb/pc8088vm/portlog"
)

var (
	flagDebug    bool
	flagPortLog  string
	flagNoDisk   bool
)

func main() {
	root := &cobra.Command{
		Use:   "pc8088vm [program] [firmware]",
		Short: "Run an 8088/PC-compatible real-mode virtual machine",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run,
	}
	root.Flags().BoolVar(&flagDebug, "debug", false, "keep date and time prefixes on log lines")
	root.Flags().StringVar(&flagPortLog, "port-log", "", "write every port access to this file")
	root.Flags().BoolVar(&flagNoDisk, "no-disk", false, "skip loading disk.img even if present")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if !flagDebug {
		log.SetFlags(0)
	}

	program, firmware := machine.ResolveArgs(args)

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		// Port 0x60 blocks for one raw byte at a time (spec.md §4.3): a
		// line-buffered stdin would never deliver a byte until Enter.
		prevState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("pc8088vm: set raw terminal mode: %w", err)
		}
		defer term.Restore(fd, prevState)
	}

	host, err := hypervisor.NewKVMHost()
	if err != nil {
		return fmt.Errorf("pc8088vm: open hypervisor: %w", err)
	}

	displaySink, err := display.NewSink()
	if err != nil {
		return fmt.Errorf("pc8088vm: display sink: %w", err)
	}
	defer displaySink.Close()

	audioSink, err := audio.NewSink()
	if err != nil {
		return fmt.Errorf("pc8088vm: audio sink: %w", err)
	}
	defer audioSink.Close()

	var logger machine.PortLogger
	if flagPortLog != "" {
		sink := portlog.New(flagPortLog)
		defer sink.Close()
		logger = sink
	}

	vm, err := machine.Create(host, machine.Config{
		KeyboardSource: os.Stdin,
		DisplaySink:    displaySink,
		AudioSink:      audioSink,
		PortLogger:     logger,
	})
	if err != nil {
		return fmt.Errorf("pc8088vm: create machine: %w", err)
	}
	defer vm.Destroy()

	if err := vm.LoadFirmware(firmware); err != nil {
		return fmt.Errorf("pc8088vm: %w", err)
	}
	if program != "" {
		if err := vm.LoadProgramFile(program); err != nil {
			return fmt.Errorf("pc8088vm: %w", err)
		}
	}
	if !flagNoDisk {
		vm.LoadDiskImage()
	}

	log.Printf("pc8088vm: booting firmware=%s program=%s", firmware, program)

	if err := vm.Run(); err != nil {
		fmt.Fprintln(os.Stderr, vm.CGA().DumpText())
		return err
	}

	fmt.Print(vm.CGA().DumpText())
	log.Printf("pc8088vm: run loop exited cleanly")
	return nil
}
