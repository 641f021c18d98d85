package devices

// DMA models the 8237 register surface as latched bytes only: spec.md §1
// Non-goals exclude actual transfers, so each DMA port held here is a plain
// latch (spec.md §3 DeviceLatches, §4.3 ports 0x00-0x07, 0x0A-0x0D, 0x81).
// Page register 0x83 has no latch: the dispatcher accepts writes to it and
// reads it as 0.
type DMA struct {
	Channels [8]LatchedByte // ports 0x00-0x07
	Mask     LatchedByte    // port 0x0A
	Mode     LatchedByte    // port 0x0B
	Clear    LatchedByte    // port 0x0C
	Temp     LatchedByte    // port 0x0D
	Page1    LatchedByte    // port 0x81
}

// FDC models the floppy-disk-controller register stub (spec.md §3, §4.3
// ports 0x3F2/0x3F4/0x3F5): DOR, status and data are plain latches, and no
// actual sector transfer happens (Non-goals, §1).
type FDC struct {
	DOR    LatchedByte
	Status LatchedByte
	Data   LatchedByte
}
