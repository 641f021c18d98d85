// Package portlog implements the optional port-access log file: every
// dispatched IN/OUT is appended as one line, opened lazily and truncated
// on first write. Deliberately external to the core dispatcher (spec.md
// §1 lists "the port-log file" among the collaborators specified only at
// their boundary).
package portlog

import (
	"fmt"
	"os"
	"sync"

	"github.com/boolingb/pc8088vm/hypervisor"
)

// Sink is a lazily-opened, truncate-on-first-write log file at path
// (spec.md §6 "port.log ... is truncated at first write").
type Sink struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// New returns a Sink that will open path on its first Log call.
func New(path string) *Sink {
	return &Sink{path: path}
}

// Log appends one line describing a port access. Open and write errors are
// swallowed: the port log is a diagnostic convenience, never a condition
// the run loop should fail on (grounded on the original port_log's
// best-effort semantics).
func (s *Sink) Log(dir hypervisor.IODirection, port uint16, size uint8, data uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return
		}
		s.file = f
	}

	dirStr := "IN "
	if dir == hypervisor.IODirectionOut {
		dirStr = "OUT"
	}
	fmt.Fprintf(s.file, "%s port=0x%04X size=%d data=0x%X\n", dirStr, port, size, data)
	s.file.Sync()
}

// Close releases the underlying file handle, if one was opened.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
