// Package tty provides terminal raw-mode switching for the run loop's
// character-at-a-time LC-3 console I/O.
package tty

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Mode captures the subset of terminal state the run loop needs to save and
// restore around a single invocation: the line-discipline flags plus the
// VMIN/VTIME read-control bytes. See spec §4.5, §9 "Terminal mode."
type Mode struct {
	fd     int
	lflag  uint32
	vmin   uint8
	vtime  uint8
	raw    bool
	termIO *term.State
}

// ErrNotATTY is returned by Save when the file descriptor is not attached to
// a terminal. The run loop treats this as "nothing to restore" rather than a
// fatal error; a GUI connection or a redirected file both hit this case.
var ErrNotATTY = fmt.Errorf("tty: not a terminal")

// Save captures the current terminal settings for fd so they can be restored
// later. It does not modify the terminal.
func Save(fd int) (*Mode, error) {
	if !term.IsTerminal(fd) {
		return nil, ErrNotATTY
	}

	termIO, err := unix.IoctlGetTermios(fd, getTermiosIoctl)
	if err != nil {
		return nil, fmt.Errorf("tty: save: %w", err)
	}

	return &Mode{
		fd:    fd,
		lflag: termIO.Lflag,
		vmin:  termIO.Cc[unix.VMIN],
		vtime: termIO.Cc[unix.VTIME],
	}, nil
}

// SetRaw switches the terminal to single-byte, unechoed reads: canonical
// mode and echo are disabled, and VMIN/VTIME are set to read exactly one
// byte with no timeout. This is the console mode the LC-3 KBDR expects.
func (m *Mode) SetRaw() error {
	termIO, err := unix.IoctlGetTermios(m.fd, getTermiosIoctl)
	if err != nil {
		return fmt.Errorf("tty: raw: %w", err)
	}

	termIO.Lflag &^= unix.ICANON | unix.ECHO
	termIO.Cc[unix.VMIN] = 1
	termIO.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(m.fd, setTermiosIoctl, termIO); err != nil {
		return fmt.Errorf("tty: raw: %w", err)
	}

	m.raw = true

	return nil
}

// Restore puts the terminal back into the mode captured by Save. It is safe
// to call more than once or on a nil *Mode (a no-op), so callers can defer
// it unconditionally after a possibly-failed Save.
func (m *Mode) Restore() error {
	if m == nil || !m.raw {
		return nil
	}

	termIO, err := unix.IoctlGetTermios(m.fd, getTermiosIoctl)
	if err != nil {
		return fmt.Errorf("tty: restore: %w", err)
	}

	termIO.Lflag = m.lflag
	termIO.Cc[unix.VMIN] = m.vmin
	termIO.Cc[unix.VTIME] = m.vtime

	if err := unix.IoctlSetTermios(m.fd, setTermiosIoctl, termIO); err != nil {
		return fmt.Errorf("tty: restore: %w", err)
	}

	m.raw = false

	return nil
}

// Fd is the file descriptor the run loop should poll/read for LC-3 console
// input while this mode is active.
func Fd(f *os.File) int {
	return int(f.Fd())
}
