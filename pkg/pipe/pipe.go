// Package pipe manages the named pipe battpipe receives threshold
// expressions on.
package pipe

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Manager owns the FIFO special file: it creates the file if absent,
// converges its ownership and permissions to the configured policy on every
// startup, and hands out lines written to it. A FIFO delivers EOF once all
// writers close; the manager reopens it transparently so callers only ever
// see lines.
type Manager struct {
	path string
	uid  int
	gid  int
	mode os.FileMode

	f *os.File
	r *bufio.Reader
}

// NewManager returns a Manager for the FIFO at path. uid and gid of -1 leave
// ownership untouched.
func NewManager(path string, uid, gid int, mode os.FileMode) *Manager {
	return &Manager{
		path: path,
		uid:  uid,
		gid:  gid,
		mode: mode,
	}
}

// Path returns the FIFO path.
func (m *Manager) Path() string {
	return m.path
}

// Ensure creates the FIFO if it does not exist and applies the configured
// ownership and permission bits. It refuses to touch a path occupied by
// anything other than a FIFO: silently reading a regular file would be far
// worse than failing startup.
func (m *Manager) Ensure() error {
	fi, err := os.Stat(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logrus.Infof("creating pipe at %s", m.path)
		// The process umask would strip bits from the requested mode.
		old := unix.Umask(0)
		mkErr := unix.Mkfifo(m.path, uint32(m.mode.Perm()))
		unix.Umask(old)
		if mkErr != nil {
			return pkgerrors.Wrapf(mkErr, "failed to create pipe at %s", m.path)
		}
	case err != nil:
		return pkgerrors.Wrapf(err, "failed to stat pipe path %s", m.path)
	case fi.Mode()&os.ModeNamedPipe == 0:
		return pkgerrors.Errorf("path %s exists but is a %s, not a named pipe, refusing to use it",
			m.path, fi.Mode().Type())
	}

	// Applied unconditionally so repeated restarts converge to the declared
	// policy even when the pipe pre-exists with stale bits.
	if m.uid >= 0 || m.gid >= 0 {
		if err := os.Chown(m.path, m.uid, m.gid); err != nil {
			return pkgerrors.Wrapf(err, "failed to change pipe ownership to %d:%d", m.uid, m.gid)
		}
		logrus.Debugf("pipe ownership set to %d:%d", m.uid, m.gid)
	}
	if err := os.Chmod(m.path, m.mode.Perm()); err != nil {
		return pkgerrors.Wrapf(err, "failed to change pipe permissions to %04o", m.mode.Perm())
	}
	logrus.Debugf("pipe permissions set to %04o", m.mode.Perm())

	return nil
}

// NextLine blocks until one newline-terminated line arrives on the pipe and
// returns it without the terminator. The open blocks until a writer attaches.
// When all writers disconnect the pipe is closed and reopened internally;
// callers never observe EOF.
func (m *Manager) NextLine() (string, error) {
	for {
		if m.f == nil {
			f, err := os.OpenFile(m.path, os.O_RDONLY, 0)
			if err != nil {
				return "", pkgerrors.Wrapf(err, "failed to open pipe %s for reading", m.path)
			}
			m.f = f
			m.r = bufio.NewReader(f)
			logrus.Debugf("pipe %s opened for reading", m.path)
		}

		line, err := m.r.ReadString('\n')
		if err == nil {
			return strings.TrimSuffix(line, "\n"), nil
		}
		if errors.Is(err, io.EOF) {
			// All writers are gone. Close and reopen so the next read waits
			// for a fresh writer instead of spinning on EOF.
			m.closeQuiet()
			if line != "" {
				// A writer disconnecting mid-line still produced data.
				return line, nil
			}
			logrus.Debug("pipe writer disconnected, reopening")
			continue
		}

		m.closeQuiet()
		return "", pkgerrors.Wrapf(err, "failed to read from pipe %s", m.path)
	}
}

// Close releases the read side of the pipe. The FIFO special file itself is
// left in place for the next daemon start.
func (m *Manager) Close() error {
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	m.r = nil
	return err
}

func (m *Manager) closeQuiet() {
	if err := m.Close(); err != nil {
		logrus.Warnf("failed to close pipe: %v", err)
	}
}
