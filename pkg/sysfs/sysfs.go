// Package sysfs accesses the kernel's battery charge-control threshold
// attributes.
package sysfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Attr identifies one of the two charge-control attributes.
type Attr string

const (
	// StartThreshold is the percentage at which charging resumes.
	StartThreshold Attr = "charge_control_start_threshold"
	// EndThreshold is the percentage at which charging stops.
	EndThreshold Attr = "charge_control_end_threshold"
)

// Interface reads and writes the charge-control attributes. The real
// implementation talks to sysfs; tests use a mock that emulates the kernel
// driver's cross-field validation.
type Interface interface {
	Read(attr Attr) (int, error)
	Write(attr Attr, value int) error
}

// FS implements Interface over the two sysfs attribute files. Each operation
// opens and releases the file; no descriptor is held between requests.
type FS struct {
	startPath string
	endPath   string
}

var _ Interface = &FS{}

// New returns an FS over the given attribute paths.
func New(startPath, endPath string) *FS {
	return &FS{
		startPath: startPath,
		endPath:   endPath,
	}
}

func (f *FS) path(attr Attr) string {
	if attr == StartThreshold {
		return f.startPath
	}
	return f.endPath
}

// Read returns the currently effective value of attr.
func (f *FS) Read(attr Attr) (int, error) {
	path := f.path(attr)

	logrus.WithFields(logrus.Fields{
		"attr": attr,
		"path": path,
	}).Trace("reading sysfs attribute")

	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("unexpected content %q in %s: %w", strings.TrimSpace(string(b)), path, err)
	}

	logrus.WithFields(logrus.Fields{
		"attr": attr,
		"val":  v,
	}).Trace("read sysfs attribute")

	return v, nil
}

// Write sets attr to value. The kernel driver validates the value against the
// other attribute's current setting and may reject the write.
func (f *FS) Write(attr Attr, value int) error {
	path := f.path(attr)

	logrus.WithFields(logrus.Fields{
		"attr": attr,
		"val":  value,
		"path": path,
	}).Trace("writing sysfs attribute")

	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0644); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"attr": attr,
		"val":  value,
	}).Trace("wrote sysfs attribute")

	return nil
}

// Writable reports whether attr can be opened for writing by this process.
func (f *FS) Writable(attr Attr) bool {
	fp, err := os.OpenFile(f.path(attr), os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	_ = fp.Close()
	return true
}
