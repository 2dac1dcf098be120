// Package charge applies resolved threshold pairs to the kernel's
// charge-control attributes.
package charge

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/battpipe/battpipe/pkg/sysfs"
	"github.com/battpipe/battpipe/pkg/threshold"
)

// ApplyError reports a failed application, tagged with the attribute that
// failed so the operator knows which file to look at.
type ApplyError struct {
	Attr sysfs.Attr
	Op   string // "read", "write" or "verify"
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Attr, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Applier writes threshold pairs to the kernel in an order that keeps every
// intermediate state valid.
type Applier struct {
	fs sysfs.Interface
}

// NewApplier returns an Applier over the given sysfs access layer.
func NewApplier(fs sysfs.Interface) *Applier {
	return &Applier{fs: fs}
}

// Current reads the currently effective threshold pair from the kernel.
func (a *Applier) Current() (threshold.Resolved, error) {
	start, err := a.fs.Read(sysfs.StartThreshold)
	if err != nil {
		return threshold.Resolved{}, &ApplyError{Attr: sysfs.StartThreshold, Op: "read", Err: err}
	}
	end, err := a.fs.Read(sysfs.EndThreshold)
	if err != nil {
		return threshold.Resolved{}, &ApplyError{Attr: sysfs.EndThreshold, Op: "read", Err: err}
	}
	return threshold.Resolved{Start: threshold.Percent(start), End: threshold.Percent(end)}, nil
}

// Apply writes r to the kernel attributes.
//
// The driver validates each attribute against the other's currently stored
// value at write time, so the order has to be chosen from the stored pair:
// when the new start fits under the stored end, start goes first; otherwise
// the end write raises the ceiling first. The stored pair is re-read on every
// request because external tools may have changed it. On a write failure the
// stored pair is re-read once and the request retried, which tolerates an
// ordering race with a concurrent external writer; a second failure is
// reported as an ApplyError and no further state is touched.
func (a *Applier) Apply(r threshold.Resolved) error {
	cur, err := a.Current()
	if err != nil {
		return err
	}

	if err := a.applyOrdered(r, cur); err != nil {
		logrus.WithFields(logrus.Fields{
			"target": r,
			"stored": cur,
		}).Debugf("threshold write failed, re-reading and retrying once: %v", err)

		cur, rerr := a.Current()
		if rerr != nil {
			return rerr
		}
		if err := a.applyOrdered(r, cur); err != nil {
			return err
		}
	}

	return a.verify(r)
}

func (a *Applier) applyOrdered(r threshold.Resolved, cur threshold.Resolved) error {
	order := []sysfs.Attr{sysfs.StartThreshold, sysfs.EndThreshold}
	if r.Start > cur.End {
		order = []sysfs.Attr{sysfs.EndThreshold, sysfs.StartThreshold}
	}

	for _, attr := range order {
		value := int(r.Start)
		if attr == sysfs.EndThreshold {
			value = int(r.End)
		}
		if err := a.fs.Write(attr, value); err != nil {
			return &ApplyError{Attr: attr, Op: "write", Err: err}
		}
	}

	return nil
}

// verify reads both attributes back and confirms they hold the written pair.
func (a *Applier) verify(r threshold.Resolved) error {
	cur, err := a.Current()
	if err != nil {
		return err
	}
	if cur.Start != r.Start {
		return &ApplyError{
			Attr: sysfs.StartThreshold,
			Op:   "verify",
			Err:  fmt.Errorf("read back %d, want %d", cur.Start, r.Start),
		}
	}
	if cur.End != r.End {
		return &ApplyError{
			Attr: sysfs.EndThreshold,
			Op:   "verify",
			Err:  fmt.Errorf("read back %d, want %d", cur.End, r.End),
		}
	}
	return nil
}
