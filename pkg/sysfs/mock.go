package sysfs

import (
	"fmt"
	"sync"
)

// WriteOp records one write a Mock received, in order.
type WriteOp struct {
	Attr  Attr
	Value int
}

// Mock implements Interface in memory and emulates the kernel driver's
// validation: a start write above the stored end value is rejected, as is an
// end write below the stored start value. This is the behavior that makes
// write ordering matter.
type Mock struct {
	mu    sync.Mutex
	start int
	end   int

	writes []WriteOp

	// WriteErr, when set for an attr, makes writes to it fail.
	WriteErr map[Attr]error
	// ReadErr, when set for an attr, makes reads of it fail.
	ReadErr map[Attr]error
}

var _ Interface = &Mock{}

// NewMock returns a Mock prefilled with the given stored threshold pair.
func NewMock(start, end int) *Mock {
	return &Mock{
		start:    start,
		end:      end,
		WriteErr: map[Attr]error{},
		ReadErr:  map[Attr]error{},
	}
}

// Read returns the stored value of attr.
func (m *Mock) Read(attr Attr) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ReadErr[attr]; err != nil {
		return 0, err
	}
	if attr == StartThreshold {
		return m.start, nil
	}
	return m.end, nil
}

// Write stores value into attr, applying the driver's cross-field checks.
func (m *Mock) Write(attr Attr, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.WriteErr[attr]; err != nil {
		return err
	}

	if value < 0 || value > 100 {
		return fmt.Errorf("write %s: invalid argument %d", attr, value)
	}

	switch attr {
	case StartThreshold:
		if value > m.end {
			return fmt.Errorf("write %s: start %d above stored end %d", attr, value, m.end)
		}
		m.start = value
	case EndThreshold:
		if value < m.start {
			return fmt.Errorf("write %s: end %d below stored start %d", attr, value, m.start)
		}
		m.end = value
	}

	m.writes = append(m.writes, WriteOp{Attr: attr, Value: value})
	return nil
}

// Writes returns the accepted writes in the order they happened.
func (m *Mock) Writes() []WriteOp {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]WriteOp, len(m.writes))
	copy(out, m.writes)
	return out
}

// Stored returns the currently stored pair.
func (m *Mock) Stored() (start, end int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.start, m.end
}
