package charge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/battpipe/battpipe/pkg/sysfs"
	"github.com/battpipe/battpipe/pkg/threshold"
)

func TestApplierApplyOrdering(t *testing.T) {
	tests := []struct {
		name      string
		stored    [2]int // start, end
		target    threshold.Resolved
		wantOrder []sysfs.Attr
	}{
		{
			name:      "widening range writes start first",
			stored:    [2]int{30, 80},
			target:    threshold.Resolved{Start: 10, End: 90},
			wantOrder: []sysfs.Attr{sysfs.StartThreshold, sysfs.EndThreshold},
		},
		{
			name:      "range above stored end writes end first",
			stored:    [2]int{10, 20},
			target:    threshold.Resolved{Start: 50, End: 60},
			wantOrder: []sysfs.Attr{sysfs.EndThreshold, sysfs.StartThreshold},
		},
		{
			name:      "range below stored start writes start first",
			stored:    [2]int{60, 80},
			target:    threshold.Resolved{Start: 10, End: 20},
			wantOrder: []sysfs.Attr{sysfs.StartThreshold, sysfs.EndThreshold},
		},
		{
			name:      "overlapping increase writes start first",
			stored:    [2]int{40, 60},
			target:    threshold.Resolved{Start: 50, End: 70},
			wantOrder: []sysfs.Attr{sysfs.StartThreshold, sysfs.EndThreshold},
		},
		{
			name:      "unchanged pair",
			stored:    [2]int{40, 60},
			target:    threshold.Resolved{Start: 40, End: 60},
			wantOrder: []sysfs.Attr{sysfs.StartThreshold, sysfs.EndThreshold},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := sysfs.NewMock(tt.stored[0], tt.stored[1])
			a := NewApplier(mock)

			if err := a.Apply(tt.target); err != nil {
				t.Fatalf("Apply(%v) over stored %v failed: %v", tt.target, tt.stored, err)
			}

			start, end := mock.Stored()
			if start != int(tt.target.Start) || end != int(tt.target.End) {
				t.Errorf("stored pair = (%d, %d), want (%d, %d)", start, end, tt.target.Start, tt.target.End)
			}

			writes := mock.Writes()
			if len(writes) != len(tt.wantOrder) {
				t.Fatalf("got %d writes, want %d: %v", len(writes), len(tt.wantOrder), writes)
			}
			for i, attr := range tt.wantOrder {
				if writes[i].Attr != attr {
					t.Errorf("write %d went to %s, want %s", i, writes[i].Attr, attr)
				}
			}
		})
	}
}

func TestApplierRoundTrip(t *testing.T) {
	// Arbitrary valid pairs applied over arbitrary stored pairs must always
	// land exactly, whatever the ordering decision was.
	for oldStart := 0; oldStart <= 100; oldStart += 20 {
		for oldEnd := oldStart; oldEnd <= 100; oldEnd += 20 {
			for newStart := 0; newStart <= 100; newStart += 25 {
				for newEnd := newStart; newEnd <= 100; newEnd += 25 {
					mock := sysfs.NewMock(oldStart, oldEnd)
					a := NewApplier(mock)

					target := threshold.Resolved{
						Start: threshold.Percent(newStart),
						End:   threshold.Percent(newEnd),
					}
					if err := a.Apply(target); err != nil {
						t.Fatalf("Apply (%d,%d) -> (%d,%d) failed: %v",
							oldStart, oldEnd, newStart, newEnd, err)
					}

					start, end := mock.Stored()
					if start != newStart || end != newEnd {
						t.Fatalf("Apply (%d,%d) -> (%d,%d) stored (%d,%d)",
							oldStart, oldEnd, newStart, newEnd, start, end)
					}
				}
			}
		}
	}
}

func TestApplierWriteFailure(t *testing.T) {
	mock := sysfs.NewMock(30, 80)
	mock.WriteErr[sysfs.EndThreshold] = errors.New("device busy")
	a := NewApplier(mock)

	err := a.Apply(threshold.Resolved{Start: 10, End: 90})
	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("expected *ApplyError, got %v (%T)", err, err)
	}
	if applyErr.Attr != sysfs.EndThreshold {
		t.Errorf("ApplyError.Attr = %s, want %s", applyErr.Attr, sysfs.EndThreshold)
	}
	if applyErr.Op != "write" {
		t.Errorf("ApplyError.Op = %s, want write", applyErr.Op)
	}
}

// racyFS fails the first write it sees, the way a concurrent external writer
// racing the ordering decision would, then behaves normally.
type racyFS struct {
	*sysfs.Mock
	failed bool
}

func (f *racyFS) Write(attr sysfs.Attr, value int) error {
	if !f.failed {
		f.failed = true
		return fmt.Errorf("write %s: transient ordering race", attr)
	}
	return f.Mock.Write(attr, value)
}

func TestApplierRetriesOnceAfterReread(t *testing.T) {
	fs := &racyFS{Mock: sysfs.NewMock(30, 80)}
	a := NewApplier(fs)

	if err := a.Apply(threshold.Resolved{Start: 10, End: 90}); err != nil {
		t.Fatalf("Apply should succeed on retry, got: %v", err)
	}

	start, end := fs.Stored()
	if start != 10 || end != 90 {
		t.Errorf("stored pair = (%d, %d), want (10, 90)", start, end)
	}
}

func TestApplierReadFailure(t *testing.T) {
	mock := sysfs.NewMock(30, 80)
	mock.ReadErr[sysfs.StartThreshold] = errors.New("permission denied")
	a := NewApplier(mock)

	err := a.Apply(threshold.Resolved{Start: 10, End: 90})
	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("expected *ApplyError, got %v (%T)", err, err)
	}
	if applyErr.Op != "read" {
		t.Errorf("ApplyError.Op = %s, want read", applyErr.Op)
	}
}
