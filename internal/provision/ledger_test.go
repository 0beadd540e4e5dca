package provision

import (
	"testing"
	"time"
)

func event(stage Stage, status Status, message string) NormalizedEvent {
	return NormalizedEvent{
		Stage:   stage,
		Label:   stageLabels[stage],
		Status:  status,
		Message: message,
	}
}

// checkInvariants asserts the two ledger invariants: one record per stage,
// at most one record in progress, and EndedAt set exactly on closed records.
func checkInvariants(t *testing.T, l *Ledger) {
	t.Helper()
	seen := make(map[Stage]bool)
	open := 0
	for _, rec := range l.Snapshot() {
		if seen[rec.Stage] {
			t.Fatalf("duplicate record for stage %v", rec.Stage)
		}
		seen[rec.Stage] = true
		if rec.Status == StatusInProgress {
			open++
			if !rec.EndedAt.IsZero() {
				t.Errorf("in-progress record %v has EndedAt set", rec.Stage)
			}
		} else if rec.EndedAt.IsZero() {
			t.Errorf("closed record %v has no EndedAt", rec.Stage)
		}
	}
	if open > 1 {
		t.Fatalf("%d records in progress, want at most 1", open)
	}
}

func TestApplyCreatesAndUpdates(t *testing.T) {
	l := NewLedger()
	now := time.Now()

	l.Apply(event(StageVMCreation, StatusInProgress, "booting"), now)
	l.Apply(event(StageVMCreation, StatusSucceeded, "done"), now.Add(3*time.Second))

	snap := l.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 record after two events for the same stage, got %d", len(snap))
	}
	rec := snap[0]
	if rec.Status != StatusSucceeded {
		t.Errorf("Status = %v, want %v", rec.Status, StatusSucceeded)
	}
	if rec.Message != "done" {
		t.Errorf("Message = %q, want %q", rec.Message, "done")
	}
	if rec.EndedAt.IsZero() {
		t.Error("terminal record should have EndedAt")
	}
	if rec.Elapsed != "0:03" {
		t.Errorf("Elapsed = %q, want %q", rec.Elapsed, "0:03")
	}
	checkInvariants(t, l)
}

func TestApplyAutoClosesPrevious(t *testing.T) {
	l := NewLedger()
	now := time.Now()

	l.Apply(event(StageRequestReceived, StatusInProgress, ""), now)
	l.Apply(event(StageResourceDiscovery, StatusInProgress, ""), now.Add(2*time.Second))

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap))
	}
	first := snap[0]
	if first.Status != StatusSucceeded {
		t.Errorf("previous record Status = %v, want auto-closed %v", first.Status, StatusSucceeded)
	}
	if first.EndedAt.IsZero() {
		t.Error("auto-closed record should have EndedAt")
	}
	if snap[1].Status != StatusInProgress {
		t.Errorf("new record Status = %v, want %v", snap[1].Status, StatusInProgress)
	}
	checkInvariants(t, l)
}

func TestApplyLongSequenceInvariants(t *testing.T) {
	l := NewLedger()
	now := time.Now()

	sequence := []NormalizedEvent{
		event(StageRequestReceived, StatusInProgress, ""),
		event(StageRequestProcessing, StatusInProgress, ""),
		event(StageResourceDiscovery, StatusInProgress, ""),
		event(StageResourceDiscovery, StatusSucceeded, ""),
		event(StageResourceAllocation, StatusInProgress, ""),
		event(StageNetworkSetup, StatusInProgress, ""),
		event(StageVMCreation, StatusInProgress, ""),
		event(StageVMCreation, StatusInProgress, "retrying"),
		event(StageInstancePreparation, StatusInProgress, ""),
		event(StageRunnerRegistration, StatusInProgress, ""),
	}

	for i, ev := range sequence {
		l.Apply(ev, now.Add(time.Duration(i)*time.Second))
		checkInvariants(t, l)
	}
	if l.Len() != 8 {
		t.Errorf("Len() = %d, want 8 distinct stages", l.Len())
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	l := NewLedger()
	l.Apply(event(StageVMCreation, StatusInProgress, ""), time.Now())

	snap := l.Snapshot()
	snap[0].Status = StatusFailed
	snap[0].Message = "mutated"

	again := l.Snapshot()
	if again[0].Status != StatusInProgress || again[0].Message != "" {
		t.Error("mutating a snapshot must not affect the ledger")
	}
}

func TestCloseInProgress(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	l.Apply(event(StageRequestReceived, StatusInProgress, ""), now)
	l.Apply(event(StageGenericError, StatusFailed, "boom"), now.Add(time.Second))
	l.CloseInProgress(now.Add(time.Second))

	for _, rec := range l.Snapshot() {
		if rec.Status == StatusInProgress {
			t.Errorf("record %v still in progress after CloseInProgress", rec.Stage)
		}
	}
	// The failed record must keep its failure.
	snap := l.Snapshot()
	if snap[len(snap)-1].Status != StatusFailed {
		t.Error("CloseInProgress must not overwrite a failed record")
	}
}

func TestRefreshElapsedSkipsClosed(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	l.Apply(event(StageRequestReceived, StatusInProgress, ""), now)
	l.Apply(event(StageRequestProcessing, StatusInProgress, ""), now.Add(5*time.Second))

	closedElapsed := l.Snapshot()[0].Elapsed
	l.RefreshElapsed(now.Add(90 * time.Second))

	snap := l.Snapshot()
	if snap[0].Elapsed != closedElapsed {
		t.Errorf("closed record elapsed changed from %q to %q", closedElapsed, snap[0].Elapsed)
	}
	if snap[1].Elapsed != "1:25" {
		t.Errorf("open record elapsed = %q, want %q", snap[1].Elapsed, "1:25")
	}
}

func TestReset(t *testing.T) {
	l := NewLedger()
	l.Apply(event(StageVMCreation, StatusInProgress, ""), time.Now())
	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", l.Len())
	}
	// A stage seen before the reset starts fresh afterwards.
	l.Apply(event(StageVMCreation, StatusInProgress, ""), time.Now())
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0:00"},
		{-3 * time.Second, "0:00"},
		{5 * time.Second, "0:05"},
		{65 * time.Second, "1:05"},
		{10 * time.Minute, "10:00"},
		{61 * time.Minute, "61:00"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.expected {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}
